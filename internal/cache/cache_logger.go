package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// EntityKey is the cache key of a single record of resource
func EntityKey(resource string, id uint) string {
	return fmt.Sprintf("%s:id:%d", resource, id)
}

// InvalidateEntity drops a cached record and any derived keys of it
func InvalidateEntity(ctx context.Context, helper *CacheHelper, resource string, id uint) {
	SafeDelete(ctx, helper, EntityKey(resource, id))
	SafeInvalidatePattern(ctx, helper, fmt.Sprintf("%s:id:%d:*", resource, id))
}

// InvalidateStats drops the cached dashboard counts
func InvalidateStats(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
