package repositories

import (
	"context"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// IdentityResolver maps an external access token to a local user account
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}
