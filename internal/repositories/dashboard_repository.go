package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	GetStats(ctx context.Context, tx *gorm.DB) (*models.DashboardStats, error)
	GetPassRate(ctx context.Context, tx *gorm.DB) (float64, error)
}
