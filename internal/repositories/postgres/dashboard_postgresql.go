package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

const statsKey = "dashboard"

type dashboardRepository struct {
	db    *gorm.DB
	users repositories.UserRepository
	cache *cache.CacheHelper
}

func NewDashboardRepository(db *gorm.DB, users repositories.UserRepository, cm *cache.CacheManager) repositories.DashboardRepository {
	return &dashboardRepository{db: db, users: users, cache: cm.Stats}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *dashboardRepository) count(ctx context.Context, tx *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	db := r.getDB(tx).WithContext(ctx).Model(model)
	if query != "" {
		db = db.Where(query, args...)
	}
	if err := db.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ===== DASHBOARD STATS =====

// GetStats returns platform-wide counts, cached for a minute
func (r *dashboardRepository) GetStats(ctx context.Context, tx *gorm.DB) (*models.DashboardStats, error) {
	if tx != nil || !r.cache.Available() {
		return r.computeStats(ctx, tx)
	}

	var stats models.DashboardStats
	err := r.cache.CacheOrExecute(ctx, statsKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return r.computeStats(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *dashboardRepository) computeStats(ctx context.Context, tx *gorm.DB) (*models.DashboardStats, error) {
	byRole, err := r.users.CountByRole(ctx, tx)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{UsersByRole: byRole}
	for _, n := range byRole {
		stats.TotalUsers += n
	}

	counters := []struct {
		name  string
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{"verified users", &stats.VerifiedUsers, &models.User{}, "is_verified = ?", []interface{}{true}},
		{"courses", &stats.TotalCourses, &models.Course{}, "", nil},
		{"active courses", &stats.ActiveCourses, &models.Course{}, "is_active = ?", []interface{}{true}},
		{"enrollments", &stats.TotalEnrollments, &models.Enrollment{}, "", nil},
		{"assessments", &stats.TotalAssessments, &models.Assessment{}, "", nil},
		{"attempts", &stats.TotalAttempts, &models.UserAssessment{}, "", nil},
		{"certifications", &stats.TotalCertifications, &models.Certification{}, "", nil},
		{"active jobs", &stats.ActiveJobs, &models.JobOpportunity{}, "is_active = ?", []interface{}{true}},
		{"applications", &stats.TotalApplications, &models.JobApplication{}, "", nil},
		{"discussions", &stats.TotalDiscussions, &models.Discussion{}, "", nil},
	}
	for _, c := range counters {
		n, err := r.count(ctx, tx, c.model, c.query, c.args...)
		if err != nil {
			return nil, fmt.Errorf("failed to get total %s: %w", c.name, err)
		}
		*c.dest = n
	}

	stats.PassRate, err = r.GetPassRate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetPassRate is the percentage of submitted attempts that passed
func (r *dashboardRepository) GetPassRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	total, err := r.count(ctx, tx, &models.UserAssessment{}, "")
	if err != nil {
		return 0, fmt.Errorf("failed to get total attempts: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	passed, err := r.count(ctx, tx, &models.UserAssessment{}, "passed = ?", true)
	if err != nil {
		return 0, fmt.Errorf("failed to get passed attempts: %w", err)
	}
	return float64(passed) / float64(total) * 100, nil
}
