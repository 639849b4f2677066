package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// ===== RESPONSE DTOs =====

type DashboardResponse struct {
	Overview    DashboardOverview `json:"overview"`
	Metrics     DashboardMetrics  `json:"metrics"`
	UsersByRole map[string]int64  `json:"users_by_role"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type DashboardOverview struct {
	TotalUsers          int64 `json:"total_users"`
	VerifiedUsers       int64 `json:"verified_users"`
	TotalCourses        int64 `json:"total_courses"`
	ActiveCourses       int64 `json:"active_courses"`
	TotalEnrollments    int64 `json:"total_enrollments"`
	TotalAssessments    int64 `json:"total_assessments"`
	TotalAttempts       int64 `json:"total_attempts"`
	TotalCertifications int64 `json:"total_certifications"`
	ActiveJobs          int64 `json:"active_jobs"`
	TotalApplications   int64 `json:"total_applications"`
	TotalDiscussions    int64 `json:"total_discussions"`
}

type DashboardMetrics struct {
	PassRate         float64 `json:"pass_rate"`
	VerificationRate float64 `json:"verification_rate"`
	ActiveCourseRate float64 `json:"active_course_rate"`
}

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, actor *policy.Actor) (*DashboardResponse, error) {
	if err := policy.RequireRoles(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.logger.Info("Getting dashboard stats", "user_id", actor.ID)

	stats, err := s.repo.Dashboard().GetStats(ctx, nil)
	if err != nil {
		return nil, dbError("get dashboard stats", err)
	}

	byRole := make(map[string]int64, len(models.AllRoles))
	for _, role := range models.AllRoles {
		byRole[string(role)] = stats.UsersByRole[role]
	}

	return &DashboardResponse{
		Overview: DashboardOverview{
			TotalUsers:          stats.TotalUsers,
			VerifiedUsers:       stats.VerifiedUsers,
			TotalCourses:        stats.TotalCourses,
			ActiveCourses:       stats.ActiveCourses,
			TotalEnrollments:    stats.TotalEnrollments,
			TotalAssessments:    stats.TotalAssessments,
			TotalAttempts:       stats.TotalAttempts,
			TotalCertifications: stats.TotalCertifications,
			ActiveJobs:          stats.ActiveJobs,
			TotalApplications:   stats.TotalApplications,
			TotalDiscussions:    stats.TotalDiscussions,
		},
		Metrics: DashboardMetrics{
			PassRate:         roundFloat(stats.PassRate, 1),
			VerificationRate: roundFloat(percentage(stats.VerifiedUsers, stats.TotalUsers), 1),
			ActiveCourseRate: roundFloat(percentage(stats.ActiveCourses, stats.TotalCourses), 1),
		},
		UsersByRole: byRole,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// ===== HELPER FUNCTIONS =====

func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func roundFloat(val float64, precision int) float64 {
	ratio := 1.0
	for i := 0; i < precision; i++ {
		ratio *= 10
	}
	return float64(int(val*ratio+0.5)) / ratio
}
