package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// Repository aggregates every relational repository
type Repository interface {
	// Accounts
	User() UserRepository
	Profile() ProfileRepository

	// Catalog
	Language() CRUDRepository[models.Language]
	Camp() CRUDRepository[models.Camp]
	Category() CRUDRepository[models.CourseCategory]

	// Learning
	Course() CRUDRepository[models.Course]
	Module() CRUDRepository[models.Module]
	Enrollment() EnrollmentRepository
	Progress() CRUDRepository[models.UserProgress]
	Assessment() CRUDRepository[models.Assessment]
	Question() QuestionRepository
	UserAssessment() UserAssessmentRepository
	Certification() CertificationRepository

	// Community and careers
	Discussion() CRUDRepository[models.Discussion]
	Reply() ReplyRepository
	Job() JobRepository
	Application() CRUDRepository[models.JobApplication]

	Dashboard() DashboardRepository

	// WithTransaction runs fn in one database transaction
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
