package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
)

// ===== SHARED FILTER STRUCTS =====

// ListFilter narrows a list query. Scope and UserID come from the policy table;
// Where holds column equality filters taken from query parameters.
type ListFilter struct {
	Scope  policy.Scope
	UserID uint
	Where  map[string]interface{}
	Offset int
	Limit  int
	Order  string
}

// CRUDRepository is the generic relational store of one record type
type CRUDRepository[T any] interface {
	Create(ctx context.Context, tx *gorm.DB, record *T) error
	// CreateUnique inserts record unless a row with the same conflict columns exists.
	// It reports false when nothing was written.
	CreateUnique(ctx context.Context, tx *gorm.DB, record *T, conflictColumns ...string) (bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*T, error)
	// GetScoped fetches id only when it is visible under filter's scope
	GetScoped(ctx context.Context, tx *gorm.DB, id uint, filter ListFilter) (*T, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]T, int64, error)
}

type UserRepository interface {
	CRUDRepository[models.User]
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	CountByRole(ctx context.Context, tx *gorm.DB) (map[models.UserRole]int64, error)
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error)
	Upsert(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
}

type EnrollmentRepository interface {
	CRUDRepository[models.Enrollment]
	IsEnrolled(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error)
}

type QuestionRepository interface {
	CRUDRepository[models.Question]
	ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]models.Question, error)
}

type UserAssessmentRepository interface {
	CRUDRepository[models.UserAssessment]
	CountAttempts(ctx context.Context, tx *gorm.DB, userID, assessmentID uint) (int64, error)
}

type CertificationRepository interface {
	CRUDRepository[models.Certification]
	GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certification, error)
}

type JobRepository interface {
	CRUDRepository[models.JobOpportunity]
	ReplaceRequiredCertificates(ctx context.Context, tx *gorm.DB, jobID uint, courseIDs []uint) error
}

type ReplyRepository interface {
	CRUDRepository[models.DiscussionReply]
	ListByDiscussion(ctx context.Context, tx *gorm.DB, discussionID uint) ([]models.DiscussionReply, error)
}
