package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// ===== CATALOG =====

func NewLanguagePostgreSQL(db *gorm.DB, cm *cache.CacheManager) *CRUDPostgreSQL[models.Language] {
	return NewCRUDPostgreSQL[models.Language](db, CRUDOptions{
		Resource:     policy.Languages,
		Cache:        cm.Catalog,
		CacheTTL:     cache.CatalogCacheConfig.TTL,
		DefaultOrder: "name ASC, id ASC",
		Filterable:   []string{"code"},
	})
}

func NewCampPostgreSQL(db *gorm.DB, cm *cache.CacheManager) *CRUDPostgreSQL[models.Camp] {
	return NewCRUDPostgreSQL[models.Camp](db, CRUDOptions{
		Resource:     policy.Camps,
		Cache:        cm.Catalog,
		CacheTTL:     cache.CatalogCacheConfig.TTL,
		DefaultOrder: "name ASC, id ASC",
		Filterable:   []string{"location"},
	})
}

func NewCategoryPostgreSQL(db *gorm.DB, cm *cache.CacheManager) *CRUDPostgreSQL[models.CourseCategory] {
	return NewCRUDPostgreSQL[models.CourseCategory](db, CRUDOptions{
		Resource:     policy.Categories,
		Cache:        cm.Catalog,
		CacheTTL:     cache.CatalogCacheConfig.TTL,
		DefaultOrder: "name ASC, id ASC",
	})
}

// ===== COURSES AND CONTENT =====

func NewCoursePostgreSQL(db *gorm.DB, cm *cache.CacheManager) *CRUDPostgreSQL[models.Course] {
	return NewCRUDPostgreSQL[models.Course](db, CRUDOptions{
		Resource:     policy.Courses,
		Cache:        cm.Course,
		CacheTTL:     cache.CourseCacheConfig.TTL,
		Preloads:     []string{"Language", "Category"},
		Scoper:       scopeCourses,
		DefaultOrder: "title ASC, id ASC",
		Filterable:   []string{"instructor_id", "language_id", "category_id", "difficulty_level", "is_active"},
	})
}

func NewModulePostgreSQL(db *gorm.DB) *CRUDPostgreSQL[models.Module] {
	return NewCRUDPostgreSQL[models.Module](db, CRUDOptions{
		Resource:     policy.Modules,
		Preloads:     []string{"Course"},
		Scoper:       scopeModules,
		DefaultOrder: "course_id ASC, sort_order ASC, id ASC",
		Filterable:   []string{"course_id", "content_type", "is_mandatory"},
	})
}

type EnrollmentPostgreSQL struct {
	*CRUDPostgreSQL[models.Enrollment]
}

func NewEnrollmentPostgreSQL(db *gorm.DB) *EnrollmentPostgreSQL {
	return &EnrollmentPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.Enrollment](db, CRUDOptions{
			Resource:     policy.Enrollments,
			Preloads:     []string{"Course"},
			Scoper:       scopeCourseRecords,
			DefaultOrder: "enrolled_at DESC, id ASC",
			Filterable:   []string{"user_id", "course_id", "status"},
		}),
	}
}

func (r *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

func NewProgressPostgreSQL(db *gorm.DB) *CRUDPostgreSQL[models.UserProgress] {
	return NewCRUDPostgreSQL[models.UserProgress](db, CRUDOptions{
		Resource:     policy.Progress,
		Preloads:     []string{"Course"},
		Scoper:       scopeCourseRecords,
		DefaultOrder: "last_accessed DESC, id ASC",
		Filterable:   []string{"user_id", "course_id", "is_active"},
	})
}

// ===== ASSESSMENTS =====

func NewAssessmentPostgreSQL(db *gorm.DB) *CRUDPostgreSQL[models.Assessment] {
	return NewCRUDPostgreSQL[models.Assessment](db, CRUDOptions{
		Resource:     policy.Assessments,
		Preloads:     []string{"Module.Course"},
		Scoper:       scopeAssessments,
		DefaultOrder: "created_at DESC, id ASC",
		Filterable:   []string{"module_id", "assessment_type", "is_active"},
	})
}

type QuestionPostgreSQL struct {
	*CRUDPostgreSQL[models.Question]
}

func NewQuestionPostgreSQL(db *gorm.DB) *QuestionPostgreSQL {
	return &QuestionPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.Question](db, CRUDOptions{
			Resource:     policy.Questions,
			Preloads:     []string{"Assessment.Module.Course"},
			Scoper:       scopeQuestions,
			DefaultOrder: "assessment_id ASC, sort_order ASC, id ASC",
			Filterable:   []string{"assessment_id", "question_type"},
		}),
	}
}

// ListByAssessment returns every question of an assessment in display order
func (r *QuestionPostgreSQL) ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]models.Question, error) {
	questions := make([]models.Question, 0)
	if err := r.getDB(tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

type UserAssessmentPostgreSQL struct {
	*CRUDPostgreSQL[models.UserAssessment]
}

func NewUserAssessmentPostgreSQL(db *gorm.DB) *UserAssessmentPostgreSQL {
	return &UserAssessmentPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.UserAssessment](db, CRUDOptions{
			Resource:     policy.UserAssessments,
			Preloads:     []string{"Assessment.Module.Course"},
			Scoper:       scopeUserAssessments,
			DefaultOrder: "started_at DESC, id ASC",
			Filterable:   []string{"user_id", "assessment_id", "passed"},
		}),
	}
}

func (r *UserAssessmentPostgreSQL) CountAttempts(ctx context.Context, tx *gorm.DB, userID, assessmentID uint) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.UserAssessment{}).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

type CertificationPostgreSQL struct {
	*CRUDPostgreSQL[models.Certification]
}

func NewCertificationPostgreSQL(db *gorm.DB) *CertificationPostgreSQL {
	return &CertificationPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.Certification](db, CRUDOptions{
			Resource:     policy.Certifications,
			Preloads:     []string{"Course", "User"},
			Scoper:       scopeCourseRecords,
			DefaultOrder: "issued_at DESC, id ASC",
			Filterable:   []string{"user_id", "course_id", "certificate_type", "is_verified"},
		}),
	}
}

func (r *CertificationPostgreSQL) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certification, error) {
	var cert models.Certification
	err := r.withPreloads(r.getDB(tx).WithContext(ctx)).
		Where("verification_code = ?", code).
		First(&cert).Error
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("certification %s: %w", code, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}
	return &cert, nil
}
