package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
)

func NewDiscussionPostgreSQL(db *gorm.DB) *CRUDPostgreSQL[models.Discussion] {
	return NewCRUDPostgreSQL[models.Discussion](db, CRUDOptions{
		Resource:     policy.Discussions,
		Preloads:     []string{"Author"},
		Scoper:       scopeDiscussions,
		DefaultOrder: "created_at DESC, id ASC",
		Filterable:   []string{"course_id", "author_id", "category", "status"},
	})
}

type ReplyPostgreSQL struct {
	*CRUDPostgreSQL[models.DiscussionReply]
}

func NewReplyPostgreSQL(db *gorm.DB) *ReplyPostgreSQL {
	return &ReplyPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.DiscussionReply](db, CRUDOptions{
			Resource:     policy.Replies,
			Preloads:     []string{"Author"},
			Scoper:       scopeReplies,
			DefaultOrder: "created_at ASC, id ASC",
			Filterable:   []string{"discussion_id", "author_id", "parent_reply_id", "is_solution"},
		}),
	}
}

// ListByDiscussion returns every reply of a discussion in posting order
func (r *ReplyPostgreSQL) ListByDiscussion(ctx context.Context, tx *gorm.DB, discussionID uint) ([]models.DiscussionReply, error) {
	replies := make([]models.DiscussionReply, 0)
	if err := r.getDB(tx).WithContext(ctx).
		Preload("Author").
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

type JobPostgreSQL struct {
	*CRUDPostgreSQL[models.JobOpportunity]
}

func NewJobPostgreSQL(db *gorm.DB, cm *cache.CacheManager) *JobPostgreSQL {
	return &JobPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.JobOpportunity](db, CRUDOptions{
			Resource:     policy.Jobs,
			Cache:        cm.Job,
			CacheTTL:     cache.JobCacheConfig.TTL,
			Preloads:     []string{"RequiredCertificates"},
			Scoper:       scopeJobs,
			DefaultOrder: "created_at DESC, id ASC",
			Filterable:   []string{"posted_by_id", "job_type", "is_active", "remote_work"},
		}),
	}
}

// Create stores the job without touching the required certificate links
func (r *JobPostgreSQL) Create(ctx context.Context, tx *gorm.DB, job *models.JobOpportunity) error {
	certificates := job.RequiredCertificates
	job.RequiredCertificates = nil
	err := r.getDB(tx).WithContext(ctx).Omit("RequiredCertificates").Create(job).Error
	job.RequiredCertificates = certificates
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.opts.Resource, err)
	}
	return nil
}

// ReplaceRequiredCertificates sets the job's required courses to exactly courseIDs
func (r *JobPostgreSQL) ReplaceRequiredCertificates(ctx context.Context, tx *gorm.DB, jobID uint, courseIDs []uint) error {
	db := r.getDB(tx).WithContext(ctx)

	courses := make([]models.Course, 0, len(courseIDs))
	if len(courseIDs) > 0 {
		if err := db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
			return fmt.Errorf("failed to load required certificates: %w", err)
		}
	}

	job := models.JobOpportunity{ID: jobID}
	if err := db.Model(&job).Association("RequiredCertificates").Replace(courses); err != nil {
		return fmt.Errorf("failed to replace required certificates: %w", err)
	}
	r.invalidate(ctx, jobID)
	return nil
}

func NewApplicationPostgreSQL(db *gorm.DB) *CRUDPostgreSQL[models.JobApplication] {
	return NewCRUDPostgreSQL[models.JobApplication](db, CRUDOptions{
		Resource:     policy.Applications,
		Preloads:     []string{"Job"},
		Scoper:       scopeApplications,
		DefaultOrder: "applied_at DESC, id ASC",
		Filterable:   []string{"user_id", "job_id", "application_status"},
	})
}
