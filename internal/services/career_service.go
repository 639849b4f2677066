package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type JobService = ResourceService[models.JobOpportunity, models.CreateJobRequest, models.UpdateJobRequest]
type ApplicationService = ResourceService[models.JobApplication, models.CreateApplicationRequest, models.UpdateApplicationRequest]

type jobService struct {
	repo repositories.Repository
	now  func() time.Time
}

func NewJobService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) JobService {
	s := &jobService{repo: repo, now: time.Now}
	return newCRUDService(policy.Jobs, repo.Job(), validator, logger, crudHooks[models.JobOpportunity, models.CreateJobRequest, models.UpdateJobRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
		update: s.update,
	})
}

func (s *jobService) checkDeadline(deadline time.Time) error {
	if !deadline.After(s.now()) {
		return badRequest("INVALID_DEADLINE", "Application deadline must be in the future.")
	}
	return nil
}

func (s *jobService) build(ctx context.Context, actor *policy.Actor, req *models.CreateJobRequest) (*models.JobOpportunity, policy.Owned, error) {
	poster, err := s.repo.User().GetByID(ctx, nil, actor.ID)
	if err != nil {
		return nil, nil, storeError(policy.Users, actor.ID, "get user", err)
	}
	if !poster.Role.In(models.JobPosterRoles...) {
		return nil, nil, badRequest("INVALID_POSTED_BY_ROLE", "Jobs can only be posted by Admin, Employer, Instructor, Mentor or NGO_Partner users.")
	}
	if err := s.checkDeadline(req.ApplicationDeadline); err != nil {
		return nil, nil, err
	}

	job := &models.JobOpportunity{
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		JobType:             req.JobType,
		RequiredSkills:      req.RequiredSkills,
		SalaryRange:         req.SalaryRange,
		ApplicationDeadline: req.ApplicationDeadline,
		IsActive:            true,
		PostedByID:          poster.ID,
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}
	if req.RemoteWork != nil {
		job.RemoteWork = *req.RemoteWork
	}
	for _, id := range req.RequiredCertificateIDs {
		job.RequiredCertificates = append(job.RequiredCertificates, models.Course{ID: id})
	}
	return job, nil, nil
}

// insert writes the job and its required certificates in one transaction
func (s *jobService) insert(ctx context.Context, job *models.JobOpportunity) error {
	courseIDs := make([]uint, 0, len(job.RequiredCertificates))
	for _, c := range job.RequiredCertificates {
		courseIDs = append(courseIDs, c.ID)
	}
	job.RequiredCertificates = nil

	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Job().Create(ctx, tx, job); err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return nil
		}
		return s.repo.Job().ReplaceRequiredCertificates(ctx, tx, job.ID, courseIDs)
	})
}

func (s *jobService) patch(_ context.Context, _ *policy.Actor, _ *models.JobOpportunity, req *models.UpdateJobRequest) (map[string]interface{}, error) {
	if req.ApplicationDeadline != nil {
		if err := s.checkDeadline(*req.ApplicationDeadline); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{}
	setIf(fields, "title", req.Title)
	setIf(fields, "description", req.Description)
	setIf(fields, "location", req.Location)
	setIf(fields, "job_type", req.JobType)
	setIf(fields, "salary_range", req.SalaryRange)
	setIf(fields, "application_deadline", req.ApplicationDeadline)
	setIf(fields, "is_active", req.IsActive)
	setIf(fields, "remote_work", req.RemoteWork)
	if req.RequiredSkills != nil {
		fields["required_skills"] = datatypes.JSONSlice[string](req.RequiredSkills)
	}
	return fields, nil
}

func (s *jobService) update(ctx context.Context, current *models.JobOpportunity, fields map[string]interface{}, req *models.UpdateJobRequest) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := s.repo.Job().Update(ctx, tx, current.ID, fields); err != nil {
				return err
			}
		}
		if req.RequiredCertificateIDs == nil {
			return nil
		}
		return s.repo.Job().ReplaceRequiredCertificates(ctx, tx, current.ID, req.RequiredCertificateIDs)
	})
}

type applicationService struct {
	repo   repositories.Repository
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewApplicationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) ApplicationService {
	s := &applicationService{repo: repo, events: publisher, logger: logger, now: time.Now}
	return newCRUDService(policy.Applications, repo.Application(), validator, logger, crudHooks[models.JobApplication, models.CreateApplicationRequest, models.UpdateApplicationRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
		update: s.update,
	})
}

func (s *applicationService) build(ctx context.Context, actor *policy.Actor, req *models.CreateApplicationRequest) (*models.JobApplication, policy.Owned, error) {
	job, err := s.repo.Job().GetByID(ctx, nil, req.JobID)
	if err != nil {
		return nil, nil, storeError(policy.Jobs, req.JobID, "get job", err)
	}
	if !job.IsActive {
		return nil, nil, badRequest("INACTIVE_JOB", "This job is no longer accepting applications.")
	}
	if !job.AcceptsApplications(s.now()) {
		return nil, nil, badRequest("DEADLINE_PASSED", "The application deadline for this job has passed.")
	}

	return &models.JobApplication{
		UserID:            actor.ID,
		JobID:             job.ID,
		CoverLetter:       req.CoverLetter,
		ApplicationStatus: models.ApplicationSubmitted,
	}, nil, nil
}

func (s *applicationService) insert(ctx context.Context, application *models.JobApplication) error {
	created, err := s.repo.Application().CreateUnique(ctx, nil, application, "user_id", "job_id")
	if err != nil {
		return err
	}
	if !created {
		return duplicate("DUPLICATE_APPLICATION", "You have already applied for this job.")
	}
	return nil
}

// patch lets the applicant edit the cover letter; only the poster or an admin moves the status
func (s *applicationService) patch(_ context.Context, actor *policy.Actor, current *models.JobApplication, req *models.UpdateApplicationRequest) (map[string]interface{}, error) {
	isPoster := current.Job != nil && current.Job.PostedByID == actor.ID
	isApplicant := current.UserID == actor.ID

	if req.ApplicationStatus != nil && !actor.IsAdmin() && !isPoster {
		return nil, NewAppError(http.StatusForbidden, policy.CodePermissionDenied, "Only the job poster can change the application status.")
	}
	if req.CoverLetter != nil && !actor.IsAdmin() && !isApplicant {
		return nil, NewAppError(http.StatusForbidden, policy.CodePermissionDenied, "Only the applicant can edit the cover letter.")
	}

	fields := map[string]interface{}{}
	setIf(fields, "cover_letter", req.CoverLetter)
	setIf(fields, "application_status", req.ApplicationStatus)
	return fields, nil
}

func (s *applicationService) update(ctx context.Context, current *models.JobApplication, fields map[string]interface{}, req *models.UpdateApplicationRequest) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.repo.Application().Update(ctx, nil, current.ID, fields); err != nil {
		return err
	}
	if req.ApplicationStatus == nil || *req.ApplicationStatus == current.ApplicationStatus {
		return nil
	}

	user, err := s.repo.User().GetByID(ctx, nil, current.UserID)
	if err != nil {
		s.logger.Warn("Applicant not found for status notification", "application_id", current.ID, "error", err)
		return nil
	}
	job := ""
	if current.Job != nil {
		job = current.Job.Title
	}
	publish(ctx, s.events, s.logger, events.TopicApplicationChanged, events.ApplicationStatusChanged{
		ApplicationID: current.ID,
		Email:         user.Email,
		Name:          user.FirstName,
		Job:           job,
		Status:        string(*req.ApplicationStatus),
	})
	return nil
}
