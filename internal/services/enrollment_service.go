package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type EnrollmentService = ResourceService[models.Enrollment, models.CreateEnrollmentRequest, models.UpdateEnrollmentRequest]
type ProgressService = ResourceService[models.UserProgress, models.CreateProgressRequest, models.UpdateProgressRequest]

// subject resolves whose record a request creates: the requester, or another
// user when the requester is an admin or teaches the course
func subject(actor *policy.Actor, requested *uint, course *models.Course) (uint, error) {
	if requested == nil || *requested == actor.ID {
		return actor.ID, nil
	}
	if actor.IsAdmin() || course.InstructorID == actor.ID {
		return *requested, nil
	}
	return 0, NewAppError(http.StatusForbidden, policy.CodePermissionDenied, "You can only create this record for yourself.")
}

type enrollmentService struct {
	repo   repositories.Repository
	events events.Publisher
	logger *slog.Logger
}

func NewEnrollmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) EnrollmentService {
	s := &enrollmentService{repo: repo, events: publisher, logger: logger}
	return newCRUDService(policy.Enrollments, repo.Enrollment(), validator, logger, crudHooks[models.Enrollment, models.CreateEnrollmentRequest, models.UpdateEnrollmentRequest]{
		build:   s.build,
		insert:  s.insert,
		patch:   s.patch,
		created: s.created,
	})
}

func (s *enrollmentService) build(ctx context.Context, actor *policy.Actor, req *models.CreateEnrollmentRequest) (*models.Enrollment, policy.Owned, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, nil, storeError(policy.Courses, req.CourseID, "get course", err)
	}
	if !course.IsActive {
		return nil, nil, badRequest("INACTIVE_COURSE", "Cannot enroll in an inactive course.")
	}

	userID, err := subject(actor, req.UserID, course)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, nil, storeError(policy.Users, userID, "get user", err)
	}
	if user.Role != models.RoleStudent {
		return nil, nil, badRequest("INVALID_USER_ROLE", "User must have role 'Student'.")
	}

	status := req.Status
	if status == "" {
		status = models.EnrollmentActive
	}
	return &models.Enrollment{UserID: userID, CourseID: course.ID, Status: status}, nil, nil
}

func (s *enrollmentService) insert(ctx context.Context, enrollment *models.Enrollment) error {
	created, err := s.repo.Enrollment().CreateUnique(ctx, nil, enrollment, "user_id", "course_id")
	if err != nil {
		return err
	}
	if !created {
		return duplicate("DUPLICATE_ENROLLMENT", "User is already enrolled in this course.")
	}
	return nil
}

func (s *enrollmentService) patch(_ context.Context, _ *policy.Actor, _ *models.Enrollment, req *models.UpdateEnrollmentRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "status", req.Status)
	return fields, nil
}

func (s *enrollmentService) created(ctx context.Context, enrollment *models.Enrollment) {
	user, err := s.repo.User().GetByID(ctx, nil, enrollment.UserID)
	if err != nil || enrollment.Course == nil {
		return
	}
	publish(ctx, s.events, s.logger, events.TopicEnrollmentCreated, events.EnrollmentCreated{
		EnrollmentID: enrollment.ID,
		Email:        user.Email,
		Name:         user.FirstName,
		Course:       enrollment.Course.Title,
	})
}

type progressService struct {
	repo repositories.Repository
	now  func() time.Time
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ProgressService {
	s := &progressService{repo: repo, now: time.Now}
	return newCRUDService(policy.Progress, repo.Progress(), validator, logger, crudHooks[models.UserProgress, models.CreateProgressRequest, models.UpdateProgressRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
	})
}

func (s *progressService) checkModule(ctx context.Context, courseID uint, moduleID *uint) error {
	if moduleID == nil {
		return nil
	}
	module, err := s.repo.Module().GetByID(ctx, nil, *moduleID)
	if err != nil {
		return storeError(policy.Modules, *moduleID, "get module", err)
	}
	if module.CourseID != courseID {
		return badRequest("INVALID_MODULE", "The current module must belong to the course.")
	}
	return nil
}

func (s *progressService) build(ctx context.Context, actor *policy.Actor, req *models.CreateProgressRequest) (*models.UserProgress, policy.Owned, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, nil, storeError(policy.Courses, req.CourseID, "get course", err)
	}
	userID, err := subject(actor, req.UserID, course)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkModule(ctx, course.ID, req.CurrentModuleID); err != nil {
		return nil, nil, err
	}

	progress := &models.UserProgress{
		UserID:          userID,
		CourseID:        course.ID,
		CurrentModuleID: req.CurrentModuleID,
		IsActive:        true,
	}
	if req.ProgressPercentage != nil {
		progress.ProgressPercentage = *req.ProgressPercentage
	}
	if req.IsActive != nil {
		progress.IsActive = *req.IsActive
	}
	if progress.ProgressPercentage >= 100 {
		now := s.now()
		progress.CompletedAt = &now
	}
	return progress, nil, nil
}

func (s *progressService) insert(ctx context.Context, progress *models.UserProgress) error {
	created, err := s.repo.Progress().CreateUnique(ctx, nil, progress, "user_id", "course_id")
	if err != nil {
		return err
	}
	if !created {
		return duplicate("DUPLICATE_PROGRESS", "Progress for this user and course already exists.")
	}
	return nil
}

func (s *progressService) patch(ctx context.Context, _ *policy.Actor, current *models.UserProgress, req *models.UpdateProgressRequest) (map[string]interface{}, error) {
	if err := s.checkModule(ctx, current.CourseID, req.CurrentModuleID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	setIf(fields, "current_module_id", req.CurrentModuleID)
	setIf(fields, "is_active", req.IsActive)
	if req.ProgressPercentage != nil {
		fields["progress_percentage"] = *req.ProgressPercentage
		if *req.ProgressPercentage >= 100 && current.CompletedAt == nil {
			fields["completed_at"] = s.now()
		}
	}
	if len(fields) > 0 {
		fields["last_accessed"] = s.now()
	}
	return fields, nil
}

// publish emits an event and logs, rather than returns, a delivery failure
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, topic string, event any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, topic, event); err != nil {
		logger.Error("Failed to publish event", "topic", topic, "error", err)
	}
}
