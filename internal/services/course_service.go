package services

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type CourseService = ResourceService[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]
type ModuleService = ResourceService[models.Module, models.CreateModuleRequest, models.UpdateModuleRequest]

func errInvalidInstructor() error {
	return badRequest("INVALID_INSTRUCTOR", "Instructor must have the role 'Instructor'.")
}

type courseService struct {
	repo repositories.Repository
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CourseService {
	s := &courseService{repo: repo}
	return newCRUDService(policy.Courses, repo.Course(), validator, logger, crudHooks[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]{
		build:     s.build,
		patch:     s.patch,
		duplicate: s.duplicate,
	})
}

// instructor resolves the course instructor: the requester, or the user an admin names
func (s *courseService) instructor(ctx context.Context, actor *policy.Actor, requested *uint) (uint, error) {
	id := actor.ID
	if requested != nil && *requested != actor.ID {
		if !actor.IsAdmin() {
			return 0, NewAppError(http.StatusForbidden, policy.CodePermissionDenied, "Only admins may assign a course to another instructor.")
		}
		id = *requested
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, errInvalidInstructor()
		}
		return 0, dbError("get instructor", err)
	}
	if user.Role != models.RoleInstructor {
		return 0, errInvalidInstructor()
	}
	return user.ID, nil
}

func (s *courseService) checkRefs(ctx context.Context, languageID, categoryID *uint) error {
	if languageID != nil {
		if _, err := s.repo.Language().GetByID(ctx, nil, *languageID); err != nil {
			return storeError(policy.Languages, *languageID, "get language", err)
		}
	}
	if categoryID != nil {
		if _, err := s.repo.Category().GetByID(ctx, nil, *categoryID); err != nil {
			return storeError(policy.Categories, *categoryID, "get category", err)
		}
	}
	return nil
}

func (s *courseService) build(ctx context.Context, actor *policy.Actor, req *models.CreateCourseRequest) (*models.Course, policy.Owned, error) {
	instructorID, err := s.instructor(ctx, actor, req.InstructorID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkRefs(ctx, req.LanguageID, req.CategoryID); err != nil {
		return nil, nil, err
	}

	course := &models.Course{
		Title:           req.Title,
		Description:     req.Description,
		LanguageID:      req.LanguageID,
		InstructorID:    instructorID,
		Requirements:    req.Requirements,
		CategoryID:      req.CategoryID,
		Duration:        req.Duration,
		DifficultyLevel: req.DifficultyLevel,
		IsActive:        true,
	}
	if course.DifficultyLevel == "" {
		course.DifficultyLevel = models.DifficultyIntermediate
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	return course, nil, nil
}

func (s *courseService) patch(ctx context.Context, actor *policy.Actor, current *models.Course, req *models.UpdateCourseRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if req.InstructorID != nil && *req.InstructorID != current.InstructorID {
		id, err := s.instructor(ctx, actor, req.InstructorID)
		if err != nil {
			return nil, err
		}
		fields["instructor_id"] = id
	}
	if err := s.checkRefs(ctx, req.LanguageID, req.CategoryID); err != nil {
		return nil, err
	}

	setIf(fields, "title", req.Title)
	setIf(fields, "description", req.Description)
	setIf(fields, "language_id", req.LanguageID)
	setIf(fields, "requirements", req.Requirements)
	setIf(fields, "category_id", req.CategoryID)
	setIf(fields, "duration", req.Duration)
	setIf(fields, "difficulty_level", req.DifficultyLevel)
	setIf(fields, "is_active", req.IsActive)
	return fields, nil
}

func (s *courseService) duplicate(error) error {
	return duplicate("DUPLICATE_COURSE_TITLE", "A course with this title already exists.")
}

type moduleService struct {
	repo repositories.Repository
}

func NewModuleService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ModuleService {
	s := &moduleService{repo: repo}
	return newCRUDService(policy.Modules, repo.Module(), validator, logger, crudHooks[models.Module, models.CreateModuleRequest, models.UpdateModuleRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
		duplicate: func(error) error {
			return errDuplicateModuleOrder()
		},
	})
}

func errDuplicateModuleOrder() error {
	return duplicate("DUPLICATE_MODULE_ORDER", "A module with this order already exists in the course.")
}

func (s *moduleService) build(ctx context.Context, _ *policy.Actor, req *models.CreateModuleRequest) (*models.Module, policy.Owned, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, nil, storeError(policy.Courses, req.CourseID, "get course", err)
	}

	module := &models.Module{
		CourseID:    req.CourseID,
		Order:       *req.Order,
		Title:       req.Title,
		Content:     req.Content,
		ContentType: req.ContentType,
		Duration:    req.Duration,
		IsMandatory: true,
	}
	if req.IsMandatory != nil {
		module.IsMandatory = *req.IsMandatory
	}
	return module, course, nil
}

func (s *moduleService) insert(ctx context.Context, module *models.Module) error {
	created, err := s.repo.Module().CreateUnique(ctx, nil, module, "course_id", "sort_order")
	if err != nil {
		return err
	}
	if !created {
		return errDuplicateModuleOrder()
	}
	return nil
}

func (s *moduleService) patch(_ context.Context, _ *policy.Actor, _ *models.Module, req *models.UpdateModuleRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "sort_order", req.Order)
	setIf(fields, "title", req.Title)
	setIf(fields, "content", req.Content)
	setIf(fields, "content_type", req.ContentType)
	setIf(fields, "duration", req.Duration)
	setIf(fields, "is_mandatory", req.IsMandatory)
	return fields, nil
}
