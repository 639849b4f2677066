package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type AssessmentService = ResourceService[models.Assessment, models.CreateAssessmentRequest, models.UpdateAssessmentRequest]
type QuestionService = ResourceService[models.Question, models.CreateQuestionRequest, models.UpdateQuestionRequest]
type UserAssessmentService = ResourceService[models.UserAssessment, models.CreateUserAssessmentRequest, models.UpdateUserAssessmentRequest]

type assessmentService struct {
	repo repositories.Repository
}

func NewAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	s := &assessmentService{repo: repo}
	return newCRUDService(policy.Assessments, repo.Assessment(), validator, logger, crudHooks[models.Assessment, models.CreateAssessmentRequest, models.UpdateAssessmentRequest]{
		build: s.build,
		patch: s.patch,
	})
}

func (s *assessmentService) build(ctx context.Context, _ *policy.Actor, req *models.CreateAssessmentRequest) (*models.Assessment, policy.Owned, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, req.ModuleID)
	if err != nil {
		return nil, nil, storeError(policy.Modules, req.ModuleID, "get module", err)
	}

	assessment := &models.Assessment{
		ModuleID:       module.ID,
		Title:          req.Title,
		Description:    req.Description,
		AssessmentType: req.AssessmentType,
		MaxAttempts:    models.DefaultMaxAttempts,
		PassingScore:   models.DefaultPassingScore,
		Duration:       req.Duration,
		IsActive:       true,
	}
	if req.MaxAttempts != nil {
		assessment.MaxAttempts = *req.MaxAttempts
	}
	if req.PassingScore != nil {
		assessment.PassingScore = *req.PassingScore
	}
	if req.IsActive != nil {
		assessment.IsActive = *req.IsActive
	}
	return assessment, module, nil
}

func (s *assessmentService) patch(_ context.Context, _ *policy.Actor, _ *models.Assessment, req *models.UpdateAssessmentRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "title", req.Title)
	setIf(fields, "description", req.Description)
	setIf(fields, "assessment_type", req.AssessmentType)
	setIf(fields, "max_attempts", req.MaxAttempts)
	setIf(fields, "passing_score", req.PassingScore)
	setIf(fields, "duration", req.Duration)
	setIf(fields, "is_active", req.IsActive)
	return fields, nil
}

type questionService struct {
	repo repositories.Repository
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	s := &questionService{repo: repo}
	return newCRUDService(policy.Questions, repo.Question(), validator, logger, crudHooks[models.Question, models.CreateQuestionRequest, models.UpdateQuestionRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
		duplicate: func(error) error {
			return errDuplicateQuestionOrder()
		},
	})
}

func errDuplicateQuestionOrder() error {
	return duplicate("DUPLICATE_QUESTION_ORDER", "A question with this order already exists in the assessment.")
}

func checkOptions(questionType models.QuestionType, options []string) error {
	if questionType != models.QuestionMultipleChoice {
		return nil
	}
	for _, option := range options {
		if validator.NotBlank(option) {
			return nil
		}
	}
	return badRequest("INVALID_OPTIONS", "Multiple choice questions must have at least one option.")
}

func (s *questionService) build(ctx context.Context, _ *policy.Actor, req *models.CreateQuestionRequest) (*models.Question, policy.Owned, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, req.AssessmentID)
	if err != nil {
		return nil, nil, storeError(policy.Assessments, req.AssessmentID, "get assessment", err)
	}
	if err := checkOptions(req.QuestionType, req.Options); err != nil {
		return nil, nil, err
	}

	question := &models.Question{
		AssessmentID:  assessment.ID,
		Question:      req.Question,
		QuestionType:  req.QuestionType,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        1,
		Order:         *req.Order,
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	return question, assessment, nil
}

func (s *questionService) insert(ctx context.Context, question *models.Question) error {
	created, err := s.repo.Question().CreateUnique(ctx, nil, question, "assessment_id", "sort_order")
	if err != nil {
		return err
	}
	if !created {
		return errDuplicateQuestionOrder()
	}
	return nil
}

func (s *questionService) patch(_ context.Context, _ *policy.Actor, current *models.Question, req *models.UpdateQuestionRequest) (map[string]interface{}, error) {
	questionType := current.QuestionType
	if req.QuestionType != nil {
		questionType = *req.QuestionType
	}
	options := []string(current.Options)
	if req.Options != nil {
		options = req.Options
	}
	if err := checkOptions(questionType, options); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	setIf(fields, "question", req.Question)
	setIf(fields, "question_type", req.QuestionType)
	setIf(fields, "correct_answer", req.CorrectAnswer)
	setIf(fields, "points", req.Points)
	setIf(fields, "sort_order", req.Order)
	if req.Options != nil {
		fields["options"] = datatypes.JSONSlice[string](req.Options)
	}
	return fields, nil
}

type userAssessmentService struct {
	repo repositories.Repository
	now  func() time.Time
}

func NewUserAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserAssessmentService {
	s := &userAssessmentService{repo: repo, now: time.Now}
	return newCRUDService(policy.UserAssessments, repo.UserAssessment(), validator, logger, crudHooks[models.UserAssessment, models.CreateUserAssessmentRequest, models.UpdateUserAssessmentRequest]{
		build:  s.build,
		insert: s.insert,
		patch:  s.patch,
		duplicate: func(error) error {
			return errDuplicateAttempt()
		},
	})
}

func errDuplicateAttempt() error {
	return duplicate("DUPLICATE_ATTEMPT", "This attempt already exists for this user and assessment.")
}

// build scores a submission. The attempt number follows the recorded attempts;
// a concurrent submission racing for the same number fails with DUPLICATE_ATTEMPT.
func (s *userAssessmentService) build(ctx context.Context, actor *policy.Actor, req *models.CreateUserAssessmentRequest) (*models.UserAssessment, policy.Owned, error) {
	answers, err := ParseAnswers(req.Answers)
	if err != nil {
		return nil, nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, req.AssessmentID)
	if err != nil {
		return nil, nil, storeError(policy.Assessments, req.AssessmentID, "get assessment", err)
	}
	if !assessment.IsActive {
		return nil, nil, badRequest("INACTIVE_ASSESSMENT", "This assessment is not accepting submissions.")
	}

	if actor.Role == models.RoleStudent {
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, actor.ID, assessment.CourseID())
		if err != nil {
			return nil, nil, dbError("check enrollment", err)
		}
		if !enrolled {
			return nil, nil, NewAppError(http.StatusForbidden, "NOT_ENROLLED", "You must be enrolled in the course to submit this assessment.")
		}
	}

	attempts, err := s.repo.UserAssessment().CountAttempts(ctx, nil, actor.ID, assessment.ID)
	if err != nil {
		return nil, nil, dbError("count attempts", err)
	}
	if int(attempts) >= assessment.MaxAttempts {
		return nil, nil, badRequest("MAX_ATTEMPTS_EXCEEDED", "Maximum number of attempts reached for this assessment.")
	}

	questions, err := s.repo.Question().ListByAssessment(ctx, nil, assessment.ID)
	if err != nil {
		return nil, nil, dbError("list questions", err)
	}
	grade := GradeAnswers(questions, answers, assessment.PassingScore)

	now := s.now()
	startedAt := now
	if req.StartedAt != nil && !req.StartedAt.After(now) {
		startedAt = *req.StartedAt
	}
	timeTaken := req.TimeTaken
	if timeTaken == nil {
		minutes := now.Sub(startedAt).Minutes()
		timeTaken = &minutes
	}

	return &models.UserAssessment{
		UserID:         actor.ID,
		AssessmentID:   assessment.ID,
		AttemptNumber:  int(attempts) + 1,
		Answers:        answers,
		Score:          grade.Score,
		PointsEarned:   grade.PointsEarned,
		PointsPossible: grade.PointsPossible,
		Passed:         grade.Passed,
		StartedAt:      startedAt,
		CompletedAt:    &now,
		TimeTaken:      timeTaken,
	}, nil, nil
}

func (s *userAssessmentService) insert(ctx context.Context, attempt *models.UserAssessment) error {
	created, err := s.repo.UserAssessment().CreateUnique(ctx, nil, attempt, "user_id", "assessment_id", "attempt_number")
	if err != nil {
		return err
	}
	if !created {
		return errDuplicateAttempt()
	}
	return nil
}

func (s *userAssessmentService) patch(_ context.Context, _ *policy.Actor, _ *models.UserAssessment, req *models.UpdateUserAssessmentRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "score", req.Score)
	setIf(fields, "passed", req.Passed)
	setIf(fields, "time_taken", req.TimeTaken)
	return fields, nil
}
