package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

type quizFixture struct {
	teacher    *models.User
	student    *models.User
	course     *models.Course
	assessment *models.Assessment
	questions  []*models.Question
}

func setupQuiz(t *testing.T) (*quizFixture, AssessmentService, QuestionService, UserAssessmentService) {
	t.Helper()
	db, repo := newTestRepo(t)
	ctx := context.Background()
	v := newTestValidator()

	assessments := NewAssessmentService(repo, testLogger, v)
	questions := NewQuestionService(repo, testLogger, v)
	attempts := NewUserAssessmentService(repo, testLogger, v)

	f := &quizFixture{
		teacher: testutil.CreateUser(t, db, "teacher", models.RoleInstructor),
		student: testutil.CreateUser(t, db, "student", models.RoleStudent),
	}
	f.course = testutil.CreateCourse(t, db, "Go", f.teacher.ID)
	module := &models.Module{CourseID: f.course.ID, Order: 1, Title: "Basics", ContentType: models.ContentText, IsMandatory: true}
	require.NoError(t, db.Create(module).Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: f.student.ID, CourseID: f.course.ID, Status: models.EnrollmentActive}).Error)

	var err error
	f.assessment, err = assessments.Create(ctx, actorOf(f.teacher), &models.CreateAssessmentRequest{
		ModuleID:       module.ID,
		Title:          "Quiz 1",
		AssessmentType: models.AssessmentQuiz,
		MaxAttempts:    ptr(2),
		Duration:       30,
	})
	require.NoError(t, err)

	mc, err := questions.Create(ctx, actorOf(f.teacher), &models.CreateQuestionRequest{
		AssessmentID:  f.assessment.ID,
		Question:      "2+2?",
		QuestionType:  models.QuestionMultipleChoice,
		Options:       []string{"3", "4"},
		CorrectAnswer: "4",
		Order:         ptr(1),
	})
	require.NoError(t, err)
	tf, err := questions.Create(ctx, actorOf(f.teacher), &models.CreateQuestionRequest{
		AssessmentID:  f.assessment.ID,
		Question:      "Go is compiled",
		QuestionType:  models.QuestionTrueFalse,
		CorrectAnswer: "True",
		Points:        ptr(3.0),
		Order:         ptr(2),
	})
	require.NoError(t, err)
	f.questions = []*models.Question{mc, tf}

	return f, assessments, questions, attempts
}

func answers(t *testing.T, pairs ...string) json.RawMessage {
	t.Helper()
	sheet := make([]map[string]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		sheet = append(sheet, map[string]string{"question": pairs[i], "answer": pairs[i+1]})
	}
	raw, err := json.Marshal(sheet)
	require.NoError(t, err)
	return raw
}

func TestAssessmentDefaults(t *testing.T) {
	f, assessments, _, _ := setupQuiz(t)

	assert.Equal(t, 2, f.assessment.MaxAttempts)
	assert.Equal(t, models.DefaultPassingScore, f.assessment.PassingScore)
	assert.True(t, f.assessment.IsActive)
	assert.Equal(t, 1.0, f.questions[0].Points)

	visible, total, err := assessments.List(context.Background(), actorOf(f.student), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, f.assessment.ID, visible[0].ID)
}

func TestQuestionCreateRules(t *testing.T) {
	f, _, questions, _ := setupQuiz(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor *policy.Actor
		req   *models.CreateQuestionRequest
		want  string
	}{
		{
			name:  "multiple choice without options",
			actor: actorOf(f.teacher),
			req: &models.CreateQuestionRequest{AssessmentID: f.assessment.ID, Question: "Pick", QuestionType: models.QuestionMultipleChoice,
				Options: []string{" ", ""}, CorrectAnswer: "a", Order: ptr(3)},
			want: "INVALID_OPTIONS",
		},
		{
			name:  "taken order",
			actor: actorOf(f.teacher),
			req: &models.CreateQuestionRequest{AssessmentID: f.assessment.ID, Question: "Again", QuestionType: models.QuestionShortAnswer,
				CorrectAnswer: "a", Order: ptr(1)},
			want: "DUPLICATE_QUESTION_ORDER",
		},
		{
			name:  "student author",
			actor: actorOf(f.student),
			req: &models.CreateQuestionRequest{AssessmentID: f.assessment.ID, Question: "Mine", QuestionType: models.QuestionShortAnswer,
				CorrectAnswer: "a", Order: ptr(4)},
			want: policy.CodeInvalidRole,
		},
		{
			name:  "unknown assessment",
			actor: actorOf(f.teacher),
			req: &models.CreateQuestionRequest{AssessmentID: 999, Question: "Lost", QuestionType: models.QuestionShortAnswer,
				CorrectAnswer: "a", Order: ptr(5)},
			want: "ASSESSMENT_NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := questions.Create(ctx, tt.actor, tt.req)
			assert.Equal(t, tt.want, errorCode(t, err))
		})
	}

	_, err := questions.Update(ctx, actorOf(f.teacher), f.questions[0].ID, &models.UpdateQuestionRequest{Options: []string{""}})
	assert.Equal(t, "INVALID_OPTIONS", errorCode(t, err))

	updated, err := questions.Update(ctx, actorOf(f.teacher), f.questions[0].ID, &models.UpdateQuestionRequest{Options: []string{"4", "5", "6"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5", "6"}, []string(updated.Options))
}

func TestUserAssessmentScoring(t *testing.T) {
	f, _, _, attempts := setupQuiz(t)
	ctx := context.Background()
	student := actorOf(f.student)

	first, err := attempts.Create(ctx, student, &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      answers(t, "2+2?", " 4 ", fmt.Sprint(f.questions[1].ID), "false"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 1.0, first.PointsEarned)
	assert.Equal(t, 4.0, first.PointsPossible)
	assert.Equal(t, 25.0, first.Score)
	assert.False(t, first.Passed)
	require.NotNil(t, first.CompletedAt)

	second, err := attempts.Create(ctx, student, &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      answers(t, "2+2?", "4", "Go is compiled", "TRUE"),
		TimeTaken:    ptr(12.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, 100.0, second.Score)
	assert.True(t, second.Passed)
	assert.Equal(t, 12.5, *second.TimeTaken)

	_, err = attempts.Create(ctx, student, &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      answers(t, "2+2?", "4"),
	})
	assert.Equal(t, "MAX_ATTEMPTS_EXCEEDED", errorCode(t, err))

	mine, total, err := attempts.List(ctx, student, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)
}

func TestUserAssessmentRejects(t *testing.T) {
	f, assessments, _, attempts := setupQuiz(t)
	ctx := context.Background()

	outsider := &policy.Actor{ID: f.student.ID + 100, Role: models.RoleStudent, IsActive: true, IsVerified: true}

	_, err := attempts.Create(ctx, actorOf(f.student), &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      json.RawMessage(`[{"question": "2+2?"}]`),
	})
	assert.Equal(t, "INVALID_ANSWERS_FORMAT", errorCode(t, err))

	_, err = attempts.Create(ctx, outsider, &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      answers(t, "2+2?", "4"),
	})
	assert.Equal(t, "NOT_ENROLLED", errorCode(t, err))

	_, err = assessments.Update(ctx, actorOf(f.teacher), f.assessment.ID, &models.UpdateAssessmentRequest{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = attempts.Create(ctx, actorOf(f.student), &models.CreateUserAssessmentRequest{
		AssessmentID: f.assessment.ID,
		Answers:      answers(t, "2+2?", "4"),
	})
	assert.Equal(t, "INACTIVE_ASSESSMENT", errorCode(t, err))
}
