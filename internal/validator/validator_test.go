package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

func TestValidateEnums(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     interface{}
		wantErr string
	}{
		{
			name: "valid course",
			req:  &models.CreateCourseRequest{Title: "Go", DifficultyLevel: models.DifficultyBeginner},
		},
		{
			name:    "bad difficulty",
			req:     &models.CreateCourseRequest{Title: "Go", DifficultyLevel: "Hard"},
			wantErr: "difficult_level",
		},
		{
			name:    "missing title",
			req:     &models.CreateCourseRequest{},
			wantErr: "title",
		},
		{
			name: "valid question",
			req: &models.CreateQuestionRequest{
				AssessmentID: 1, Question: "2+2?", QuestionType: models.QuestionShortAnswer,
				CorrectAnswer: "4", Order: intPtr(1),
			},
		},
		{
			name: "bad question type",
			req: &models.CreateQuestionRequest{
				AssessmentID: 1, Question: "2+2?", QuestionType: "Matching",
				CorrectAnswer: "4", Order: intPtr(1),
			},
			wantErr: "question_type",
		},
		{
			name:    "otp letters",
			req:     &models.VerifyEmailRequest{Email: "a@b.co", OTP: "12ab"},
			wantErr: "otp",
		},
		{
			name: "job type with space",
			req: &models.CreateJobRequest{
				Title: "Dev", Description: "d", Location: "Kigali", JobType: models.JobFullTime,
				ApplicationDeadline: time.Now().Add(time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Fields(), tt.wantErr)
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	one := ValidationErrors{{Field: "title", Message: "is required"}}
	assert.Equal(t, "validation failed: title is required", one.Error())

	two := append(one, ValidationError{Field: "order", Message: "is required"})
	assert.Equal(t, "validation failed: 2 field errors", two.Error())
}

func intPtr(v int) *int { return &v }
