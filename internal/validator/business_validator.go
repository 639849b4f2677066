package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// LanguagePreferences are the interface languages a profile may choose
var LanguagePreferences = []string{"English", "French", "Kinyarwanda", "Swahili"}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonTagName)

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, r := range value {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		date, ok := field.Interface().(time.Time)
		return ok && date.After(time.Now())
	})

	bv.validate.RegisterValidation("language_preference", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), LanguagePreferences...)
	})

	registerEnum(bv.validate, "difficulty_level", models.DifficultyBeginner, models.DifficultyIntermediate,
		models.DifficultyAdvanced, models.DifficultyExpert)
	registerEnum(bv.validate, "content_type", models.ContentText, models.ContentVideo, models.ContentAudio,
		models.ContentPDF, models.ContentInteractive, models.ContentQuiz, models.ContentAssignment)
	registerEnum(bv.validate, "enrollment_status", models.EnrollmentActive, models.EnrollmentCompleted,
		models.EnrollmentDropped)
	registerEnum(bv.validate, "assessment_type", models.AssessmentQuiz, models.AssessmentAssignment,
		models.AssessmentProject, models.AssessmentPeerReview)
	registerEnum(bv.validate, "question_type", models.QuestionMultipleChoice, models.QuestionTrueFalse,
		models.QuestionShortAnswer, models.QuestionEssay)
	registerEnum(bv.validate, "certificate_type", models.CertificateCompletion, models.CertificateAchievement,
		models.CertificateSkill)
	registerEnum(bv.validate, "discussion_category", models.DiscussionGeneral, models.DiscussionSupport,
		models.DiscussionCareer, models.DiscussionTechnical)
	registerEnum(bv.validate, "application_status", models.ApplicationSubmitted, models.ApplicationUnderReview,
		models.ApplicationShortlisted, models.ApplicationInterviewed, models.ApplicationAccepted,
		models.ApplicationRejected)
	registerEnum(bv.validate, "job_type", models.JobFullTime, models.JobPartTime, models.JobContract,
		models.JobFreelance, models.JobInternship)
	registerEnum(bv.validate, "gender", models.GenderMale, models.GenderFemale, models.GenderOther)
	registerEnum(bv.validate, "education_level", models.EducationHighSchool, models.EducationBachelors,
		models.EducationMasters, models.EducationPhD, models.EducationOther)
	registerEnum(bv.validate, "peer_session_status", models.PeerSessionScheduled, models.PeerSessionOngoing,
		models.PeerSessionCompleted, models.PeerSessionCancelled)
}

func registerEnum[E ~string](v *validator.Validate, tag string, values ...E) {
	allowed := make([]string, len(values))
	for i, value := range values {
		allowed[i] = string(value)
	}
	v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), allowed...)
	})
}

func oneOf(value string, allowed ...string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

// NotBlank reports whether s has any non-space character
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
