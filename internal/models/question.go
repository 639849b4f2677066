package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "Multiple Choice"
	QuestionTrueFalse      QuestionType = "True/False"
	QuestionShortAnswer    QuestionType = "Short Answer"
	QuestionEssay          QuestionType = "Essay"
)

type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	AssessmentID  uint                        `json:"assessment_id" gorm:"not null;uniqueIndex:idx_question_assessment_order"`
	Question      string                      `json:"question" gorm:"type:text;not null"`
	QuestionType  QuestionType                `json:"question_type" gorm:"not null;size:20"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `json:"correct_answer" gorm:"type:text;not null"`
	Points        float64                     `json:"points" gorm:"not null"`
	Order         int                         `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_question_assessment_order"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) GetID() uint { return q.ID }

func (q *Question) OwnerIDs() []uint {
	if q.Assessment == nil {
		return nil
	}
	return q.Assessment.OwnerIDs()
}

// Matches reports whether a submitted answer equals the stored correct answer,
// ignoring surrounding whitespace and letter case.
func (q *Question) Matches(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
}

// Identifies reports whether the question key of a submitted answer refers to q,
// either by decimal id or by exact question text.
func (q *Question) Identifies(key string) bool {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return uint(id) == q.ID
	}
	return key == strings.TrimSpace(q.Question)
}
