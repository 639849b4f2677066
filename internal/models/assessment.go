package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "Quiz"
	AssessmentAssignment AssessmentType = "Assignment"
	AssessmentProject    AssessmentType = "Project"
	AssessmentPeerReview AssessmentType = "Peer Review"
)

const (
	DefaultMaxAttempts  = 3
	DefaultPassingScore = 70.0
)

type Assessment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ModuleID       uint           `json:"module_id" gorm:"not null;index"`
	Title          string         `json:"title" gorm:"not null;size:255"`
	Description    *string        `json:"description" gorm:"type:text"`
	AssessmentType AssessmentType `json:"assessment_type" gorm:"not null;size:20"`
	MaxAttempts    int            `json:"max_attempts" gorm:"not null"`
	PassingScore   float64        `json:"passing_score" gorm:"not null"`
	Duration       int            `json:"duration" gorm:"not null"` // minutes
	IsActive       bool           `json:"is_active" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Module *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) GetID() uint { return a.ID }

func (a *Assessment) OwnerIDs() []uint {
	if a.Module == nil {
		return nil
	}
	return a.Module.OwnerIDs()
}

// CourseID returns the owning course when the module chain is loaded
func (a *Assessment) CourseID() uint {
	if a.Module == nil {
		return 0
	}
	return a.Module.CourseID
}

// SubmittedAnswer is one entry of a user's answer sheet
type SubmittedAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type UserAssessment struct {
	ID             uint                                 `json:"id" gorm:"primaryKey"`
	UserID         uint                                 `json:"user_id" gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number"`
	AssessmentID   uint                                 `json:"assessment_id" gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number;index"`
	AttemptNumber  int                                  `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number"`
	Answers        datatypes.JSONSlice[SubmittedAnswer] `json:"answers"`
	Score          float64                              `json:"score" gorm:"not null"`
	PointsEarned   float64                              `json:"points_earned" gorm:"not null"`
	PointsPossible float64                              `json:"points_possible" gorm:"not null"`
	Passed         bool                                 `json:"passed" gorm:"not null"`
	StartedAt      time.Time                            `json:"started_at" gorm:"not null"`
	CompletedAt    *time.Time                           `json:"completed_at"`
	TimeTaken      *float64                             `json:"time_taken"` // minutes

	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

func (UserAssessment) TableName() string {
	return "user_assessments"
}

func (u *UserAssessment) GetID() uint { return u.ID }

// OwnerIDs are the instructors allowed to review the attempt
func (u *UserAssessment) OwnerIDs() []uint {
	if u.Assessment == nil {
		return nil
	}
	return u.Assessment.OwnerIDs()
}
