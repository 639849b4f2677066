package models

import (
	"time"

	"gorm.io/datatypes"
)

type JobType string

const (
	JobFullTime   JobType = "Full Time"
	JobPartTime   JobType = "Part Time"
	JobContract   JobType = "Contract"
	JobFreelance  JobType = "Freelance"
	JobInternship JobType = "Internship"
)

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "Submitted"
	ApplicationUnderReview ApplicationStatus = "Under Review"
	ApplicationShortlisted ApplicationStatus = "Shortlisted"
	ApplicationInterviewed ApplicationStatus = "Interviewed"
	ApplicationAccepted    ApplicationStatus = "Accepted"
	ApplicationRejected    ApplicationStatus = "Rejected"
)

type JobOpportunity struct {
	ID                  uint                        `json:"id" gorm:"primaryKey"`
	Title               string                      `json:"title" gorm:"not null;size:255"`
	Description         string                      `json:"description" gorm:"type:text;not null"`
	Location            string                      `json:"location" gorm:"not null;size:255"`
	JobType             JobType                     `json:"job_type" gorm:"not null;size:20"`
	RequiredSkills      datatypes.JSONSlice[string] `json:"required_skills"`
	SalaryRange         *string                     `json:"salary_range" gorm:"size:100"`
	ApplicationDeadline time.Time                   `json:"application_deadline" gorm:"not null"`
	IsActive            bool                        `json:"is_active" gorm:"not null"`
	RemoteWork          bool                        `json:"remote_work" gorm:"not null"`
	PostedByID          uint                        `json:"posted_by" gorm:"column:posted_by_id;not null;index"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`

	RequiredCertificates []Course `json:"required_certificates,omitempty" gorm:"many2many:job_required_certificates;constraint:OnDelete:CASCADE"`
	PostedBy             *User    `json:"posted_by_user,omitempty" gorm:"foreignKey:PostedByID"`
}

func (JobOpportunity) TableName() string {
	return "job_opportunities"
}

func (j *JobOpportunity) GetID() uint { return j.ID }

func (j *JobOpportunity) OwnerIDs() []uint {
	return []uint{j.PostedByID}
}

// AcceptsApplications reports whether the job is open at the given instant
func (j *JobOpportunity) AcceptsApplications(now time.Time) bool {
	return j.IsActive && now.Before(j.ApplicationDeadline)
}

type JobApplication struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	UserID            uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_application_user_job"`
	JobID             uint              `json:"job_id" gorm:"not null;uniqueIndex:idx_application_user_job;index"`
	CoverLetter       *string           `json:"cover_letter" gorm:"type:text"`
	ApplicationStatus ApplicationStatus `json:"application_status" gorm:"not null;size:20;default:Submitted"`
	AppliedAt         time.Time         `json:"applied_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time         `json:"updated_at"`

	User *User           `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Job  *JobOpportunity `json:"job,omitempty" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

func (JobApplication) TableName() string {
	return "job_applications"
}

func (a *JobApplication) GetID() uint { return a.ID }

// OwnerIDs are the applicant and the user who posted the job
func (a *JobApplication) OwnerIDs() []uint {
	owners := []uint{a.UserID}
	if a.Job != nil {
		owners = append(owners, a.Job.PostedByID)
	}
	return owners
}
