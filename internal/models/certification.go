package models

import "time"

type CertificateType string

const (
	CertificateCompletion  CertificateType = "Completion Certificate"
	CertificateAchievement CertificateType = "Achievement Badge"
	CertificateSkill       CertificateType = "Skill Verification"
)

// VerificationCodeLength is the number of decimal digits in a certificate code
const VerificationCodeLength = 10

type Certification struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	UserID           uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_certification_user_course_type"`
	CourseID         uint            `json:"course_id" gorm:"not null;uniqueIndex:idx_certification_user_course_type;index"`
	CertificateType  CertificateType `json:"certificate_type" gorm:"not null;size:30;uniqueIndex:idx_certification_user_course_type"`
	Title            string          `json:"title" gorm:"not null;size:255"`
	Description      string          `json:"description" gorm:"type:text;not null"`
	VerificationCode string          `json:"verification_code" gorm:"uniqueIndex;not null;size:10"`
	IsVerified       bool            `json:"is_verified" gorm:"not null"`
	IssuedAt         time.Time       `json:"issued_at" gorm:"autoCreateTime"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Certification) TableName() string {
	return "certifications"
}

func (c *Certification) GetID() uint { return c.ID }

func (c *Certification) OwnerIDs() []uint {
	if c.Course == nil {
		return nil
	}
	return c.Course.OwnerIDs()
}
