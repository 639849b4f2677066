package models

import (
	"strings"
	"time"
)

type UserRole string
type Role = UserRole

const (
	RoleAdmin      UserRole = "Admin"
	RoleInstructor UserRole = "Instructor"
	RoleStudent    UserRole = "Student"
	RoleEmployer   UserRole = "Employer"
	RoleMentor     UserRole = "Mentor"
	RoleNGOPartner UserRole = "NGO_Partner"
)

// AllRoles lists every role in display order
var AllRoles = []UserRole{RoleAdmin, RoleInstructor, RoleStudent, RoleEmployer, RoleMentor, RoleNGOPartner}

// JobPosterRoles may publish job opportunities
var JobPosterRoles = []UserRole{RoleAdmin, RoleEmployer, RoleInstructor, RoleMentor, RoleNGOPartner}

// ParseRole resolves a role name case-insensitively, accepting the
// lower-case and spaced spellings used by older clients.
func ParseRole(raw string) (UserRole, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for _, r := range AllRoles {
		if strings.ToLower(string(r)) == key {
			return r, true
		}
	}
	return "", false
}

// IsValid reports whether r is spelled canonically
func (r UserRole) IsValid() bool {
	return r.In(AllRoles...)
}

// In reports whether r is one of roles
func (r UserRole) In(roles ...UserRole) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type EducationLevel string

const (
	EducationHighSchool EducationLevel = "High School"
	EducationBachelors  EducationLevel = "Bachelor's"
	EducationMasters    EducationLevel = "Master's"
	EducationPhD        EducationLevel = "PhD"
	EducationOther      EducationLevel = "Other"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:150"`
	FirstName    string     `json:"first_name" gorm:"not null;size:150"`
	MiddleName   *string    `json:"middle_name" gorm:"size:150"`
	LastName     string     `json:"last_name" gorm:"not null;size:150"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Role         UserRole   `json:"role" gorm:"not null;size:20;index;default:Student"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	IsVerified   bool       `json:"is_verified" gorm:"not null"`
	IsStaff      bool       `json:"is_staff" gorm:"not null"`
	DateJoined   time.Time  `json:"date_joined" gorm:"autoCreateTime"`
	LastLogin    *time.Time `json:"last_login"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Profile *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uint { return u.ID }

// FullName joins the non-empty name parts
func (u *User) FullName() string {
	parts := []string{u.FirstName}
	if u.MiddleName != nil && *u.MiddleName != "" {
		parts = append(parts, *u.MiddleName)
	}
	parts = append(parts, u.LastName)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (u *User) OwnerIDs() []uint {
	return []uint{u.ID}
}

type UserProfile struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	UserID             uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	Bio                *string         `json:"bio" gorm:"type:text"`
	PhoneNumber        *string         `json:"phone_number" gorm:"size:20"`
	DateOfBirth        *time.Time      `json:"dob"`
	LanguagePreference *string         `json:"language_preference" gorm:"size:20"`
	Gender             *Gender         `json:"gender" gorm:"size:10"`
	EducationLevel     *EducationLevel `json:"education_level" gorm:"size:20"`
	Camp               *string         `json:"camp" gorm:"size:100"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// OTPPurpose distinguishes account verification codes from password reset codes
type OTPPurpose string

const (
	OTPVerification  OTPPurpose = "verification"
	OTPPasswordReset OTPPurpose = "password_reset"
)

// OneTimePassword is the relational fallback for OTPs when redis is not configured
type OneTimePassword struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"not null;size:255;uniqueIndex:idx_otp_email_purpose"`
	Purpose   OTPPurpose `json:"purpose" gorm:"not null;size:20;uniqueIndex:idx_otp_email_purpose"`
	Code      string     `json:"-" gorm:"not null;size:12"`
	Attempts  int        `json:"attempts" gorm:"not null;default:0"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
}

func (OneTimePassword) TableName() string {
	return "one_time_passwords"
}
