package models

import (
	"encoding/json"
	"time"
)

// ===== AUTH & USER REQUESTS =====

type RegisterRequest struct {
	Username   string  `json:"username" validate:"required,min=3,max=150"`
	FirstName  string  `json:"first_name" validate:"required,max=150"`
	MiddleName *string `json:"middle_name" validate:"omitempty,max=150"`
	LastName   string  `json:"last_name" validate:"required,max=150"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=6,max=70"`
	Password2  string  `json:"password2" validate:"required,min=6,max=70"`
	// Role is accepted for compatibility and ignored; registrations are always students.
	Role string `json:"role"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,digits"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required,digits"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type UpdateUserRequest struct {
	Username   *string               `json:"username" validate:"omitempty,min=3,max=150"`
	FirstName  *string               `json:"first_name" validate:"omitempty,min=1,max=150"`
	MiddleName *string               `json:"middle_name" validate:"omitempty,max=150"`
	LastName   *string               `json:"last_name" validate:"omitempty,min=1,max=150"`
	Profile    *UpdateProfileRequest `json:"profile"`
}

type UpdateProfileRequest struct {
	Bio                *string         `json:"bio" validate:"omitempty,max=2000"`
	PhoneNumber        *string         `json:"phone_number" validate:"omitempty,max=20"`
	DateOfBirth        *time.Time      `json:"dob"`
	LanguagePreference *string         `json:"language_preference" validate:"omitempty,language_preference"`
	Gender             *Gender         `json:"gender" validate:"omitempty,gender"`
	EducationLevel     *EducationLevel `json:"education_level" validate:"omitempty,education_level"`
	Camp               *string         `json:"camp" validate:"omitempty,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// ===== CATALOG REQUESTS =====

type CreateLanguageRequest struct {
	Code string `json:"code" validate:"required,max=10"`
	Name string `json:"name" validate:"required,max=100"`
}

type UpdateLanguageRequest struct {
	Code *string `json:"code" validate:"omitempty,min=1,max=10"`
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

type CreateCampRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"required,max=255"`
}

type UpdateCampRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Location *string `json:"location" validate:"omitempty,min=1,max=255"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// ===== COURSE REQUESTS =====

type CreateCourseRequest struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Description     *string         `json:"description"`
	LanguageID      *uint           `json:"language_id"`
	InstructorID    *uint           `json:"instructor_id"`
	Requirements    *string         `json:"requirements" validate:"omitempty,max=500"`
	CategoryID      *uint           `json:"category_id"`
	Duration        *string         `json:"duration" validate:"omitempty,max=50"`
	DifficultyLevel DifficultyLevel `json:"difficult_level" validate:"omitempty,difficulty_level"`
	IsActive        *bool           `json:"is_active"`
}

type UpdateCourseRequest struct {
	Title           *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string          `json:"description"`
	LanguageID      *uint            `json:"language_id"`
	InstructorID    *uint            `json:"instructor_id"`
	Requirements    *string          `json:"requirements" validate:"omitempty,max=500"`
	CategoryID      *uint            `json:"category_id"`
	Duration        *string          `json:"duration" validate:"omitempty,max=50"`
	DifficultyLevel *DifficultyLevel `json:"difficult_level" validate:"omitempty,difficulty_level"`
	IsActive        *bool            `json:"is_active"`
}

type CreateModuleRequest struct {
	CourseID    uint        `json:"course_id" validate:"required"`
	Order       *int        `json:"order" validate:"required,min=0"`
	Title       string      `json:"title" validate:"required,max=255"`
	Content     *string     `json:"content"`
	ContentType ContentType `json:"content_type" validate:"required,content_type"`
	Duration    *string     `json:"duration" validate:"omitempty,max=50"`
	IsMandatory *bool       `json:"is_mandatory"`
}

type UpdateModuleRequest struct {
	Order       *int         `json:"order" validate:"omitempty,min=0"`
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	Content     *string      `json:"content"`
	ContentType *ContentType `json:"content_type" validate:"omitempty,content_type"`
	Duration    *string      `json:"duration" validate:"omitempty,max=50"`
	IsMandatory *bool        `json:"is_mandatory"`
}

type CreateEnrollmentRequest struct {
	UserID   *uint            `json:"user_id"`
	CourseID uint             `json:"course_id" validate:"required"`
	Status   EnrollmentStatus `json:"status" validate:"omitempty,enrollment_status"`
}

type UpdateEnrollmentRequest struct {
	Status *EnrollmentStatus `json:"status" validate:"omitempty,enrollment_status"`
}

type CreateProgressRequest struct {
	UserID             *uint    `json:"user_id"`
	CourseID           uint     `json:"course_id" validate:"required"`
	CurrentModuleID    *uint    `json:"current_module_id"`
	ProgressPercentage *float64 `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
	IsActive           *bool    `json:"is_active"`
}

type UpdateProgressRequest struct {
	CurrentModuleID    *uint    `json:"current_module_id"`
	ProgressPercentage *float64 `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
	IsActive           *bool    `json:"is_active"`
}

// ===== ASSESSMENT REQUESTS =====

type CreateAssessmentRequest struct {
	ModuleID       uint           `json:"module_id" validate:"required"`
	Title          string         `json:"title" validate:"required,max=255"`
	Description    *string        `json:"description"`
	AssessmentType AssessmentType `json:"assessment_type" validate:"required,assessment_type"`
	MaxAttempts    *int           `json:"max_attempts" validate:"omitempty,min=1"`
	PassingScore   *float64       `json:"passing_score" validate:"omitempty,min=0,max=100"`
	Duration       int            `json:"duration" validate:"required,min=1"`
	IsActive       *bool          `json:"is_active"`
}

type UpdateAssessmentRequest struct {
	Title          *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Description    *string         `json:"description"`
	AssessmentType *AssessmentType `json:"assessment_type" validate:"omitempty,assessment_type"`
	MaxAttempts    *int            `json:"max_attempts" validate:"omitempty,min=1"`
	PassingScore   *float64        `json:"passing_score" validate:"omitempty,min=0,max=100"`
	Duration       *int            `json:"duration" validate:"omitempty,min=1"`
	IsActive       *bool           `json:"is_active"`
}

type CreateQuestionRequest struct {
	AssessmentID  uint         `json:"assessment_id" validate:"required"`
	Question      string       `json:"question" validate:"required"`
	QuestionType  QuestionType `json:"question_type" validate:"required,question_type"`
	Options       []string     `json:"options" validate:"omitempty,dive,max=500"`
	CorrectAnswer string       `json:"correct_answer" validate:"required"`
	Points        *float64     `json:"points" validate:"omitempty,min=0"`
	Order         *int         `json:"order" validate:"required,min=0"`
}

type UpdateQuestionRequest struct {
	Question      *string       `json:"question"`
	QuestionType  *QuestionType `json:"question_type" validate:"omitempty,question_type"`
	Options       []string      `json:"options" validate:"omitempty,dive,max=500"`
	CorrectAnswer *string       `json:"correct_answer"`
	Points        *float64      `json:"points" validate:"omitempty,min=0"`
	Order         *int          `json:"order" validate:"omitempty,min=0"`
}

type CreateUserAssessmentRequest struct {
	AssessmentID uint            `json:"assessment_id" validate:"required"`
	Answers      json.RawMessage `json:"answers" validate:"required"`
	StartedAt    *time.Time      `json:"started_at"`
	TimeTaken    *float64        `json:"time_taken" validate:"omitempty,min=0"`
}

type UpdateUserAssessmentRequest struct {
	Score     *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Passed    *bool    `json:"passed"`
	TimeTaken *float64 `json:"time_taken" validate:"omitempty,min=0"`
}

type CreateCertificationRequest struct {
	UserID           uint            `json:"user_id" validate:"required"`
	CourseID         uint            `json:"course_id" validate:"required"`
	CertificateType  CertificateType `json:"certificate_type" validate:"required,certificate_type"`
	Title            string          `json:"title" validate:"required,max=255"`
	Description      string          `json:"description" validate:"required"`
	VerificationCode *string         `json:"verification_code"`
	IsVerified       *bool           `json:"is_verified"`
}

type UpdateCertificationRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	IsVerified  *bool   `json:"is_verified"`
}

// ===== COMMUNITY REQUESTS =====

type CreateDiscussionRequest struct {
	CourseID *uint              `json:"course_id"`
	Title    string             `json:"title" validate:"required,max=255"`
	Category DiscussionCategory `json:"category" validate:"required,discussion_category"`
	Content  string             `json:"content" validate:"required"`
}

type UpdateDiscussionRequest struct {
	Title    *string             `json:"title" validate:"omitempty,max=255"`
	Category *DiscussionCategory `json:"category" validate:"omitempty,discussion_category"`
	Content  *string             `json:"content"`
	Status   *DiscussionStatus   `json:"status" validate:"omitempty,application_status"` // shares the application statuses
}

type CreateReplyRequest struct {
	DiscussionID  uint   `json:"discussion_id" validate:"required"`
	Content       string `json:"content" validate:"required"`
	ParentReplyID *uint  `json:"parent_reply_id"`
	IsSolution    *bool  `json:"is_solution"`
}

type UpdateReplyRequest struct {
	Content    *string `json:"content"`
	IsSolution *bool   `json:"is_solution"`
}

// ===== CAREER REQUESTS =====

type CreateJobRequest struct {
	Title                  string    `json:"title" validate:"required,max=255"`
	Description            string    `json:"description" validate:"required"`
	Location               string    `json:"location" validate:"required,max=255"`
	JobType                JobType   `json:"job_type" validate:"required,job_type"`
	RequiredSkills         []string  `json:"required_skills" validate:"omitempty,dive,max=100"`
	RequiredCertificateIDs []uint    `json:"required_certificates"`
	SalaryRange            *string   `json:"salary_range" validate:"omitempty,max=100"`
	ApplicationDeadline    time.Time `json:"application_deadline" validate:"required"`
	IsActive               *bool     `json:"is_active"`
	RemoteWork             *bool     `json:"remote_work"`
}

type UpdateJobRequest struct {
	Title                  *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description            *string    `json:"description"`
	Location               *string    `json:"location" validate:"omitempty,max=255"`
	JobType                *JobType   `json:"job_type" validate:"omitempty,job_type"`
	RequiredSkills         []string   `json:"required_skills" validate:"omitempty,dive,max=100"`
	RequiredCertificateIDs []uint     `json:"required_certificates"`
	SalaryRange            *string    `json:"salary_range" validate:"omitempty,max=100"`
	ApplicationDeadline    *time.Time `json:"application_deadline"`
	IsActive               *bool      `json:"is_active"`
	RemoteWork             *bool      `json:"remote_work"`
}

type CreateApplicationRequest struct {
	JobID       uint    `json:"job_id" validate:"required"`
	CoverLetter *string `json:"cover_letter"`
}

type UpdateApplicationRequest struct {
	CoverLetter       *string            `json:"cover_letter"`
	ApplicationStatus *ApplicationStatus `json:"application_status" validate:"omitempty,application_status"`
}

// ===== PEER LEARNING REQUESTS =====

type CreatePeerSessionRequest struct {
	Title           string    `json:"title" validate:"required,max=255"`
	Description     string    `json:"description" validate:"max=2000"`
	Topic           string    `json:"topic" validate:"max=255"`
	CourseID        *uint     `json:"course_id"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
	MaxParticipants int       `json:"max_participants" validate:"required,min=1,max=500"`
	MeetingLink     string    `json:"meeting_link" validate:"omitempty,url"`
}

type UpdatePeerSessionRequest struct {
	Title           *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string            `json:"description" validate:"omitempty,max=2000"`
	Topic           *string            `json:"topic" validate:"omitempty,max=255"`
	ScheduledAt     *time.Time         `json:"scheduled_at"`
	DurationMinutes *int               `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	MaxParticipants *int               `json:"max_participants" validate:"omitempty,min=1,max=500"`
	MeetingLink     *string            `json:"meeting_link" validate:"omitempty,url"`
	Status          *PeerSessionStatus `json:"status" validate:"omitempty,peer_session_status"`
}

// ===== DASHBOARD =====

type DashboardStats struct {
	UsersByRole         map[UserRole]int64 `json:"users_by_role"`
	TotalUsers          int64              `json:"total_users"`
	VerifiedUsers       int64              `json:"verified_users"`
	TotalCourses        int64              `json:"total_courses"`
	ActiveCourses       int64              `json:"active_courses"`
	TotalEnrollments    int64              `json:"total_enrollments"`
	TotalAssessments    int64              `json:"total_assessments"`
	TotalAttempts       int64              `json:"total_attempts"`
	PassRate            float64            `json:"pass_rate"`
	TotalCertifications int64              `json:"total_certifications"`
	ActiveJobs          int64              `json:"active_jobs"`
	TotalApplications   int64              `json:"total_applications"`
	TotalDiscussions    int64              `json:"total_discussions"`
}
