package services

import (
	"context"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
)

// ===== USER SERVICES =====

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	ResendOTP(ctx context.Context, req *models.ResendOTPRequest) error

	// Password management
	RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req *models.PasswordResetConfirmRequest) (*models.User, error)
	ChangePassword(ctx context.Context, actor *policy.Actor, req *models.ChangePasswordRequest) (*models.User, error)
}

type UserService interface {
	Me(ctx context.Context, actor *policy.Actor) (*models.User, error)
	UpdateMe(ctx context.Context, actor *policy.Actor, req *models.UpdateUserRequest) (*models.User, error)

	// Administration
	List(ctx context.Context, actor *policy.Actor, q ListQuery) ([]models.User, int64, error)
	Get(ctx context.Context, actor *policy.Actor, id uint) (*models.User, error)
	UpdateRole(ctx context.Context, actor *policy.Actor, id uint, req *models.UpdateRoleRequest) (*models.User, error)
	UpdateStatus(ctx context.Context, actor *policy.Actor, id uint, req *models.UpdateStatusRequest) (*models.User, error)
	Delete(ctx context.Context, actor *policy.Actor, id uint) error
}

// ===== REPORTING SERVICES =====

type DashboardService interface {
	GetDashboard(ctx context.Context, actor *policy.Actor) (*DashboardResponse, error)
}

type ExportService interface {
	CourseEnrollments(ctx context.Context, actor *policy.Actor, courseID uint) (*Export, error)
	Certifications(ctx context.Context, actor *policy.Actor) (*Export, error)
}

// ===== PEER LEARNING =====

type PeerSessionService interface {
	Create(ctx context.Context, actor *policy.Actor, req *models.CreatePeerSessionRequest) (*models.PeerSession, error)
	List(ctx context.Context, actor *policy.Actor, filter PeerFilter, offset, limit int) ([]models.PeerSession, int64, error)
	Mine(ctx context.Context, actor *policy.Actor, offset, limit int) ([]models.PeerSession, int64, error)
	Get(ctx context.Context, actor *policy.Actor, id string) (*models.PeerSession, error)
	Update(ctx context.Context, actor *policy.Actor, id string, req *models.UpdatePeerSessionRequest) (*models.PeerSession, error)
	Delete(ctx context.Context, actor *policy.Actor, id string) error

	// Participation
	Join(ctx context.Context, actor *policy.Actor, id string) (*models.PeerParticipant, error)
	Leave(ctx context.Context, actor *policy.Actor, id string) error
	Participants(ctx context.Context, actor *policy.Actor, id string, offset, limit int) ([]models.PeerParticipant, int64, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Accounts
	Auth() AuthService
	User() UserService

	// Catalog
	Language() LanguageService
	Camp() CampService
	Category() CategoryService

	// Courses
	Course() CourseService
	Module() ModuleService
	Enrollment() EnrollmentService
	Progress() ProgressService
	Assessment() AssessmentService
	Question() QuestionService
	UserAssessment() UserAssessmentService
	Certification() CertificationService

	// Community and careers
	Discussion() DiscussionService
	Reply() ReplyService
	Job() JobService
	Application() ApplicationService
	PeerSession() PeerSessionService

	// Reporting
	Dashboard() DashboardService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
