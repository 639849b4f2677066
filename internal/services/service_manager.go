package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/docstore"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// PeerSessions needs Dependencies.Docs
	PeerSessions ServiceConfig
	Export       ServiceConfig

	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled bool
}

// Dependencies are the collaborators shared by every service
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Publisher events.Publisher
	Auth      AuthDeps
	Docs      *docstore.Store
}

// DefaultServiceManagerConfig enables everything the dependencies allow
func DefaultServiceManagerConfig(deps Dependencies) ServiceManagerConfig {
	return ServiceManagerConfig{
		PeerSessions:   ServiceConfig{Enabled: deps.Docs != nil},
		Export:         ServiceConfig{Enabled: true},
		DefaultTimeout: 30 * time.Second,
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	authService           AuthService
	userService           UserService
	languageService       LanguageService
	campService           CampService
	categoryService       CategoryService
	courseService         CourseService
	moduleService         ModuleService
	enrollmentService     EnrollmentService
	progressService       ProgressService
	assessmentService     AssessmentService
	questionService       QuestionService
	userAssessmentService UserAssessmentService
	certificationService  CertificationService
	discussionService     DiscussionService
	replyService          ReplyService
	jobService            JobService
	applicationService    ApplicationService
	peerSessionService    PeerSessionService
	dashboardService      DashboardService
	exportService         ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Publisher == nil {
		deps.Publisher = events.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &serviceManager{deps: deps, config: config}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	return NewServiceManager(deps, DefaultServiceManagerConfig(deps))
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.initializeServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() error {
	d := sm.deps
	if d.Repo == nil {
		return errors.New("repository is required")
	}
	if d.Validator == nil {
		return errors.New("validator is required")
	}
	if sm.config.PeerSessions.Enabled && d.Docs == nil {
		return errors.New("peer sessions need a document store")
	}

	sm.authService = NewAuthService(d.Repo, d.Logger, d.Validator, d.Auth)
	sm.userService = NewUserService(d.Repo, d.Logger, d.Validator)

	sm.languageService = NewLanguageService(d.Repo, d.Logger, d.Validator)
	sm.campService = NewCampService(d.Repo, d.Logger, d.Validator)
	sm.categoryService = NewCategoryService(d.Repo, d.Logger, d.Validator)

	sm.courseService = NewCourseService(d.Repo, d.Logger, d.Validator)
	sm.moduleService = NewModuleService(d.Repo, d.Logger, d.Validator)
	sm.enrollmentService = NewEnrollmentService(d.Repo, d.Logger, d.Validator, d.Publisher)
	sm.progressService = NewProgressService(d.Repo, d.Logger, d.Validator)
	sm.assessmentService = NewAssessmentService(d.Repo, d.Logger, d.Validator)
	sm.questionService = NewQuestionService(d.Repo, d.Logger, d.Validator)
	sm.userAssessmentService = NewUserAssessmentService(d.Repo, d.Logger, d.Validator)
	sm.certificationService = NewCertificationService(d.Repo, d.Logger, d.Validator, d.Publisher)

	sm.discussionService = NewDiscussionService(d.Repo, d.Logger, d.Validator)
	sm.replyService = NewReplyService(d.Repo, d.Logger, d.Validator)
	sm.jobService = NewJobService(d.Repo, d.Logger, d.Validator)
	sm.applicationService = NewApplicationService(d.Repo, d.Logger, d.Validator, d.Publisher)

	if sm.config.PeerSessions.Enabled {
		sm.peerSessionService = NewPeerSessionService(d.Docs, d.Repo, d.Logger, d.Validator)
		d.Logger.Info("Peer session service initialized")
	}

	sm.dashboardService = NewDashboardService(d.Repo, d.Logger)
	if sm.config.Export.Enabled {
		sm.exportService = NewExportService(d.Repo, d.Logger)
		d.Logger.Info("Export service initialized")
	}

	return nil
}

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.userService
}

func (sm *serviceManager) Language() LanguageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.languageService
}

func (sm *serviceManager) Camp() CampService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.campService
}

func (sm *serviceManager) Category() CategoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.categoryService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.courseService
}

func (sm *serviceManager) Module() ModuleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.moduleService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.enrollmentService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.progressService
}

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.assessmentService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.questionService
}

func (sm *serviceManager) UserAssessment() UserAssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.userAssessmentService
}

func (sm *serviceManager) Certification() CertificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.certificationService
}

func (sm *serviceManager) Discussion() DiscussionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.discussionService
}

func (sm *serviceManager) Reply() ReplyService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.replyService
}

func (sm *serviceManager) Job() JobService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.jobService
}

func (sm *serviceManager) Application() ApplicationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.applicationService
}

// PeerSession returns nil when peer sessions are disabled
func (sm *serviceManager) PeerSession() PeerSessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.peerSessionService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.dashboardService
}

// Export returns nil when exports are disabled
func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if sm.config.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sm.config.DefaultTimeout)
		defer cancel()
	}

	if manager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := manager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	} else if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	if sm.deps.Docs != nil {
		if err := sm.deps.Docs.Ping(ctx); err != nil {
			return fmt.Errorf("document store health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if manager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := manager.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
