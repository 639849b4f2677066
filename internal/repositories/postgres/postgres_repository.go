package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user           repositories.UserRepository
	profile        repositories.ProfileRepository
	language       repositories.CRUDRepository[models.Language]
	camp           repositories.CRUDRepository[models.Camp]
	category       repositories.CRUDRepository[models.CourseCategory]
	course         repositories.CRUDRepository[models.Course]
	module         repositories.CRUDRepository[models.Module]
	enrollment     repositories.EnrollmentRepository
	progress       repositories.CRUDRepository[models.UserProgress]
	assessment     repositories.CRUDRepository[models.Assessment]
	question       repositories.QuestionRepository
	userAssessment repositories.UserAssessmentRepository
	certification  repositories.CertificationRepository
	discussion     repositories.CRUDRepository[models.Discussion]
	reply          repositories.ReplyRepository
	job            repositories.JobRepository
	application    repositories.CRUDRepository[models.JobApplication]
	dashboard      repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB *gorm.DB
	// RedisClient is optional; without it every read goes to the database
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	db := config.DB
	cm := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           db,
		redisClient:  config.RedisClient,
		cacheManager: cm,
	}

	repo.user = NewUserPostgreSQL(db)
	repo.profile = NewProfilePostgreSQL(db)

	// Catalog and courses are read-heavy and cached
	repo.language = NewLanguagePostgreSQL(db, cm)
	repo.camp = NewCampPostgreSQL(db, cm)
	repo.category = NewCategoryPostgreSQL(db, cm)
	repo.course = NewCoursePostgreSQL(db, cm)

	repo.module = NewModulePostgreSQL(db)
	repo.enrollment = NewEnrollmentPostgreSQL(db)
	repo.progress = NewProgressPostgreSQL(db)
	repo.assessment = NewAssessmentPostgreSQL(db)
	repo.question = NewQuestionPostgreSQL(db)
	repo.userAssessment = NewUserAssessmentPostgreSQL(db)
	repo.certification = NewCertificationPostgreSQL(db)

	repo.discussion = NewDiscussionPostgreSQL(db)
	repo.reply = NewReplyPostgreSQL(db)
	repo.job = NewJobPostgreSQL(db, cm)
	repo.application = NewApplicationPostgreSQL(db)

	repo.dashboard = NewDashboardRepository(db, repo.user, cm)

	return repo
}

func (r *PostgreSQLRepository) User() repositories.UserRepository       { return r.user }
func (r *PostgreSQLRepository) Profile() repositories.ProfileRepository { return r.profile }

func (r *PostgreSQLRepository) Language() repositories.CRUDRepository[models.Language] {
	return r.language
}

func (r *PostgreSQLRepository) Camp() repositories.CRUDRepository[models.Camp] {
	return r.camp
}

func (r *PostgreSQLRepository) Category() repositories.CRUDRepository[models.CourseCategory] {
	return r.category
}

func (r *PostgreSQLRepository) Course() repositories.CRUDRepository[models.Course] {
	return r.course
}

func (r *PostgreSQLRepository) Module() repositories.CRUDRepository[models.Module] {
	return r.module
}

func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}

func (r *PostgreSQLRepository) Progress() repositories.CRUDRepository[models.UserProgress] {
	return r.progress
}

func (r *PostgreSQLRepository) Assessment() repositories.CRUDRepository[models.Assessment] {
	return r.assessment
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *PostgreSQLRepository) UserAssessment() repositories.UserAssessmentRepository {
	return r.userAssessment
}

func (r *PostgreSQLRepository) Certification() repositories.CertificationRepository {
	return r.certification
}

func (r *PostgreSQLRepository) Discussion() repositories.CRUDRepository[models.Discussion] {
	return r.discussion
}

func (r *PostgreSQLRepository) Reply() repositories.ReplyRepository { return r.reply }
func (r *PostgreSQLRepository) Job() repositories.JobRepository     { return r.job }

func (r *PostgreSQLRepository) Application() repositories.CRUDRepository[models.JobApplication] {
	return r.application
}

func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository {
	return r.dashboard
}

// CacheManager exposes the cache helpers for invalidation outside the repositories
func (r *PostgreSQLRepository) CacheManager() *cache.CacheManager {
	return r.cacheManager
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		// Counts may have moved
		cache.InvalidateStats(ctx, r.cacheManager)
	}
	return err
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// ClearCache clears every cached record
func (r *PostgreSQLRepository) ClearCache(ctx context.Context) error {
	return r.cacheManager.ClearAll(ctx)
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   *PostgreSQLRepository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize initializes all repositories and connections
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			// Degrade to uncached reads
			slog.Warn("Redis unavailable, caching disabled", "error", err)
			rm.config.RedisClient = nil
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	if rm.repo == nil {
		return nil
	}
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
