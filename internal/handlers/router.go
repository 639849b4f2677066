package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/metrics"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/pagination"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/ratelimit"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

const serviceName = "elearning-service"

// RateLimits throttles the auth endpoints. A nil Store disables throttling.
type RateLimits struct {
	Store     ratelimit.Store
	Anonymous ratelimit.Rule
	User      ratelimit.Rule
}

// route mounts one CRUD resource under its group
type route interface {
	Register(group *gin.RouterGroup)
}

type HandlerManager struct {
	authHandler          *AuthHandler
	userHandler          *UserHandler
	dashboardHandler     *DashboardHandler
	certificationHandler *CertificationHandler
	communityHandler     *CommunityHandler
	peerSessionHandler   *PeerSessionHandler
	authMiddleware       *AuthMiddleware
	resources            map[string]route
	health               func(ctx context.Context) error
	limits               RateLimits
	logger               utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver IdentityResolver,
	logger utils.Logger,
	pageConfig config.PaginationConfig,
	limits RateLimits,
) *HandlerManager {
	pages := pagination.Config{DefaultPageSize: pageConfig.DefaultPageSize, MaxPageSize: pageConfig.MaxPageSize}

	hm := &HandlerManager{
		authHandler:          NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:          NewUserHandler(serviceManager.User(), logger, pages),
		dashboardHandler:     NewDashboardHandler(serviceManager.Dashboard(), logger),
		certificationHandler: NewCertificationHandler(serviceManager.Certification(), serviceManager.Export(), logger),
		communityHandler:     NewCommunityHandler(serviceManager.Reply(), logger),
		authMiddleware:       NewAuthMiddleware(resolver, logger),
		health:               serviceManager.HealthCheck,
		limits:               limits,
		logger:               logger,
		resources: map[string]route{
			policy.Languages:       NewResourceHandler(policy.Languages, serviceManager.Language(), logger, pages, "code", "name"),
			policy.Camps:           NewResourceHandler(policy.Camps, serviceManager.Camp(), logger, pages, "name", "location"),
			policy.Categories:      NewResourceHandler(policy.Categories, serviceManager.Category(), logger, pages, "name"),
			policy.Courses:         NewResourceHandler(policy.Courses, serviceManager.Course(), logger, pages, "title", "description", "requirements", "duration"),
			policy.Modules:         NewResourceHandler(policy.Modules, serviceManager.Module(), logger, pages, "title", "content", "duration"),
			policy.Enrollments:     NewResourceHandler(policy.Enrollments, serviceManager.Enrollment(), logger, pages),
			policy.Progress:        NewResourceHandler(policy.Progress, serviceManager.Progress(), logger, pages),
			policy.Assessments:     NewResourceHandler(policy.Assessments, serviceManager.Assessment(), logger, pages, "title", "description"),
			policy.Questions:       NewResourceHandler(policy.Questions, serviceManager.Question(), logger, pages, "question", "correct_answer"),
			policy.UserAssessments: NewResourceHandler(policy.UserAssessments, serviceManager.UserAssessment(), logger, pages, "answers"),
			policy.Certifications:  NewResourceHandler(policy.Certifications, services.ResourceService[models.Certification, models.CreateCertificationRequest, models.UpdateCertificationRequest](serviceManager.Certification()), logger, pages, "title", "description", "verification_code"),
			policy.Discussions:     NewResourceHandler(policy.Discussions, serviceManager.Discussion(), logger, pages, "title", "content"),
			policy.Replies:         NewResourceHandler(policy.Replies, services.ResourceService[models.DiscussionReply, models.CreateReplyRequest, models.UpdateReplyRequest](serviceManager.Reply()), logger, pages, "content"),
			policy.Jobs:            NewResourceHandler(policy.Jobs, serviceManager.Job(), logger, pages, "title", "description", "location", "salary_range"),
			policy.Applications:    NewResourceHandler(policy.Applications, serviceManager.Application(), logger, pages, "cover_letter"),
		},
	}
	if sessions := serviceManager.PeerSession(); sessions != nil {
		hm.peerSessionHandler = NewPeerSessionHandler(sessions, logger, pages)
	}
	return hm
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, withMetrics bool) {
	router.GET("/health", hm.healthCheck)
	if withMetrics {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")

	// Public routes
	public := v1.Group("/auth")
	public.Use(RateLimitMiddleware(hm.limits.Store, "auth", hm.limits.Anonymous, hm.logger))
	{
		public.POST("/register", hm.authHandler.Register)
		public.POST("/verify-email", hm.authHandler.VerifyEmail)
		public.POST("/login", hm.authHandler.Login)
		public.POST("/resend-otp", hm.authHandler.ResendOTP)
		public.POST("/password/reset", hm.authHandler.RequestPasswordReset)
		public.POST("/password/reset/confirm", hm.authHandler.ConfirmPasswordReset)
	}
	v1.GET("/public/certifications/:code", hm.authMiddleware.Optional(), hm.certificationHandler.Verify)

	// Authenticated routes
	api := v1.Group("")
	api.Use(hm.authMiddleware.Authenticate())

	account := api.Group("/auth")
	{
		account.POST("/password/change", RateLimitMiddleware(hm.limits.Store, "password-change", hm.limits.User, hm.logger), hm.authHandler.ChangePassword)
		account.GET("/user", hm.userHandler.Me)
		account.PATCH("/user", hm.userHandler.UpdateMe)
	}

	users := api.Group("/auth/users")
	users.Use(hm.authMiddleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", hm.userHandler.ListUsers)
		users.GET("/:id", hm.userHandler.GetUser)
		users.PATCH("/:id/role", hm.userHandler.UpdateRole)
		users.PATCH("/:id/status", hm.userHandler.UpdateStatus)
		users.DELETE("/:id", hm.userHandler.DeleteUser)
	}

	api.GET("/admin/dashboard", hm.authMiddleware.RequireRoles(models.RoleAdmin), hm.dashboardHandler.GetDashboard)

	if hm.certificationHandler.exports != nil {
		api.GET("/certifications/export", hm.certificationHandler.ExportCertifications)
		api.GET("/courses/:id/enrollments/export", hm.certificationHandler.ExportCourseEnrollments)
	}
	api.GET("/discussions/:id/replies", hm.communityHandler.Thread)

	for resource, handler := range hm.resources {
		handler.Register(api.Group("/" + resource))
	}

	if hm.peerSessionHandler != nil {
		hm.peerSessionHandler.Register(api.Group("/" + policy.PeerSessions))
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		utils.GetLogger(c, hm.authHandler.logger).Error("Health check failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
