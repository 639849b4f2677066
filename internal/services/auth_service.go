package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/mail"
	"github.com/SAP-F-2025/elearning-service/internal/metrics"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

const minPasswordLength = 6

// AuthDeps are the collaborators of the account flows
type AuthDeps struct {
	OTP       auth.OTPStore
	Mail      mail.Sender
	Tokens    *auth.TokenManager
	Events    events.Publisher
	OTPConfig config.OTPConfig
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	deps      AuthDeps
	now       func() time.Time
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps AuthDeps) AuthService {
	if deps.OTPConfig.Length <= 0 {
		deps.OTPConfig.Length = 6
	}
	if deps.OTPConfig.TTL <= 0 {
		deps.OTPConfig.TTL = 15 * time.Minute
	}
	return &authService{
		repo:      repo,
		logger:    logger.With("component", "auth"),
		validator: validator,
		deps:      deps,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func errPasswordMismatch() error {
	return badRequest("PASSWORD_MISMATCH", "Passwords do not match")
}

func errInvalidOTP() error {
	return badRequest("INVALID_OTP", "Invalid or expired OTP")
}

func checkStrength(password string) error {
	if len(password) < minPasswordLength {
		return badRequest("PASSWORD_TOO_SHORT", "Password must be at least 6 characters long")
	}
	if !auth.PasswordStrong(password) {
		return badRequest("WEAK_PASSWORD", "Password must contain both letters and numbers")
	}
	return nil
}

// sendOTP stores a fresh code for email and mails it
func (s *authService) sendOTP(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	code, err := auth.GenerateDigits(s.deps.OTPConfig.Length)
	if err != nil {
		return err
	}
	if err := s.deps.OTP.Save(ctx, user.Email, purpose, code, s.deps.OTPConfig.TTL); err != nil {
		return err
	}

	msg := mail.VerificationMessage(user.Email, user.FirstName, code, s.deps.OTPConfig.TTL)
	if purpose == models.OTPPasswordReset {
		msg = mail.PasswordResetMessage(user.Email, user.FirstName, code, s.deps.OTPConfig.TTL)
	}
	err = s.deps.Mail.Send(ctx, msg)
	metrics.RecordEmail(string(purpose), err == nil)
	return err
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Password != req.Password2 {
		return nil, errPasswordMismatch()
	}
	if err := checkStrength(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.User().GetByEmail(ctx, nil, req.Email); err == nil {
		return nil, badRequest("EMAIL_EXISTS", "A user with this email already exists")
	} else if !repositories.IsNotFoundError(err) {
		return nil, dbError("get user by email", err)
	}
	if _, err := s.repo.User().GetByUsername(ctx, nil, req.Username); err == nil {
		return nil, badRequest("USERNAME_EXISTS", "This username is already in use")
	} else if !repositories.IsNotFoundError(err) {
		return nil, dbError("get user by username", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		metrics.RecordAuth("register", false)
		switch {
		case repositories.DuplicateOn(err, "email"):
			return nil, badRequest("EMAIL_EXISTS", "A user with this email already exists")
		case repositories.DuplicateOn(err, "username"):
			return nil, badRequest("USERNAME_EXISTS", "This username is already in use")
		}
		return nil, dbError("create user", err)
	}

	if err := s.sendOTP(ctx, user, models.OTPVerification); err != nil {
		s.logger.Error("Failed to send verification code", "email", user.Email, "error", err)
		if delErr := s.repo.User().Delete(ctx, nil, user.ID); delErr != nil {
			s.logger.Error("Failed to remove user after OTP failure", "user_id", user.ID, "error", delErr)
		}
		metrics.RecordAuth("register", false)
		return nil, NewAppError(http.StatusInternalServerError, "OTP_SEND_FAILED", "Failed to send verification code")
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	metrics.RecordAuth("register", true)
	publish(ctx, s.deps.Events, s.logger, events.TopicUserRegistered, events.UserRegistered{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FirstName,
	})
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, errInvalidOTP()
		}
		return nil, dbError("get user by email", err)
	}
	if user.IsVerified {
		return nil, badRequest("ALREADY_VERIFIED", "User is already verified")
	}

	ok, err := s.deps.OTP.Consume(ctx, user.Email, models.OTPVerification, req.OTP)
	if err != nil {
		return nil, dbError("consume otp", err)
	}
	if !ok {
		metrics.RecordAuth("verify", false)
		return nil, errInvalidOTP()
	}

	if err := s.repo.User().Update(ctx, nil, user.ID, map[string]interface{}{"is_verified": true}); err != nil {
		return nil, dbError("verify user", err)
	}
	user.IsVerified = true

	s.logger.Info("User verified", "user_id", user.ID)
	metrics.RecordAuth("verify", true)
	publish(ctx, s.deps.Events, s.logger, events.TopicUserVerified, events.UserRegistered{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FirstName,
	})
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, badRequest("MISSING_CREDENTIALS", "Email and password are required")
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, dbError("get user by email", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Authentication failed", "email", email)
		metrics.RecordAuth("login", false)
		return nil, badRequest("INVALID_CREDENTIALS", "Invalid email or password")
	}
	if !user.IsVerified {
		metrics.RecordAuth("login", false)
		return nil, badRequest("UNVERIFIED_ACCOUNT", "Account is not verified")
	}
	if !user.IsActive {
		metrics.RecordAuth("login", false)
		return nil, badRequest("INACTIVE_ACCOUNT", "Account is deactivated")
	}

	token, expiresAt, err := s.deps.Tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return nil, NewAppError(http.StatusInternalServerError, "TOKEN_GENERATION_ERROR", "Failed to generate authentication tokens")
	}

	now := s.now()
	if err := s.repo.User().UpdateLastLogin(ctx, nil, user.ID, now); err != nil {
		s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	s.logger.Info("User logged in", "user_id", user.ID)
	metrics.RecordAuth("login", true)
	return &models.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// lookup finds the account of email, answering EMAIL_NOT_FOUND when there is none
func (s *authService) lookup(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewAppError(http.StatusNotFound, "EMAIL_NOT_FOUND", "No account found with this email")
		}
		return nil, dbError("get user by email", err)
	}
	return user, nil
}

func (s *authService) ResendOTP(ctx context.Context, req *models.ResendOTPRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return badRequest("ALREADY_VERIFIED", "User is already verified")
	}
	if err := s.sendOTP(ctx, user, models.OTPVerification); err != nil {
		s.logger.Error("Failed to resend verification code", "email", user.Email, "error", err)
		return NewAppError(http.StatusInternalServerError, "OTP_SEND_FAILED", "Failed to send verification code")
	}
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.sendOTP(ctx, user, models.OTPPasswordReset); err != nil {
		s.logger.Error("Failed to send password reset code", "email", user.Email, "error", err)
		return NewAppError(http.StatusInternalServerError, "OTP_SEND_FAILED", "Failed to send password reset code")
	}
	s.logger.Info("Password reset requested", "user_id", user.ID)
	return nil
}

func (s *authService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.User().Update(ctx, nil, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return dbError("update password", err)
	}
	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, req *models.PasswordResetConfirmRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, badRequest("PASSWORD_MISMATCH", "New passwords do not match")
	}
	if err := checkStrength(req.NewPassword); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, errInvalidOTP()
		}
		return nil, dbError("get user by email", err)
	}
	ok, err := s.deps.OTP.Consume(ctx, user.Email, models.OTPPasswordReset, req.OTP)
	if err != nil {
		return nil, dbError("consume otp", err)
	}
	if !ok {
		metrics.RecordAuth("password_reset", false)
		return nil, errInvalidOTP()
	}

	if err := s.setPassword(ctx, user, req.NewPassword); err != nil {
		return nil, err
	}
	s.logger.Info("Password reset", "user_id", user.ID)
	metrics.RecordAuth("password_reset", true)
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor *policy.Actor, req *models.ChangePasswordRequest) (*models.User, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, nil, actor.ID)
	if err != nil {
		return nil, storeError(policy.Users, actor.ID, "get user", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		return nil, badRequest("INVALID_OLD_PASSWORD", "Invalid old password")
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, badRequest("PASSWORD_MISMATCH", "New passwords do not match")
	}
	if req.NewPassword == req.OldPassword {
		return nil, badRequest("SAME_PASSWORD", "New password cannot be the same as the old password")
	}
	if err := checkStrength(req.NewPassword); err != nil {
		return nil, err
	}

	if err := s.setPassword(ctx, user, req.NewPassword); err != nil {
		return nil, err
	}
	s.logger.Info("Password changed", "user_id", user.ID)
	metrics.RecordAuth("password_change", true)
	return user, nil
}
