package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/mail"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

var otpPattern = regexp.MustCompile(`OTP: (\d+)`)

type authFixture struct {
	svc    AuthService
	repo   repositories.Repository
	outbox *mail.Outbox
	tokens *auth.TokenManager
	bus    *recorder
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()
	_, repo := newTestRepo(t)
	_, client := testutil.NewRedis(t)

	f := &authFixture{
		repo:   repo,
		outbox: mail.NewOutbox(nil),
		tokens: auth.NewTokenManager(config.JWTConfig{Secret: "test-secret", Issuer: "test", TTL: time.Hour}),
		bus:    &recorder{},
	}
	f.svc = NewAuthService(repo, testLogger, newTestValidator(), AuthDeps{
		OTP:       auth.NewRedisOTPStore(client),
		Mail:      f.outbox,
		Tokens:    f.tokens,
		Events:    f.bus,
		OTPConfig: config.OTPConfig{Length: 6, TTL: 10 * time.Minute},
	})
	return f
}

// otp returns the last code mailed to address
func (f *authFixture) otp(t *testing.T, address string) string {
	t.Helper()
	msg, ok := f.outbox.Last(address)
	require.True(t, ok, "no mail to %s", address)
	m := otpPattern.FindStringSubmatch(msg.Text)
	require.Len(t, m, 2)
	return m[1]
}

func wrong(code string) string {
	b := []byte(code)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}

func registration(username, email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "secret123",
		Password2: "secret123",
		Role:      "Admin",
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	f := setupAuth(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, registration("ada", " Ada@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.IsVerified)

	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	assert.Equal(t, "UNVERIFIED_ACCOUNT", errorCode(t, err))

	code := f.otp(t, "ada@example.com")
	assert.Len(t, code, 6)

	_, err = f.svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "ada@example.com", OTP: wrong(code)})
	assert.Equal(t, "INVALID_OTP", errorCode(t, err))

	verified, err := f.svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "ada@example.com", OTP: code})
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Equal(t, []string{events.TopicUserRegistered, events.TopicUserVerified}, f.bus.topics())

	_, err = f.svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "ada@example.com", OTP: code})
	assert.Equal(t, "ALREADY_VERIFIED", errorCode(t, err))

	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "wrong123"})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "", Password: ""})
	assert.Equal(t, "MISSING_CREDENTIALS", errorCode(t, err))

	resp, err := f.svc.Login(ctx, &models.LoginRequest{Email: "ADA@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.NotNil(t, resp.User.LastLogin)

	id, _, err := f.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRegisterRejects(t *testing.T) {
	f := setupAuth(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registration("ada", "ada@example.com"))
	require.NoError(t, err)

	mismatch := registration("bob", "bob@example.com")
	mismatch.Password2 = "secret124"
	weak := registration("carol", "carol@example.com")
	weak.Password, weak.Password2 = "abcdefgh", "abcdefgh"

	tests := []struct {
		name string
		req  *models.RegisterRequest
		want string
	}{
		{"email taken", registration("ada2", "ADA@example.com"), "EMAIL_EXISTS"},
		{"username taken", registration("ada", "other@example.com"), "USERNAME_EXISTS"},
		{"mismatch", mismatch, "PASSWORD_MISMATCH"},
		{"weak", weak, "WEAK_PASSWORD"},
		{"bad email", registration("dave", "not-an-email"), "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.req)
			assert.Equal(t, tt.want, errorCode(t, err))
		})
	}
}

func TestRegisterMailFailure(t *testing.T) {
	f := setupAuth(t)
	ctx := context.Background()
	f.outbox.Fail = errors.New("mail down")

	_, err := f.svc.Register(ctx, registration("ada", "ada@example.com"))
	assert.Equal(t, "OTP_SEND_FAILED", errorCode(t, err))

	_, err = f.repo.User().GetByEmail(ctx, nil, "ada@example.com")
	assert.True(t, repositories.IsNotFoundError(err))
	assert.Empty(t, f.bus.topics())
}

func TestPasswordReset(t *testing.T) {
	f := setupAuth(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registration("ada", "ada@example.com"))
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "ada@example.com", OTP: f.otp(t, "ada@example.com")})
	require.NoError(t, err)

	assert.Equal(t, "EMAIL_NOT_FOUND", errorCode(t, f.svc.RequestPasswordReset(ctx, &models.PasswordResetRequest{Email: "nobody@example.com"})))
	require.NoError(t, f.svc.RequestPasswordReset(ctx, &models.PasswordResetRequest{Email: "ada@example.com"}))
	code := f.otp(t, "ada@example.com")

	_, err = f.svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{
		Email: "ada@example.com", OTP: code, NewPassword: "newpass1", ConfirmPassword: "newpass2",
	})
	assert.Equal(t, "PASSWORD_MISMATCH", errorCode(t, err))

	_, err = f.svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{
		Email: "ada@example.com", OTP: code, NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{
		Email: "ada@example.com", OTP: code, NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	assert.Equal(t, "INVALID_OTP", errorCode(t, err))

	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "newpass1"})
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := setupAuth(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, registration("ada", "ada@example.com"))
	require.NoError(t, err)
	user, err = f.svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "ada@example.com", OTP: f.otp(t, "ada@example.com")})
	require.NoError(t, err)
	actor := actorOf(user)

	tests := []struct {
		name string
		req  *models.ChangePasswordRequest
		want string
	}{
		{"wrong old", &models.ChangePasswordRequest{OldPassword: "nope1234", NewPassword: "fresh123", ConfirmPassword: "fresh123"}, "INVALID_OLD_PASSWORD"},
		{"mismatch", &models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "fresh123", ConfirmPassword: "fresh124"}, "PASSWORD_MISMATCH"},
		{"same", &models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "secret123", ConfirmPassword: "secret123"}, "SAME_PASSWORD"},
		{"short", &models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "a1", ConfirmPassword: "a1"}, "PASSWORD_TOO_SHORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ChangePassword(ctx, actor, tt.req)
			assert.Equal(t, tt.want, errorCode(t, err))
		})
	}

	_, err = f.svc.ChangePassword(ctx, actor, &models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "fresh123", ConfirmPassword: "fresh123"})
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "fresh123"})
	require.NoError(t, err)
}
