package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/mail"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/ratelimit"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/docstore"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

var otpPattern = regexp.MustCompile(`OTP: (\d+)`)

type apiFixture struct {
	handler http.Handler
	db      *gorm.DB
	outbox  *mail.Outbox
	tokens  *auth.TokenManager
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	return setupAPIWithLimits(t, RateLimits{})
}

func setupAPIWithLimits(t *testing.T, limits RateLimits) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	_, client := testutil.NewRedis(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	logger := slog.New(slog.DiscardHandler)

	f := &apiFixture{
		db:     db,
		outbox: mail.NewOutbox(nil),
		tokens: auth.NewTokenManager(config.JWTConfig{Secret: "test-secret", Issuer: "test", TTL: time.Hour}),
	}

	sm := services.NewDefaultServiceManager(services.Dependencies{
		Repo:      repo,
		Logger:    logger,
		Validator: validator.New(),
		Docs:      docstore.NewStore(client, "test"),
		Auth: services.AuthDeps{
			OTP:       auth.NewRedisOTPStore(client),
			Mail:      f.outbox,
			Tokens:    f.tokens,
			OTPConfig: config.OTPConfig{Length: 6, TTL: 10 * time.Minute},
		},
	})
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	SetupMiddleware(router, utils.NewSlogLogger(logger), false)
	hm := NewHandlerManager(sm, auth.NewLocalResolver(f.tokens, repo.User()), utils.NewSlogLogger(logger),
		config.PaginationConfig{DefaultPageSize: 2, MaxPageSize: 3}, limits)
	hm.SetupRoutes(router, false)

	f.handler = StripTrailingSlash(router)
	return f
}

func (f *apiFixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := f.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, w)["error_code"].(string)
	return code
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	f := setupAPI(t)

	w := f.do(t, http.MethodPost, "/api/v1/auth/register/", "", map[string]interface{}{
		"username":   "grace",
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      "Grace@Example.com",
		"password":   "cobol1959",
		"password2":  "cobol1959",
		"role":       "Admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Nil(t, body["error_code"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Student", data["role"])
	assert.Equal(t, "grace@example.com", data["email"])

	msg, ok := f.outbox.Last("grace@example.com")
	require.True(t, ok)
	otp := otpPattern.FindStringSubmatch(msg.Text)
	require.Len(t, otp, 2)

	w = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "grace@example.com", "password": "cobol1959"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNVERIFIED_ACCOUNT", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/auth/verify-email", "", map[string]string{"email": "grace@example.com", "otp": "12ab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_OTP", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/auth/verify-email", "", map[string]string{"email": "grace@example.com", "otp": otp[1]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "grace@example.com", "password": "cobol1959"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["data"].(map[string]interface{})["access_token"].(string)

	w = f.do(t, http.MethodGet, "/api/v1/auth/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "grace", decode(t, w)["username"])
}

func TestAuthentication(t *testing.T) {
	f := setupAPI(t)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "NOT_AUTHENTICATED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCodeOf(t, w))
		})
	}

	student := testutil.CreateUser(t, f.db, "student", models.RoleStudent)
	w := f.do(t, http.MethodGet, "/api/v1/auth/users", f.token(t, student), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_ROLE", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/admin/dashboard", f.token(t, student), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCourseEndpoints(t *testing.T) {
	f := setupAPI(t)
	owner := testutil.CreateUser(t, f.db, "owner", models.RoleInstructor)
	other := testutil.CreateUser(t, f.db, "other", models.RoleInstructor)
	ownerToken, otherToken := f.token(t, owner), f.token(t, other)

	w := f.do(t, http.MethodPost, "/api/v1/courses", ownerToken, map[string]interface{}{"title": "  Go Basics  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Course created successfully", body["message"])
	course := body["data"].(map[string]interface{})
	assert.Equal(t, "Go Basics", course["title"])
	id := int(course["id"].(float64))

	w = f.do(t, http.MethodPost, "/api/v1/courses", ownerToken, map[string]interface{}{"title": "<script>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/courses", ownerToken, map[string]interface{}{"title": "Go Basics"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_COURSE_TITLE", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/courses", ownerToken, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCodeOf(t, w))

	w = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d/", id), otherToken, map[string]interface{}{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", errorCodeOf(t, w))

	w = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", id), ownerToken, map[string]interface{}{"title": "Go Fundamentals"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Go Fundamentals", decode(t, w)["data"].(map[string]interface{})["title"])

	w = f.do(t, http.MethodGet, "/api/v1/courses/abc", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COURSE_ID", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/courses/9999", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COURSE_NOT_FOUND", errorCodeOf(t, w))

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", id), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", id), ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListPagination(t *testing.T) {
	f := setupAPI(t)
	instructor := testutil.CreateUser(t, f.db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "student", models.RoleStudent)
	for i := 0; i < 5; i++ {
		testutil.CreateCourse(t, f.db, fmt.Sprintf("Course %d", i), instructor.ID)
	}
	token := f.token(t, student)

	w := f.do(t, http.MethodGet, "/api/v1/courses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(5), page["count"])
	assert.Equal(t, float64(3), page["num_pages"])
	assert.Len(t, page["results"], 2)
	assert.Equal(t, true, page["has_next"])
	assert.Equal(t, "Items 1-2 of 5", page["item_range"])

	w = f.do(t, http.MethodGet, "/api/v1/courses?page_size=50&page=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode(t, w)
	assert.Equal(t, float64(3), page["page_size"])
	assert.Len(t, page["results"], 2)

	w = f.do(t, http.MethodGet, "/api/v1/courses?page_size=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PAGINATION", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/courses?page=9", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "INVALID_PAGE", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/courses?instructor_id=%d&page_size=3", instructor.ID+100), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestPeerSessionEndpoints(t *testing.T) {
	f := setupAPI(t)
	mentor := testutil.CreateUser(t, f.db, "mentor", models.RoleMentor)
	student := testutil.CreateUser(t, f.db, "student", models.RoleStudent)
	mentorToken, studentToken := f.token(t, mentor), f.token(t, student)

	session := map[string]interface{}{
		"title":            "Algorithms circle",
		"scheduled_at":     time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"duration_minutes": 45,
		"max_participants": 1,
	}
	w := f.do(t, http.MethodPost, "/api/v1/peer-sessions", studentToken, session)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_ROLE", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/peer-sessions", mentorToken, session)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)

	w = f.do(t, http.MethodPost, "/api/v1/peer-sessions/"+id+"/join", studentToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/peer-sessions/"+id+"/join", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SESSION_FULL", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/peer-sessions/mine", mentorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/v1/peer-sessions/"+id+"/participants", mentorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = f.do(t, http.MethodDelete, "/api/v1/peer-sessions/"+id+"/leave", studentToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/peer-sessions/"+id, studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/peer-sessions/missing", mentorToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PEER_SESSION_NOT_FOUND", errorCodeOf(t, w))
}

func TestPublicAndHealth(t *testing.T) {
	f := setupAPI(t)

	w := f.do(t, http.MethodGet, "/api/v1/public/certifications/123", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_VERIFICATION_CODE", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/public/certifications/0123456789", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CERTIFICATION_NOT_FOUND", errorCodeOf(t, w))

	w = f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestCertificateVerifyViews(t *testing.T) {
	f := setupAPI(t)

	instructor := testutil.CreateUser(t, f.db, "teacher", models.RoleInstructor)
	holder := testutil.CreateUser(t, f.db, "holder", models.RoleStudent)
	other := testutil.CreateUser(t, f.db, "other", models.RoleStudent)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleAdmin)
	course := testutil.CreateCourse(t, f.db, "Go", instructor.ID)
	require.NoError(t, f.db.Create(&models.Certification{
		UserID:           holder.ID,
		CourseID:         course.ID,
		CertificateType:  models.CertificateCompletion,
		Title:            "Go basics",
		Description:      "Completed",
		VerificationCode: "1234567890",
		IsVerified:       true,
	}).Error)

	tests := []struct {
		name string
		user *models.User
		full bool
	}{
		{"anonymous", nil, false},
		{"unrelated student", other, false},
		{"holder", holder, true},
		{"course instructor", instructor, true},
		{"admin", admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.user != nil {
				token = f.token(t, tt.user)
			}
			w := f.do(t, http.MethodGet, "/api/v1/public/certifications/1234567890", token, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode(t, w)
			if tt.full {
				assert.Equal(t, float64(holder.ID), body["user_id"])
				assert.Nil(t, body["holder_name"])
			} else {
				assert.Nil(t, body["user_id"])
				assert.Equal(t, "Go", body["course_title"])
				assert.NotEmpty(t, body["holder_name"])
			}
		})
	}

	// A bad token falls back to the public view
	w := f.do(t, http.MethodGet, "/api/v1/public/certifications/1234567890", "not-a-jwt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user_id"])
}

func TestAuthRateLimits(t *testing.T) {
	f := setupAPIWithLimits(t, RateLimits{
		Store:     ratelimit.NewMemoryStore(),
		Anonymous: ratelimit.Rule{Limit: 3, Window: time.Hour},
		User:      ratelimit.Rule{Limit: 2, Window: time.Hour},
	})

	login := map[string]string{"email": "nobody@example.com", "password": "wrong-password"}
	for i := 0; i < 3; i++ {
		w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
		assert.NotEqual(t, http.StatusTooManyRequests, w.Code, "request %d", i+1)
	}

	// The anonymous budget is shared by every public auth endpoint
	w := f.do(t, http.MethodPost, "/api/v1/auth/verify-email", "", map[string]string{"email": "nobody@example.com", "otp": "123456"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "THROTTLED", errorCodeOf(t, w))
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, decode(t, w)["message"], "Expected available in 3600 seconds")

	// Other clients keep their own window
	raw, err := json.Marshal(login)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:4321"
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))

	// Outside the public group only the per-user rule applies
	alice := testutil.CreateUser(t, f.db, "alice", models.RoleStudent)
	bob := testutil.CreateUser(t, f.db, "bob", models.RoleStudent)
	change := map[string]string{"old_password": "wrong", "new_password": "another-one-1", "new_password2": "another-one-1"}
	for i := 0; i < 2; i++ {
		w = f.do(t, http.MethodPost, "/api/v1/auth/password/change", f.token(t, alice), change)
		assert.NotEqual(t, http.StatusTooManyRequests, w.Code, "request %d", i+1)
	}
	w = f.do(t, http.MethodPost, "/api/v1/auth/password/change", f.token(t, alice), change)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "THROTTLED", errorCodeOf(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/auth/password/change", f.token(t, bob), change)
	assert.NotEqual(t, http.StatusTooManyRequests, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/auth/user", f.token(t, alice), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"courses":           "Course",
		"user-assessments":  "User assessment",
		"course-categories": "Category",
		"peer-sessions":     "Peer session",
	}
	for resource, want := range tests {
		assert.Equal(t, want, Label(resource), resource)
	}
}
