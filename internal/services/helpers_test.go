package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

var testLogger = slog.New(slog.DiscardHandler)

func newTestRepo(t *testing.T) (*gorm.DB, repositories.Repository) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
}

func newTestValidator() *validator.Validator {
	return validator.New()
}

func actorOf(u *models.User) *policy.Actor {
	return policy.ActorFromUser(u)
}

func ptr[T any](v T) *T {
	return &v
}

// errorCode extracts the client-facing code of a service error
func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)

	var (
		appErr *AppError
		dupErr *DuplicateError
		nfErr  *NotFoundError
		polErr *policy.Violation
		valErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &polErr):
		return polErr.Code
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.As(err, &dupErr):
		return dupErr.Code
	case errors.As(err, &nfErr):
		return nfErr.Code()
	case errors.As(err, &valErr):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrDatabase):
		return "DATABASE_ERROR"
	}
	t.Fatalf("unexpected error type %T: %v", err, err)
	return ""
}

type published struct {
	topic string
	event any
}

// recorder is a Publisher that keeps every event
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, event: event})
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, len(r.events))
	for i, e := range r.events {
		topics[i] = e.topic
	}
	return topics
}
