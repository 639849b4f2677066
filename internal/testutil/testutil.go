// Package testutil builds throwaway databases and redis servers for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/pkg"
)

// NewDB returns a migrated in-memory SQLite database private to t
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serialises writers the way a single sqlite file requires
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, pkg.AutoMigrate(db))
	return db
}

// NewRedis starts a miniredis server and returns a client for it
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// CreateUser inserts an active, verified user with role
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		FirstName:    username,
		LastName:     "Test",
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCourse inserts an active course taught by instructorID
func CreateCourse(t testing.TB, db *gorm.DB, title string, instructorID uint) *models.Course {
	t.Helper()

	course := &models.Course{
		Title:           title,
		InstructorID:    instructorID,
		DifficultyLevel: models.DifficultyBeginner,
		IsActive:        true,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}
