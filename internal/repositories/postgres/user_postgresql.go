package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

type UserPostgreSQL struct {
	*CRUDPostgreSQL[models.User]
}

// NewUserPostgreSQL builds the user store. Users are never cached since the
// cached JSON form drops the password hash.
func NewUserPostgreSQL(db *gorm.DB) *UserPostgreSQL {
	return &UserPostgreSQL{
		CRUDPostgreSQL: NewCRUDPostgreSQL[models.User](db, CRUDOptions{
			Resource:     policy.Users,
			Preloads:     []string{"Profile"},
			Scoper:       scopeUsers,
			DefaultOrder: "id ASC",
			Filterable:   []string{"role", "is_active", "is_verified"},
		}),
	}
}

func (r *UserPostgreSQL) getBy(ctx context.Context, tx *gorm.DB, column, value string) (*models.User, error) {
	var user models.User
	err := r.withPreloads(r.getDB(tx).WithContext(ctx)).
		Where(column+" = ?", value).
		First(&user).Error
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("user %s: %w", value, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	return r.getBy(ctx, tx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserPostgreSQL) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	return r.getBy(ctx, tx, "username", strings.TrimSpace(username))
}

func (r *UserPostgreSQL) UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) CountByRole(ctx context.Context, tx *gorm.DB) (map[models.UserRole]int64, error) {
	var rows []struct {
		Role  models.UserRole
		Count int64
	}
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}

	counts := make(map[models.UserRole]int64, len(models.AllRoles))
	for _, role := range models.AllRoles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

type profilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &profilePostgreSQL{db: db}
}

func (r *profilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *profilePostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("profile of user %d: %w", userID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Upsert writes the profile keyed by user_id
func (r *profilePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bio", "phone_number", "date_of_birth", "language_preference",
				"gender", "education_level", "camp", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
