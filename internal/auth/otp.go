package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// OTPStore keeps at most one live passcode per email and purpose
type OTPStore interface {
	Save(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error
	// Consume reports whether code is the live passcode and deletes it when it is
	Consume(ctx context.Context, email string, purpose models.OTPPurpose, code string) (bool, error)
}

// DefaultMaxAttempts is how many wrong guesses a passcode survives
const DefaultMaxAttempts = 5

type otpOptions struct {
	maxAttempts int
}

type OTPOption func(*otpOptions)

// WithMaxAttempts deletes a passcode after n wrong guesses. Zero or less disables the limit.
func WithMaxAttempts(n int) OTPOption {
	return func(o *otpOptions) { o.maxAttempts = n }
}

func buildOTPOptions(opts []OTPOption) otpOptions {
	o := otpOptions{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Both keys share a hash tag so the consume script stays on one slot
func otpKeys(email string, purpose models.OTPPurpose) (code, attempts string) {
	code = fmt.Sprintf("otp:{%s:%s}", purpose, email)
	return code, code + ":attempts"
}

// KEYS[1] code, KEYS[2] miss counter. ARGV[1] guess, ARGV[2] max misses.
// Returns 1 when the guess matched and the code was consumed.
var consumeScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
  return 0
end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1], KEYS[2])
  return 1
end
local max = tonumber(ARGV[2])
if max > 0 then
  local misses = redis.call('INCR', KEYS[2])
  if misses >= max then
    redis.call('DEL', KEYS[1], KEYS[2])
  else
    local ttl = redis.call('PTTL', KEYS[1])
    if ttl > 0 then
      redis.call('PEXPIRE', KEYS[2], ttl)
    end
  end
end
return 0
`)

type RedisOTPStore struct {
	client      *redis.Client
	maxAttempts int
}

func NewRedisOTPStore(client *redis.Client, opts ...OTPOption) *RedisOTPStore {
	o := buildOTPOptions(opts)
	return &RedisOTPStore{client: client, maxAttempts: o.maxAttempts}
}

func (s *RedisOTPStore) Save(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	codeKey, attemptsKey := otpKeys(email, purpose)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey, code, ttl)
		pipe.Del(ctx, attemptsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, email string, purpose models.OTPPurpose, code string) (bool, error) {
	codeKey, attemptsKey := otpKeys(email, purpose)
	n, err := consumeScript.Run(ctx, s.client, []string{codeKey, attemptsKey}, code, s.maxAttempts).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	return n == 1, nil
}

// GormOTPStore keeps passcodes in the one_time_passwords table
type GormOTPStore struct {
	db          *gorm.DB
	now         func() time.Time
	maxAttempts int
}

func NewGormOTPStore(db *gorm.DB, opts ...OTPOption) *GormOTPStore {
	o := buildOTPOptions(opts)
	return &GormOTPStore{db: db, now: time.Now, maxAttempts: o.maxAttempts}
}

func (s *GormOTPStore) Save(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	otp := models.OneTimePassword{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: s.now().Add(ttl),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "attempts", "expires_at", "created_at"}),
	}).Create(&otp).Error
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *GormOTPStore) Consume(ctx context.Context, email string, purpose models.OTPPurpose, code string) (bool, error) {
	var otp models.OneTimePassword
	err := s.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load otp: %w", err)
	}

	if s.now().After(otp.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&otp)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return false, s.recordMiss(ctx, otp)
	}

	// Affected rows guard against a concurrent consume
	result := s.db.WithContext(ctx).Where("id = ? AND code = ?", otp.ID, otp.Code).Delete(&models.OneTimePassword{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete otp: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormOTPStore) recordMiss(ctx context.Context, otp models.OneTimePassword) error {
	if s.maxAttempts <= 0 {
		return nil
	}
	db := s.db.WithContext(ctx)
	if otp.Attempts+1 >= s.maxAttempts {
		if err := db.Where("id = ? AND code = ?", otp.ID, otp.Code).Delete(&models.OneTimePassword{}).Error; err != nil {
			return fmt.Errorf("failed to delete otp: %w", err)
		}
		return nil
	}
	err := db.Model(&models.OneTimePassword{}).
		Where("id = ? AND code = ?", otp.ID, otp.Code).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to record otp attempt: %w", err)
	}
	return nil
}
