package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the access token claims. Role is informational; authorization
// always reloads the user.
type Claims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses HS256 access tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed access token for user and its expiry
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates signature, issuer and expiry and returns the user id
func (m *TokenManager) Parse(token string) (uint, *Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), claims, nil
}

// LocalResolver resolves tokens issued by this service
type LocalResolver struct {
	tokens *TokenManager
	users  repositories.UserRepository
}

var _ repositories.IdentityResolver = (*LocalResolver)(nil)

func NewLocalResolver(tokens *TokenManager, users repositories.UserRepository) *LocalResolver {
	return &LocalResolver{tokens: tokens, users: users}
}

// Resolve parses token and loads its user fresh from the store
func (r *LocalResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	id, _, err := r.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return nil, err
	}
	return user, nil
}
