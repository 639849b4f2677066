package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

var ErrInvalidToken = errors.New("invalid casdoor token")

// TokenParser verifies a Casdoor access token. *casdoorsdk.Client implements it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// UserCasdoor resolves Casdoor tokens to local accounts, provisioning them on
// first sight
type UserCasdoor struct {
	parser TokenParser
	users  repositories.UserRepository
	cache  *cache.CacheHelper
}

var _ repositories.IdentityResolver = (*UserCasdoor)(nil)

func NewClient(cfg config.CasdoorConfig) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
}

func NewUserCasdoor(parser TokenParser, users repositories.UserRepository, cm *cache.CacheManager) *UserCasdoor {
	return &UserCasdoor{
		parser: parser,
		users:  users,
		cache:  cm.User,
	}
}

func casdoorKey(casdoorID string) string {
	return "casdoor:" + casdoorID
}

// Resolve verifies token and returns the matching local user
func (u *UserCasdoor) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := u.parser.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.User.Id == "" || claims.User.Email == "" {
		return nil, fmt.Errorf("%w: missing user id or email", ErrInvalidToken)
	}

	var user models.User
	err = u.cache.CacheOrExecute(ctx, casdoorKey(claims.User.Id), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		return u.findOrProvision(ctx, &claims.User)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserCasdoor) findOrProvision(ctx context.Context, casdoorUser *casdoorsdk.User) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(casdoorUser.Email))

	existing, err := u.users.GetByEmail(ctx, nil, email)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	user := u.convertCasdoorUserToModel(casdoorUser)
	created, err := u.users.CreateUnique(ctx, nil, user, "email")
	if err != nil && repositories.DuplicateOn(err, "username") {
		// Casdoor names are unique per organization only
		user.Username = user.Username + "-" + shortID(casdoorUser.Id)
		created, err = u.users.CreateUnique(ctx, nil, user, "email")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to provision casdoor user: %w", err)
	}
	if !created {
		// Provisioned concurrently by another request
		return u.users.GetByEmail(ctx, nil, email)
	}
	return user, nil
}

// convertCasdoorUserToModel converts Casdoor user to internal model
func (u *UserCasdoor) convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	firstName, lastName := casdoorUser.FirstName, casdoorUser.LastName
	if firstName == "" && lastName == "" {
		parts := strings.Fields(casdoorUser.DisplayName)
		if len(parts) > 0 {
			firstName = parts[0]
			lastName = strings.Join(parts[1:], " ")
		}
	}
	if firstName == "" {
		firstName = casdoorUser.Name
	}

	username := casdoorUser.Name
	if username == "" {
		username = strings.Split(casdoorUser.Email, "@")[0]
	}

	return &models.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(strings.TrimSpace(casdoorUser.Email)),
		PasswordHash: "!",
		Role:         convertCasdoorRolesToModel(casdoorUser),
		IsActive:     !casdoorUser.IsForbidden,
		IsVerified:   true,
		IsStaff:      casdoorUser.IsAdmin,
	}
}

// convertCasdoorRolesToModel picks the primary role. Admin wins over any other role.
func convertCasdoorRolesToModel(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		if casdoorRole == nil {
			continue
		}
		if role, ok := mapSingleCasdoorRole(casdoorRole.Name); ok && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}

	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	if len(roles) > 0 {
		return roles[0]
	}
	if role, ok := mapSingleCasdoorRole(casdoorUser.Type); ok {
		return role
	}
	return models.RoleStudent
}

func mapSingleCasdoorRole(name string) (models.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "administrator":
		return models.RoleAdmin, true
	case "teacher", "educator":
		return models.RoleInstructor, true
	case "learner":
		return models.RoleStudent, true
	case "ngo", "partner":
		return models.RoleNGOPartner, true
	}
	return models.ParseRole(name)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
