package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

type fakeParser map[string]*casdoorsdk.Claims

func (f fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	claims, ok := f[token]
	if !ok {
		return nil, errors.New("bad signature")
	}
	return claims, nil
}

func claimsFor(id, name, email string, roles ...string) *casdoorsdk.Claims {
	user := casdoorsdk.User{Id: id, Name: name, Email: email, DisplayName: "Ada Lovelace"}
	for _, r := range roles {
		user.Roles = append(user.Roles, &casdoorsdk.Role{Name: r})
	}
	return &casdoorsdk.Claims{User: user}
}

func TestResolveProvisionsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	users := postgres.NewUserPostgreSQL(db)
	parser := fakeParser{
		"t1": claimsFor("c-1", "ada", "Ada@Example.com", "teacher"),
	}
	resolver := NewUserCasdoor(parser, users, cache.NewCacheManager(nil))
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, first.Role)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, "Ada", first.FirstName)
	assert.True(t, first.IsVerified)

	second, err := resolver.Resolve(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = resolver.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveUsernameClash(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada", models.RoleStudent)
	users := postgres.NewUserPostgreSQL(db)
	parser := fakeParser{"t": claimsFor("abcdef1234", "ada", "other@example.com")}

	user, err := NewUserCasdoor(parser, users, cache.NewCacheManager(nil)).Resolve(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "ada-abcdef12", user.Username)
}

func TestConvertCasdoorRoles(t *testing.T) {
	tests := []struct {
		name string
		user casdoorsdk.User
		want models.UserRole
	}{
		{"no roles", casdoorsdk.User{}, models.RoleStudent},
		{"admin flag", casdoorsdk.User{IsAdmin: true, Roles: []*casdoorsdk.Role{{Name: "student"}}}, models.RoleAdmin},
		{"admin among roles", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "mentor"}, {Name: "admin"}}}, models.RoleAdmin},
		{"first mapped role", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "unknown"}, {Name: "employer"}, {Name: "mentor"}}}, models.RoleEmployer},
		{"ngo partner spelling", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "ngo-partner"}}}, models.RoleNGOPartner},
		{"type fallback", casdoorsdk.User{Type: "educator"}, models.RoleInstructor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertCasdoorRolesToModel(&tt.user))
		})
	}
}
