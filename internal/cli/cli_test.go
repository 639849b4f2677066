package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

func run(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()

	open := func() (*gorm.DB, func(), error) { return db, func() {}, nil }
	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	db := testutil.NewDB(t)

	out, err := run(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")
	assert.True(t, db.Migrator().HasTable(&models.Course{}))
}

func TestCreateUser(t *testing.T) {
	db := testutil.NewDB(t)

	out, err := run(t, db, "create-user",
		"--username", "root",
		"--email", " Root@Example.com ",
		"--password", "s3cretpass",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "created Admin user root@example.com")

	var user models.User
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&user).Error)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsVerified)
	assert.True(t, user.IsStaff)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "s3cretpass"))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "duplicate email",
			args:    []string{"--username", "other", "--email", "root@example.com", "--password", "s3cretpass"},
			wantErr: "already exists",
		},
		{
			name:    "unknown role",
			args:    []string{"--username", "other", "--email", "other@example.com", "--password", "s3cretpass", "--role", "wizard"},
			wantErr: "invalid role",
		},
		{
			name:    "short password",
			args:    []string{"--username", "other", "--email", "other@example.com", "--password", "short"},
			wantErr: "validation failed",
		},
		{
			name:    "missing email",
			args:    []string{"--username", "other", "--password", "s3cretpass"},
			wantErr: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, db, append([]string{"create-user"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateUserLenientRole(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := run(t, db, "create-user",
		"--username", "partner",
		"--email", "partner@example.com",
		"--password", "s3cretpass",
		"--role", "ngo partner",
	)
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("username = ?", "partner").First(&user).Error)
	assert.Equal(t, models.RoleNGOPartner, user.Role)
	assert.False(t, user.IsStaff)
}

func TestVerifyUser(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "pending", models.RoleStudent)
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{"is_verified": false, "is_active": false}).Error)

	out, err := run(t, db, "verify-user", "pending@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "verified pending@example.com")

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.IsVerified)
	assert.True(t, reloaded.IsActive)

	_, err = run(t, db, "verify-user", "ghost@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user with email")
}
