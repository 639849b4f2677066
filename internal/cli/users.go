package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type createUserOptions struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Role      string `json:"role" validate:"required"`
}

// NewCreateUserCommand inserts an active, verified account with any role
func NewCreateUserCommand(open Opener) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a verified account, typically the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
			if err := validator.New().Validate(opts); err != nil {
				return err
			}
			role, ok := models.ParseRole(opts.Role)
			if !ok {
				return fmt.Errorf("invalid role %q", opts.Role)
			}

			db, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			users := postgres.NewUserPostgreSQL(db)

			if _, err := users.GetByEmail(cmd.Context(), nil, opts.Email); err == nil {
				return fmt.Errorf("user with email %s already exists", opts.Email)
			} else if !repositories.IsNotFoundError(err) {
				return err
			}

			hash, err := auth.HashPassword(opts.Password)
			if err != nil {
				return err
			}

			user := &models.User{
				Username:     opts.Username,
				FirstName:    opts.FirstName,
				LastName:     opts.LastName,
				Email:        opts.Email,
				PasswordHash: hash,
				Role:         role,
				IsActive:     true,
				IsVerified:   true,
				IsStaff:      role == models.RoleAdmin,
			}
			if err := users.Create(cmd.Context(), nil, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Username, "username", "", "unique username")
	flags.StringVar(&opts.Email, "email", "", "unique email address")
	flags.StringVar(&opts.Password, "password", "", "initial password")
	flags.StringVar(&opts.FirstName, "first-name", "Admin", "first name")
	flags.StringVar(&opts.LastName, "last-name", "User", "last name")
	flags.StringVar(&opts.Role, "role", string(models.RoleAdmin), "account role")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewVerifyUserCommand marks an account verified and active without an OTP
func NewVerifyUserCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-user <email>",
		Short: "Verify and activate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			users := postgres.NewUserPostgreSQL(db)

			user, err := users.GetByEmail(cmd.Context(), nil, args[0])
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return fmt.Errorf("no user with email %s", args[0])
				}
				return err
			}
			if err := users.Update(cmd.Context(), nil, user.ID, map[string]interface{}{
				"is_verified": true,
				"is_active":   true,
			}); err != nil {
				return fmt.Errorf("failed to verify user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %s\n", user.Email)
			return nil
		},
	}
}
