// Package cli implements elearningctl, the operator tool for schema
// migrations and account bootstrap.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/pkg"
)

// Opener returns a database handle for one command run and its release func
type Opener func() (*gorm.DB, func(), error)

// ConfigOpener connects with the service configuration; InitDatabase also migrates
func ConfigOpener() (*gorm.DB, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { closeDB(db) }, nil
}

// NewRootCommand creates the root command for elearningctl
func NewRootCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "elearningctl",
		Short:         "Operator commands for the e-learning service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand(open))
	cmd.AddCommand(NewCreateUserCommand(open))
	cmd.AddCommand(NewVerifyUserCommand(open))

	return cmd
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
