package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/elearning-service/pkg"
)

// NewMigrateCommand creates or updates every table
func NewMigrateCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, release, err := open()
			if err != nil {
				return err
			}
			defer release()

			if err := pkg.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(pkg.AllModels()))
			return nil
		},
	}
}
