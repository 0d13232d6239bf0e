package main

import (
	"fmt"
	"strconv"

	"github.com/saransh1220/careerpush/pkg/migration"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	runner := func() *migration.Runner {
		return migration.NewRunner(e.cfg.Database.URL(), e.cfg.MigrationsPath, e.log)
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the dev server schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return runner().Up() },
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return runner().Down() },
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				version, dirty, err := runner().Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return runner().Force(version)
			},
		},
	)
	return cmd
}
