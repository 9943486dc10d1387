package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(false, func(s *session) error {
					if err := s.backend.MigrateUp(); err != nil {
						return err
					}
					return printVersion(cmd, s)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(false, func(s *session) error {
					if err := s.backend.MigrateDown(); err != nil {
						return err
					}
					return printVersion(cmd, s)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(false, func(s *session) error {
					return printVersion(cmd, s)
				})
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, s *session) error {
	version, dirty, err := s.backend.MigrateVersion()
	if err != nil {
		return err
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d%s\n", version, suffix)
	return nil
}
