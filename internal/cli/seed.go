package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/things"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all things with the sample data set",
		Long:  "Delete every thing, then create three street lights, two traffic signs and a garden in one transaction.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(true, func(s *session) error {
				records, err := things.Seed(context.Background(), s.coord)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				if flags.jsonMode {
					return writeRecords(cmd.OutOrStdout(), records)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d things\n", len(records))
				return nil
			})
		},
	}
}
