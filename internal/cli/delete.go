package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/things"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a thing and every row of its chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %q", types.ErrInvalidID, args[0])
			}
			return withSession(true, func(s *session) error {
				ctx := context.Background()
				rec, err := s.loader.Get(ctx, things.TypeThing, id)
				if err != nil {
					return err
				}
				kind := kindOf(rec)
				if err := s.coord.Delete(ctx, rec); err != nil {
					return err
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "kind": kind, "deleted": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %d\n", kind, id)
				return nil
			})
		},
	}
}
