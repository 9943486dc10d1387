package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/things"
)

// typeAliases maps command-line spellings to type names.
var typeAliases = map[string]string{
	"thing":        things.TypeThing,
	"things":       things.TypeThing,
	"single-point": things.TypeSinglePoint,
	"street-light": things.TypeStreetLight,
	"traffic-sign": things.TypeTrafficSign,
	"garden":       things.TypeGarden,
	"gardens":      things.TypeGarden,
}

func newListCmd() *cobra.Command {
	var within string
	var limit int

	cmd := &cobra.Command{
		Use:   "list [type]",
		Short: "List things, optionally of one type or within an area",
		Long: `List fetches every thing of the given type (default: thing), with each
row resolved to its concrete kind.

Types: thing, single-point, street-light, traffic-sign, garden

Example:
  strata list
  strata list street-light --json
  strata list --within 'POLYGON((1 1,1 3,3 3,3 1,1 1))'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName := things.TypeThing
			if len(args) == 1 {
				typeName = resolveType(args[0])
			}
			return withSession(true, func(s *session) error {
				m, err := s.reg.Model(typeName)
				if err != nil {
					return err
				}
				opts := []cti.Option{cti.OrderBy("id")}
				if limit > 0 {
					opts = append(opts, cti.Limit(limit))
				}
				if within != "" {
					g, err := geo.ParseWKT(within)
					if err != nil {
						return err
					}
					pred, err := cti.Intersecting(m, g)
					if err != nil {
						return err
					}
					opts = append(opts, cti.Where(pred))
				}
				records, err := s.loader.Fetch(context.Background(), m.Name(), opts...)
				if err != nil {
					return fmt.Errorf("list %s: %w", m.Name(), err)
				}
				return writeRecords(cmd.OutOrStdout(), records)
			})
		},
	}
	cmd.Flags().StringVar(&within, "within", "", "only things intersecting this WKT geometry")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of things")
	return cmd
}

func resolveType(arg string) string {
	if name, ok := typeAliases[strings.ToLower(arg)]; ok {
		return name
	}
	return arg
}
