package cli

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/things"
)

type createFlags struct {
	name    string
	message string
	x, y    float64
	wkt     string
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a street light, traffic sign or garden",
	}

	var light, sign, garden createFlags

	lightCmd := &cobra.Command{
		Use:   "street-light",
		Short: "Create a street light at --x --y",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, func(reg *cti.Registry) (*cti.Record, error) {
				return things.NewStreetLight(reg, light.name, orb.Point{light.x, light.y})
			})
		},
	}
	pointFlags(lightCmd, &light)

	signCmd := &cobra.Command{
		Use:   "traffic-sign",
		Short: "Create a traffic sign at --x --y",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, func(reg *cti.Registry) (*cti.Record, error) {
				return things.NewTrafficSign(reg, sign.name, sign.message, orb.Point{sign.x, sign.y})
			})
		},
	}
	pointFlags(signCmd, &sign)
	signCmd.Flags().StringVar(&sign.message, "message", "", "text shown on the sign")

	gardenCmd := &cobra.Command{
		Use:   "garden",
		Short: "Create a garden covering the --wkt polygon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, func(reg *cti.Registry) (*cti.Record, error) {
				g, err := geo.ParseWKT(garden.wkt)
				if err != nil {
					return nil, err
				}
				area, ok := g.(orb.Polygon)
				if !ok {
					return nil, fmt.Errorf("%w: garden area must be a POLYGON, got %s", errUsage, g.GeoJSONType())
				}
				return things.NewGarden(reg, garden.name, area)
			})
		},
	}
	gardenCmd.Flags().StringVar(&garden.name, "name", "", "garden name")
	gardenCmd.Flags().StringVar(&garden.wkt, "wkt", "", "area as WKT POLYGON")
	_ = gardenCmd.MarkFlagRequired("wkt")

	cmd.AddCommand(lightCmd, signCmd, gardenCmd)
	return cmd
}

func pointFlags(cmd *cobra.Command, f *createFlags) {
	cmd.Flags().StringVar(&f.name, "name", "", "thing name")
	cmd.Flags().Float64Var(&f.x, "x", 0, "longitude")
	cmd.Flags().Float64Var(&f.y, "y", 0, "latitude")
}

func create(cmd *cobra.Command, build func(*cti.Registry) (*cti.Record, error)) error {
	return withSession(true, func(s *session) error {
		rec, err := build(s.reg)
		if err != nil {
			return err
		}
		if err := s.coord.Save(context.Background(), rec); err != nil {
			return err
		}
		if flags.jsonMode {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %d\n", rec.Model().Name(), rec.ID())
		return nil
	})
}
