package things

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Seed replaces every thing with the demo data set: three street lights,
// two traffic signs and a garden, in one transaction.
func Seed(ctx context.Context, coord *cti.Coordinator) ([]*cti.Record, error) {
	reg := coord.Registry()
	var records []*cti.Record
	add := func(r *cti.Record, err error) error {
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	}
	if err := add(NewStreetLight(reg, "Light 1", orb.Point{0, 0})); err != nil {
		return nil, err
	}
	if err := add(NewStreetLight(reg, "Light 2", orb.Point{1, 0})); err != nil {
		return nil, err
	}
	if err := add(NewStreetLight(reg, "Light 3", orb.Point{0, 1})); err != nil {
		return nil, err
	}
	if err := add(NewTrafficSign(reg, "Sign 1", "STOP", orb.Point{2, 2})); err != nil {
		return nil, err
	}
	if err := add(NewTrafficSign(reg, "Sign 2", "BOOM", orb.Point{2, 4})); err != nil {
		return nil, err
	}
	green := orb.Polygon{orb.Ring{{2, 2}, {2, 3}, {3, 3}, {3, 2}, {2, 2}}}
	if err := add(NewGarden(reg, "Green", green)); err != nil {
		return nil, err
	}

	err := coord.Transaction(ctx, func(ctx context.Context, tx types.Tx) error {
		if _, err := tx.Delete(ctx, types.TableThings); err != nil {
			return err
		}
		for _, r := range records {
			if err := coord.SaveTx(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
