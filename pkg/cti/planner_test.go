package cti_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/things"
)

// fetchedThing stands in for a loaded things row.
func fetchedThing(t *testing.T, reg *cti.Registry, id int64, discriminator string) *cti.Record {
	t.Helper()
	return newRecord(t, reg, things.TypeThing, map[string]any{"id": id, "name": "x", "type": discriminator})
}

func TestPlanMinimality(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name           string
		discriminators []string
		want           []string
	}{
		{
			name:           "garden and traffic sign",
			discriminators: []string{"gardens", "traffic_signs"},
			want:           []string{"garden", "singlePoint", "trafficSign"},
		},
		{
			name:           "street light and garden",
			discriminators: []string{"street_lights", "gardens"},
			want:           []string{"garden", "singlePoint", "streetLight"},
		},
		{
			name:           "street lights only",
			discriminators: []string{"street_lights", "street_lights"},
			want:           []string{"singlePoint", "streetLight"},
		},
		{
			name:           "every type",
			discriminators: []string{"traffic_signs", "gardens", "street_lights"},
			want:           []string{"garden", "singlePoint", "streetLight", "trafficSign"},
		},
		{
			name:           "unknown discriminator",
			discriminators: []string{"lamps"},
			want:           []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []*cti.Record
			for i, d := range tt.discriminators {
				records = append(records, fetchedThing(t, reg, int64(i+1), d))
			}
			plan := cti.Planner{}.Plan(records)
			assert.Equal(t, tt.want, plan.Relations())
		})
	}
}

func TestPlanSteps(t *testing.T) {
	reg := newRegistry(t)
	records := []*cti.Record{
		fetchedThing(t, reg, 4, "traffic_signs"),
		fetchedThing(t, reg, 1, "gardens"),
		fetchedThing(t, reg, 2, "traffic_signs"),
	}

	plan := cti.Planner{}.Plan(records)
	require.Len(t, plan.Steps, 3)

	garden := plan.Steps[0]
	assert.Equal(t, "garden", garden.Relation.Name)
	assert.Equal(t, things.TypeGarden, garden.Model.Name())
	assert.True(t, garden.Geometry)
	assert.Equal(t, []int64{1}, garden.IDs)

	point := plan.Steps[1]
	assert.Equal(t, "singlePoint", point.Relation.Name)
	assert.True(t, point.Geometry)
	assert.Equal(t, []int64{2, 4}, point.IDs)

	sign := plan.Steps[2]
	assert.Equal(t, "trafficSign", sign.Relation.Name)
	assert.Equal(t, cti.HasOneThrough, sign.Relation.Kind)
	assert.False(t, sign.Geometry)
	assert.Equal(t, []int64{2, 4}, sign.IDs)
}

func TestPlanEmpty(t *testing.T) {
	plan := cti.Planner{}.Plan(nil)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Relations())

	reg := newRegistry(t)
	unsaved := newRecord(t, reg, things.TypeThing, map[string]any{"type": "gardens"})
	assert.True(t, cti.Planner{}.Plan([]*cti.Record{unsaved}).Empty())
}
