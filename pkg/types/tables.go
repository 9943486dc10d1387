package types

// Table names of the Thing hierarchy schema.
const (
	TableThings       = "things"
	TableSinglePoints = "single_points"
	TableStreetLights = "street_lights"
	TableTrafficSigns = "traffic_signs"
	TableGardens      = "gardens"
)

// SchemaTableNames lists the schema tables, parents before children.
var SchemaTableNames = []string{
	TableThings,
	TableSinglePoints,
	TableStreetLights,
	TableTrafficSigns,
	TableGardens,
}
