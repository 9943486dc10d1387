// Package cti maps entity type hierarchies onto relational tables with
// class-table inheritance: one table per type, every row of a hierarchy
// chain sharing one primary key.
//
// Types are declared with a Descriptor and registered together in a
// Registry. Records are dynamic attribute bags; attributes stored on another
// table of the chain are reached through delegates, resolved in declaration
// order against the related records that have been loaded. A Coordinator
// saves a record and all of its ancestors in one transaction, and a Loader
// fetches records with their ancestors and the subtype tables their
// discriminators call for.
//
//	reg, err := cti.NewRegistry(thingDesc, singlePointDesc, streetLightDesc)
//	coord := cti.NewCoordinator(reg, store, log)
//	light, _ := reg.New("StreetLight")
//	_ = light.Set("name", "Light 1")
//	_ = light.Set("geom", orb.Point{0, 0})
//	err = coord.Save(ctx, light)
package cti
