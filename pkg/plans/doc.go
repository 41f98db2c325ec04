// Package plans provides the immutable plan catalog consumed by the
// purchase and reconciliation flows.
//
// Plans are reference data owned by the backend; this package only loads
// and indexes them. Two sources are provided: StaticSource for compiled-in
// catalogs and tests, and YAMLSource for file-based configuration.
//
//	catalog, err := plans.NewCatalog(ctx, plans.NewYAMLSource("plans.yml"))
//	if err != nil {
//		return err
//	}
//	plan, err := catalog.Get("plan_pro_monthly")
package plans
