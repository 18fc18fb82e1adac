// Package household provides the Household Registry for Firewatch Core.
//
// The Household Registry is the central catalogue of residences enrolled in
// the fire-safety programme. It manages household lifecycle and provides the
// registry view-model consumed by the REST API and the operator dashboard:
//
//   - Registry / Repository: cached CRUD over the SQLite households table.
//     The registry is the "household store" collaborator of the workflow
//     controller; device counts are always computed by the store.
//   - Query engine (query.go): DeriveView derives the visible, ordered
//     household list from the full registry and a dashboard query
//     (search text, status filter, location filter, sort key). Pure,
//     stable, and safe to call on every keystroke.
//   - Risk & safety model (risk.go): pure mappings from risk level and
//     safety score to display attributes. Risk level and safety score are
//     independent classifications and are rendered without reconciliation.
//   - Field validation engine (validation.go): the per-field rules shared
//     by the household-edit and device-registration forms, plus
//     storage-level entity validation.
//
// # Usage
//
//	repo := household.NewSQLiteRepository(db)
//	registry := household.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Derive a dashboard view
//	all, _ := registry.ListHouseholds(ctx)
//	view := household.DeriveView(all, household.Query{
//	    Search: "reyes",
//	    Status: household.StatusAll,
//	    Sort:   household.SortRiskHigh,
//	})
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex. DeriveView and the risk/validation helpers are pure
// functions with no shared state.
package household
