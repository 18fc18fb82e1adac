package household

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter and sort option values. StatusAll/LocationAll disable the
// corresponding filter.
const (
	StatusAll   = "all"
	LocationAll = "all"
)

// SortKey selects the ordering of the derived view.
type SortKey string

// SortKey constants. Any other value leaves the filtered order untouched.
const (
	SortNameAsc  SortKey = "name-asc"
	SortNameDesc SortKey = "name-desc"
	SortRiskHigh SortKey = "risk-high"
	SortRiskLow  SortKey = "risk-low"
)

// Query describes a dashboard view over the registry: free-text search,
// status and location filters, and an ordering.
type Query struct {
	// Search is matched case-insensitively as a substring of the owner
	// name or the address. Empty disables the filter.
	Search string

	// Status restricts to one risk level ("low", "medium", "high"), or
	// StatusAll for no restriction.
	Status string

	// Location is matched case-sensitively as a substring of the address,
	// mirroring the literal option text of the dashboard's location filter.
	// Empty or LocationAll disables the filter.
	Location string

	// Sort selects the ordering of the result.
	Sort SortKey
}

// nameCollator provides locale-aware owner-name comparison for the name
// sort keys. Collation is not concurrency-safe, so DeriveView constructs
// a fresh collator per call rather than sharing one.
func nameCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// DeriveView derives the visible, ordered household list from the full
// registry and a query.
//
// It is a pure function of its inputs: the registry slice is never
// mutated, identical inputs yield identical output, and every household
// in the result satisfies all three filter predicates. Sorting is stable,
// so households with equal sort rank keep their pre-sort relative order.
func DeriveView(registry []Household, q Query) []Household {
	view := make([]Household, 0, len(registry))

	search := strings.ToLower(strings.TrimSpace(q.Search))
	for i := range registry {
		h := registry[i]
		if !matchesSearch(&h, search) {
			continue
		}
		if !matchesStatus(&h, q.Status) {
			continue
		}
		if !matchesLocation(&h, q.Location) {
			continue
		}
		view = append(view, h)
	}

	sortView(view, q.Sort)
	return view
}

// matchesSearch reports whether the household matches the search text:
// empty search, or a case-insensitive substring of owner name or address.
func matchesSearch(h *Household, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(h.OwnerName), search) ||
		strings.Contains(strings.ToLower(h.Address), search)
}

// matchesStatus reports whether the household matches the status filter.
func matchesStatus(h *Household, status string) bool {
	if status == "" || status == StatusAll {
		return true
	}
	return string(h.RiskLevel) == status
}

// matchesLocation reports whether the household matches the location
// filter. The match is case-sensitive: the filter carries the literal
// option text, not a normalised form.
func matchesLocation(h *Household, location string) bool {
	if location == "" || location == LocationAll {
		return true
	}
	return strings.Contains(h.Address, location)
}

// sortView orders the view in place according to the sort key.
func sortView(view []Household, key SortKey) {
	switch key {
	case SortNameAsc:
		c := nameCollator()
		sort.SliceStable(view, func(i, j int) bool {
			return c.CompareString(view[i].OwnerName, view[j].OwnerName) < 0
		})
	case SortNameDesc:
		c := nameCollator()
		sort.SliceStable(view, func(i, j int) bool {
			return c.CompareString(view[i].OwnerName, view[j].OwnerName) > 0
		})
	case SortRiskHigh:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].RiskLevel.Rank() > view[j].RiskLevel.Rank()
		})
	case SortRiskLow:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].RiskLevel.Rank() < view[j].RiskLevel.Rank()
		})
	default:
		// Unrecognised sort keys are an identity pass.
	}
}
