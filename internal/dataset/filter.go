package dataset

import (
	"slices"

	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/types"
)

// FilterCompanies keeps the components of the first limit companies in
// ascending company-id order. Components without a company id are kept.
// limit <= 0 returns the input unchanged.
func FilterCompanies(components []types.Component, limit int) []types.Component {
	if limit <= 0 {
		return components
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, c := range components {
		if c.CompanyID == "" {
			continue
		}
		if _, ok := seen[c.CompanyID]; !ok {
			seen[c.CompanyID] = struct{}{}
			ids = append(ids, c.CompanyID)
		}
	}
	if len(ids) <= limit {
		return components
	}
	slices.SortFunc(ids, dedup.CompareIDs)
	keep := make(map[string]struct{}, limit)
	for _, id := range ids[:limit] {
		keep[id] = struct{}{}
	}

	out := make([]types.Component, 0, len(components))
	for _, c := range components {
		if _, ok := keep[c.CompanyID]; ok || c.CompanyID == "" {
			out = append(out, c)
		}
	}
	return out
}
