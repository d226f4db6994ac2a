// Package transform is the pure normalization layer between extraction
// and loading. It deduplicates raw inspection rows by recency, applies
// the fast-food and cuisine filters, and re-keys category columns to
// surrogate codes. No I/O happens here; every function is deterministic
// in its inputs.
package transform

import (
	"fmt"
	"sort"

	"github.com/petar-djukic/courier/pkg/types"
)

// CodeMap maps each name in seq to the surrogate code for its 1-based
// position. The mapping is identical across runs as long as seq is
// unchanged, which is what keeps dimension ids stable across rebuilds.
func CodeMap(seq []string, code func(int) string) map[string]string {
	m := make(map[string]string, len(seq))
	for i, name := range seq {
		m[name] = code(i + 1)
	}
	return m
}

// Clean resolves raw inspection rows to at most one row per location and
// applies the retain/exclude filters:
//
//   - rows are ordered by inspection date descending and the first
//     occurrence per id wins, so each surviving row carries the most
//     recent inspection;
//   - rows whose name is in excludeNames are dropped;
//   - rows whose cuisine or borough has no surrogate code are dropped,
//     so Normalize never sees an unmapped category value.
//
// The input slice is not modified.
func Clean(rows []types.InspectionRow, excludeNames []string, boroughCodes, cuisineCodes map[string]string) []types.InspectionRow {
	excluded := make(map[string]struct{}, len(excludeNames))
	for _, name := range excludeNames {
		excluded[name] = struct{}{}
	}

	sorted := make([]types.InspectionRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InspectionDate.After(sorted[j].InspectionDate)
	})

	seen := make(map[int64]struct{}, len(sorted))
	out := make([]types.InspectionRow, 0, len(sorted))
	for _, row := range sorted {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}

		if _, drop := excluded[row.Name]; drop {
			continue
		}
		if _, ok := cuisineCodes[row.Cuisine]; !ok {
			continue
		}
		if _, ok := boroughCodes[row.Borough]; !ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Normalize re-keys cleaned rows to surrogate codes, producing fact rows.
// It neither adds nor removes rows; a category value missing from its
// mapping is an error, since Clean is responsible for dropping those.
func Normalize(rows []types.InspectionRow, boroughCodes, cuisineCodes map[string]string) ([]types.Restaurant, error) {
	out := make([]types.Restaurant, 0, len(rows))
	for _, row := range rows {
		boroughID, ok := boroughCodes[row.Borough]
		if !ok {
			return nil, fmt.Errorf("no borough code for %q (row %d)", row.Borough, row.ID)
		}
		cuisineID, ok := cuisineCodes[row.Cuisine]
		if !ok {
			return nil, fmt.Errorf("no cuisine code for %q (row %d)", row.Cuisine, row.ID)
		}
		out = append(out, types.Restaurant{
			ID:             row.ID,
			Name:           row.Name,
			BoroughID:      boroughID,
			CuisineID:      cuisineID,
			InspectionDate: row.InspectionDate,
			Lat:            row.Lat,
			Lng:            row.Lng,
		})
	}
	return out, nil
}

// BuildBoroughs forges the borough dimension rows in reference order,
// merging population counts by name. Names absent from populations get a
// NULL population.
func BuildBoroughs(seq []string, codes map[string]string, populations map[string]int64) []types.Borough {
	out := make([]types.Borough, 0, len(seq))
	for _, name := range seq {
		b := types.Borough{BoroughID: codes[name], Borough: name}
		if pop, ok := populations[name]; ok {
			p := pop
			b.Population = &p
		}
		out = append(out, b)
	}
	return out
}

// BuildCuisines forges the cuisine dimension rows in reference order.
func BuildCuisines(seq []string, codes map[string]string) []types.Cuisine {
	out := make([]types.Cuisine, 0, len(seq))
	for _, name := range seq {
		out = append(out, types.Cuisine{CuisineID: codes[name], Cuisine: name})
	}
	return out
}
