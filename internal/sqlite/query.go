// This file implements the read path backing the aggregation endpoints.
// Every query is a single parameterized SELECT.
package sqlite

import (
	"fmt"

	"github.com/petar-djukic/courier/pkg/types"
)

// Markers returns every restaurant joined with both dimensions.
func (s *Store) Markers() ([]types.Marker, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.name, r.lat, r.lng, b.borough, c.cuisine, r.inspection_date
		FROM restaurants r
		JOIN boroughs b ON b.borough_id = r.borough_id
		JOIN cuisines c ON c.cuisine_id = r.cuisine_id
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("querying markers: %w", err)
	}
	defer rows.Close()

	var out []types.Marker
	for rows.Next() {
		var m types.Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Lat, &m.Lng, &m.Borough, &m.Cuisine, &m.InspectionDate); err != nil {
			return nil, fmt.Errorf("scanning marker: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TopCuisines returns cuisine counts for one borough, most common first.
// An unknown borough yields an empty result, not an error.
func (s *Store) TopCuisines(borough string) ([]types.CuisineCount, error) {
	rows, err := s.db.Query(`
		SELECT c.cuisine, COUNT(r.id) AS n
		FROM restaurants r
		JOIN cuisines c ON c.cuisine_id = r.cuisine_id
		JOIN boroughs b ON b.borough_id = r.borough_id
		WHERE b.borough = ?
		GROUP BY c.cuisine
		ORDER BY n DESC`, borough)
	if err != nil {
		return nil, fmt.Errorf("querying top cuisines: %w", err)
	}
	defer rows.Close()

	var out []types.CuisineCount
	for rows.Next() {
		var cc types.CuisineCount
		if err := rows.Scan(&cc.Cuisine, &cc.Count); err != nil {
			return nil, fmt.Errorf("scanning cuisine count: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// CuisineDistribution returns the citywide share of each cuisine as a
// percentage of all restaurants.
func (s *Store) CuisineDistribution() ([]types.CuisineShare, error) {
	rows, err := s.db.Query(`
		SELECT c.cuisine, COUNT(r.id) AS n
		FROM restaurants r
		JOIN cuisines c ON c.cuisine_id = r.cuisine_id
		GROUP BY c.cuisine
		ORDER BY c.cuisine`)
	if err != nil {
		return nil, fmt.Errorf("querying cuisine distribution: %w", err)
	}
	defer rows.Close()

	var out []types.CuisineShare
	var total int64
	for rows.Next() {
		var cs types.CuisineShare
		if err := rows.Scan(&cs.Cuisine, &cs.Count); err != nil {
			return nil, fmt.Errorf("scanning cuisine share: %w", err)
		}
		total += cs.Count
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Percent = float64(out[i].Count) / float64(total) * 100
	}
	return out, nil
}

// BoroughSummaries returns restaurant count and population per borough.
func (s *Store) BoroughSummaries() ([]types.BoroughSummary, error) {
	rows, err := s.db.Query(`
		SELECT b.borough, COUNT(r.id) AS n, b.population
		FROM restaurants r
		JOIN boroughs b ON b.borough_id = r.borough_id
		GROUP BY b.borough, b.population
		ORDER BY b.borough`)
	if err != nil {
		return nil, fmt.Errorf("querying borough summaries: %w", err)
	}
	defer rows.Close()

	var out []types.BoroughSummary
	for rows.Next() {
		var bs types.BoroughSummary
		if err := rows.Scan(&bs.Borough, &bs.RestaurantCount, &bs.Population); err != nil {
			return nil, fmt.Errorf("scanning borough summary: %w", err)
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}
