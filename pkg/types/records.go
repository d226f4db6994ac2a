package types

import "time"

// InspectionRow is one raw record extracted from the inspections dataset,
// after column aliasing but before any cleaning. A location usually
// appears many times, once per historical inspection.
type InspectionRow struct {
	ID             int64     // camis, the source system's location identifier
	Name           string    // dba
	Borough        string    // boro, denormalized name
	Cuisine        string    // cuisine_description, denormalized name
	InspectionDate time.Time // date only; times and zones are dropped
	Lat            float64
	Lng            float64
}

// Restaurant is a normalized fact row: one row per location, keyed to the
// borough and cuisine dimensions by surrogate code.
type Restaurant struct {
	ID             int64
	Name           string
	BoroughID      string
	CuisineID      string
	InspectionDate time.Time
	Lat            float64
	Lng            float64
}

// Borough is a dimension row. Population is a pointer because the census
// source is optional; a missing count stays NULL in storage.
type Borough struct {
	BoroughID  string
	Borough    string
	Population *int64
}

// Cuisine is a dimension row.
type Cuisine struct {
	CuisineID string
	Cuisine   string
}

// Marker is one restaurant joined with both dimensions, as served by the
// map endpoint.
type Marker struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Borough        string  `json:"borough"`
	Cuisine        string  `json:"cuisine"`
	InspectionDate string  `json:"inspection_date"`
}

// CuisineCount is one row of the per-borough cuisine ranking.
type CuisineCount struct {
	Cuisine string `json:"cuisine"`
	Count   int64  `json:"count"`
}

// CuisineShare is one row of the citywide cuisine distribution.
type CuisineShare struct {
	Cuisine string  `json:"cuisine"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// BoroughSummary is one row of the per-borough restaurant count and
// population summary.
type BoroughSummary struct {
	Borough         string `json:"borough"`
	RestaurantCount int64  `json:"restaurant_count"`
	Population      *int64 `json:"population"`
}
