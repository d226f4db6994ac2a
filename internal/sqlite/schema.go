// Package sqlite implements the relational store for Courier: a
// single-file SQLite database holding the borough and cuisine dimension
// tables and the restaurants fact table.
package sqlite

// Schema DDL. Order matters: restaurants references both dimensions, so
// the dimensions must exist first.
const (
	createBoroughs = `CREATE TABLE IF NOT EXISTS boroughs (
    borough_id TEXT PRIMARY KEY,
    borough TEXT NOT NULL,
    population INTEGER
);`

	createCuisines = `CREATE TABLE IF NOT EXISTS cuisines (
    cuisine_id TEXT PRIMARY KEY,
    cuisine TEXT NOT NULL
);`

	createRestaurants = `CREATE TABLE IF NOT EXISTS restaurants (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    borough_id TEXT NOT NULL,
    cuisine_id TEXT NOT NULL,
    inspection_date TEXT NOT NULL,
    lat REAL NOT NULL,
    lng REAL NOT NULL,
    FOREIGN KEY (borough_id) REFERENCES boroughs(borough_id),
    FOREIGN KEY (cuisine_id) REFERENCES cuisines(cuisine_id)
);`
)

// createStatements lists the DDL in dependency order.
var createStatements = []string{
	createBoroughs,
	createCuisines,
	createRestaurants,
}

// dateLayout is how inspection dates are stored; date only, no time or
// zone, so lexicographic comparison matches chronological order.
const dateLayout = "2006-01-02"
