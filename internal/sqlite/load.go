// This file implements the write path: full-replace table loads for the
// fresh build, and the delete/insert/update trio for incremental refresh.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/petar-djukic/courier/pkg/types"
)

// freshTable deletes every row of table and bulk-inserts replacements in
// a single transaction. A failure anywhere rolls the whole load back, so
// the table is never left half-populated. Delete-then-insert makes the
// operation idempotent for identical input.
func (s *Store) freshTable(table, insertSQL string, n int, bind func(*sql.Stmt, int) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning %s load: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := bind(stmt, i); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s load: %w", table, err)
	}
	s.log.Debug("table refreshed", "table", table, "rows", n)
	return nil
}

// FreshBoroughs replaces the borough dimension wholesale.
func (s *Store) FreshBoroughs(rows []types.Borough) error {
	const insertSQL = "INSERT INTO boroughs (borough_id, borough, population) VALUES (?, ?, ?)"
	return s.freshTable("boroughs", insertSQL, len(rows), func(stmt *sql.Stmt, i int) error {
		var pop any
		if rows[i].Population != nil {
			pop = *rows[i].Population
		}
		_, err := stmt.Exec(rows[i].BoroughID, rows[i].Borough, pop)
		return err
	})
}

// FreshCuisines replaces the cuisine dimension wholesale.
func (s *Store) FreshCuisines(rows []types.Cuisine) error {
	const insertSQL = "INSERT INTO cuisines (cuisine_id, cuisine) VALUES (?, ?)"
	return s.freshTable("cuisines", insertSQL, len(rows), func(stmt *sql.Stmt, i int) error {
		_, err := stmt.Exec(rows[i].CuisineID, rows[i].Cuisine)
		return err
	})
}

// FreshRestaurants replaces the fact table wholesale. Both dimensions
// must already be loaded or the foreign keys reject the insert.
func (s *Store) FreshRestaurants(rows []types.Restaurant) error {
	const insertSQL = `INSERT INTO restaurants
		(id, name, borough_id, cuisine_id, inspection_date, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	return s.freshTable("restaurants", insertSQL, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.Exec(r.ID, r.Name, r.BoroughID, r.CuisineID,
			r.InspectionDate.Format(dateLayout), r.Lat, r.Lng)
		return err
	})
}

// DeleteExpired removes fact rows whose inspection date is before cutoff
// and reports how many went.
func (s *Store) DeleteExpired(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM restaurants WHERE inspection_date < ?",
		cutoff.Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired restaurants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.log.Debug("expired restaurants deleted", "cutoff", cutoff.Format(dateLayout), "rows", n)
	return n, nil
}

// UpsertNew inserts rows whose id is not already present and leaves
// existing rows untouched; changed attributes on known locations are
// picked up only by a full rebuild. Foreign-key violations still fail
// the whole batch.
func (s *Store) UpsertNew(rows []types.Restaurant) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO restaurants
		(id, name, borough_id, cuisine_id, inspection_date, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range rows {
		res, err := stmt.Exec(r.ID, r.Name, r.BoroughID, r.CuisineID,
			r.InspectionDate.Format(dateLayout), r.Lat, r.Lng)
		if err != nil {
			return 0, fmt.Errorf("upserting restaurant %d: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	s.log.Debug("new restaurants inserted", "rows", inserted, "offered", len(rows))
	return inserted, nil
}

// UpdatePopulation refreshes the population column by borough name.
// Names with no matching row are no-ops, not errors.
func (s *Store) UpdatePopulation(populations map[string]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning population update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE boroughs SET population = ? WHERE borough = ?")
	if err != nil {
		return fmt.Errorf("preparing population update: %w", err)
	}
	defer stmt.Close()

	for name, pop := range populations {
		if _, err := stmt.Exec(pop, name); err != nil {
			return fmt.Errorf("updating population for %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing population update: %w", err)
	}
	return nil
}
