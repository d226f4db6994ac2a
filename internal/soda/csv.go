// This file decodes Socrata CSV payloads and the local fast-food name
// cache. Columns are resolved by header name, not position, since the
// upstream does not guarantee ordering.
package soda

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/petar-djukic/courier/pkg/types"
)

// dateLayouts covers the timestamp shapes Socrata emits for floating
// timestamps, most specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// headerIndex maps column names to positions, lower-cased.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// decodeInspections parses the aliased inspections payload. Any missing
// column or malformed value is a fatal parse error; the payload is
// pre-filtered server-side, so bad rows mean a broken feed, not noise.
func decodeInspections(r io.Reader) ([]types.InspectionRow, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := headerIndex(header)
	for _, col := range []string{"id", "name", "borough", "cuisine", "inspection_date", "lat", "lng"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("payload missing column %q", col)
		}
	}

	var rows []types.InspectionRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(record[idx["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id: %w", line, err)
		}
		date, err := parseDate(record[idx["inspection_date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lat, err := strconv.ParseFloat(record[idx["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lat: %w", line, err)
		}
		lng, err := strconv.ParseFloat(record[idx["lng"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lng: %w", line, err)
		}

		rows = append(rows, types.InspectionRow{
			ID:             id,
			Name:           record[idx["name"]],
			Borough:        record[idx["borough"]],
			Cuisine:        record[idx["cuisine"]],
			InspectionDate: date,
			Lat:            lat,
			Lng:            lng,
		})
	}
	return rows, nil
}

// decodeNames parses the single-column fast-food payload.
func decodeNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := headerIndex(header)
	col, ok := idx["name"]
	if !ok {
		return nil, errors.New(`payload missing column "name"`)
	}

	var names []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, record[col])
	}
	return names, nil
}

// readNameCache loads the cached fast-food names. ok is false when the
// cache file does not exist.
func readNameCache(path string) (names []string, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	names, err = decodeNames(f)
	if err != nil {
		return nil, false, err
	}
	return names, true, nil
}

// writeNameCache persists the fast-food names so later runs skip the
// network call.
func writeNameCache(path string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name"}); err != nil {
		return err
	}
	for _, name := range names {
		if err := w.Write([]string{name}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
