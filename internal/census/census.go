// Package census loads borough population counts from a local CSV
// extract. Population is an optional enrichment: a missing file yields
// an empty map and the boroughs table keeps NULL populations.
package census

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Load reads a two-column CSV (borough, population) from path. A missing
// file is not an error; any other read or parse failure is.
func Load(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("opening population file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading population header: %w", err)
	}

	boroughCol, popCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "borough":
			boroughCol = i
		case "population":
			popCol = i
		}
	}
	if boroughCol < 0 || popCol < 0 {
		return nil, fmt.Errorf("population file %s needs borough and population columns", path)
	}

	out := map[string]int64{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("population line %d: %w", line, err)
		}
		pop, err := strconv.ParseInt(strings.TrimSpace(record[popCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("population line %d: %w", line, err)
		}
		out[record[boroughCol]] = pop
	}
	return out, nil
}
