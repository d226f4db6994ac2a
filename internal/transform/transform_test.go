package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/courier/pkg/types"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testCodes() (map[string]string, map[string]string) {
	boroughs := CodeMap(types.Boroughs, types.BoroughCode)
	cuisines := CodeMap(types.Cuisines, types.CuisineCode)
	return boroughs, cuisines
}

func TestCodeMap(t *testing.T) {
	t.Run("codes are 1-based over the sequence", func(t *testing.T) {
		m := CodeMap(types.Boroughs, types.BoroughCode)
		require.Len(t, m, len(types.Boroughs))
		for i, name := range types.Boroughs {
			assert.Equal(t, types.BoroughCode(i+1), m[name])
		}
		assert.Equal(t, "B1", m["Manhattan"])
		assert.Equal(t, "B5", m["Staten Island"])
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		first := CodeMap(types.Cuisines, types.CuisineCode)
		second := CodeMap(types.Cuisines, types.CuisineCode)
		assert.Equal(t, first, second)
	})

	t.Run("cuisine codes anchor to the allow-list positions", func(t *testing.T) {
		m := CodeMap(types.Cuisines, types.CuisineCode)
		assert.Equal(t, "C1", m["Afghan"])
		assert.Equal(t, "C3", m["American"])
		assert.Equal(t, "C13", m["Chinese"])
		assert.Equal(t, "C32", m["Italian"])
	})
}

func TestClean_DeduplicatesByRecency(t *testing.T) {
	boroughs, cuisines := testCodes()

	rows := []types.InspectionRow{
		{ID: 1, Name: "Kebab House", Borough: "Queens", Cuisine: "Turkish", InspectionDate: date("2024-01-15"), Lat: 40.7, Lng: -73.8},
		{ID: 1, Name: "Kebab House", Borough: "Queens", Cuisine: "Turkish", InspectionDate: date("2025-06-01"), Lat: 40.7, Lng: -73.8},
		{ID: 1, Name: "Kebab House", Borough: "Queens", Cuisine: "Turkish", InspectionDate: date("2023-03-20"), Lat: 40.7, Lng: -73.8},
		{ID: 2, Name: "Trattoria", Borough: "Manhattan", Cuisine: "Italian", InspectionDate: date("2025-02-02"), Lat: 40.75, Lng: -73.99},
	}

	got := Clean(rows, nil, boroughs, cuisines)
	require.Len(t, got, 2)

	byID := map[int64]types.InspectionRow{}
	for _, r := range got {
		byID[r.ID] = r
	}
	assert.Equal(t, date("2025-06-01"), byID[1].InspectionDate, "most recent inspection wins")
	assert.Equal(t, date("2025-02-02"), byID[2].InspectionDate)
}

func TestClean_Filters(t *testing.T) {
	boroughs, cuisines := testCodes()

	rows := []types.InspectionRow{
		{ID: 1, Name: "Golden Arches", Borough: "Bronx", Cuisine: "Mexican", InspectionDate: date("2025-01-01")},
		{ID: 2, Name: "Noodle Bar", Borough: "Brooklyn", Cuisine: "Chinese", InspectionDate: date("2025-01-02")},
		{ID: 3, Name: "Donut Stop", Borough: "Brooklyn", Cuisine: "Donuts", InspectionDate: date("2025-01-03")},
		{ID: 4, Name: "Curry Leaf", Borough: "Yonkers", Cuisine: "Indian", InspectionDate: date("2025-01-04")},
	}
	exclude := []string{"Golden Arches"}

	got := Clean(rows, exclude, boroughs, cuisines)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	t.Run("no excluded name or off-list cuisine survives", func(t *testing.T) {
		for _, r := range got {
			assert.NotContains(t, exclude, r.Name)
			assert.Contains(t, cuisines, r.Cuisine)
			assert.Contains(t, boroughs, r.Borough)
		}
	})

	t.Run("filtering is idempotent", func(t *testing.T) {
		again := Clean(got, exclude, boroughs, cuisines)
		assert.Equal(t, got, again)
	})
}

func TestNormalize(t *testing.T) {
	boroughs, cuisines := testCodes()

	rows := []types.InspectionRow{
		{ID: 7, Name: "Pierogi Palace", Borough: "Brooklyn", Cuisine: "Polish", InspectionDate: date("2025-05-05"), Lat: 40.6, Lng: -73.9},
		{ID: 8, Name: "Sushi Dokoro", Borough: "Manhattan", Cuisine: "Japanese", InspectionDate: date("2025-04-04"), Lat: 40.77, Lng: -73.98},
	}

	got, err := Normalize(rows, boroughs, cuisines)
	require.NoError(t, err)
	require.Len(t, got, len(rows), "normalization neither adds nor removes rows")

	for i, r := range got {
		assert.Equal(t, boroughs[rows[i].Borough], r.BoroughID)
		assert.Equal(t, cuisines[rows[i].Cuisine], r.CuisineID)
		assert.Equal(t, rows[i].ID, r.ID)
		assert.Equal(t, rows[i].InspectionDate, r.InspectionDate)
	}

	t.Run("unmapped category is an error", func(t *testing.T) {
		bad := []types.InspectionRow{
			{ID: 9, Name: "Mystery Meat", Borough: "Atlantis", Cuisine: "Polish", InspectionDate: date("2025-01-01")},
		}
		_, err := Normalize(bad, boroughs, cuisines)
		assert.Error(t, err)
	})
}

func TestBuildBoroughs(t *testing.T) {
	codes := CodeMap(types.Boroughs, types.BoroughCode)
	pops := map[string]int64{"Brooklyn": 2736074, "Queens": 2405464}

	got := BuildBoroughs(types.Boroughs, codes, pops)
	require.Len(t, got, 5)

	assert.Equal(t, "B1", got[0].BoroughID)
	assert.Equal(t, "Manhattan", got[0].Borough)
	assert.Nil(t, got[0].Population, "no census entry stays NULL")

	assert.Equal(t, "Brooklyn", got[2].Borough)
	require.NotNil(t, got[2].Population)
	assert.Equal(t, int64(2736074), *got[2].Population)
}

func TestBuildCuisines(t *testing.T) {
	codes := CodeMap(types.Cuisines, types.CuisineCode)
	got := BuildCuisines(types.Cuisines, codes)
	require.Len(t, got, len(types.Cuisines))
	assert.Equal(t, "C1", got[0].CuisineID)
	assert.Equal(t, types.Cuisines[0], got[0].Cuisine)
	assert.Equal(t, types.CuisineCode(len(types.Cuisines)), got[len(got)-1].CuisineID)
}
