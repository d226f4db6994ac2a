package types

import "fmt"

// Boroughs is the fixed, ordered borough sequence. Surrogate codes are
// assigned 1-based over this list, so order changes change every
// borough_id in storage; append only.
var Boroughs = []string{
	"Manhattan", "Bronx", "Brooklyn", "Queens", "Staten Island",
}

// Cuisines is the fixed, ordered ethnic-cuisine allow-list. Rows whose
// cuisine_description is not in this list are dropped during cleaning.
// Same ordering rule as Boroughs: codes are positional, append only.
var Cuisines = []string{
	"Afghan",
	"African",
	"American",
	"Armenian",
	"Australian",
	"Bangladeshi",
	"Basque",
	"Brazilian",
	"Cajun",
	"Californian",
	"Caribbean",
	"Chilean",
	"Chinese",
	"Chinese/Japanese",
	"Creole",
	"Creole/Cajun",
	"Czech",
	"Eastern European",
	"Egyptian",
	"English",
	"Ethiopian",
	"Filipino",
	"French",
	"German",
	"Greek",
	"Haute Cuisine",
	"Hawaiian",
	"Indian",
	"Indonesian",
	"Iranian",
	"Irish",
	"Italian",
	"Japanese",
	"Jewish/Kosher",
	"Korean",
	"Latin American",
	"Lebanese",
	"Mediterranean",
	"Mexican",
	"Middle Eastern",
	"Moroccan",
	"New French",
	"Pakistani",
	"Peruvian",
	"Polish",
	"Portuguese",
	"Russian",
	"Scandinavian",
	"Soul Food",
	"Southeast Asian",
	"Spanish",
	"Tapas",
	"Thai",
	"Turkish",
}

// BoroughCode renders the surrogate code for a 1-based borough position.
func BoroughCode(n int) string { return fmt.Sprintf("B%d", n) }

// CuisineCode renders the surrogate code for a 1-based cuisine position.
func CuisineCode(n int) string { return fmt.Sprintf("C%d", n) }
