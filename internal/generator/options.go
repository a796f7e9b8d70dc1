package generator

import "slices"

// Fixed choices offered by the builder form. Requests are validated against
// these before any prompt is composed.
var (
	Categories = []string{"Corporate", "Tech", "NGO", "Medical", "Sales", "Creative"}
	Regions    = []string{"Kenya/UK", "USA", "Canada", "Europass"}
	Styles     = []string{"Modern", "Classic", "Creative"}
)

// DemoCategory is the sentinel that short-circuits generation with a fixed
// placeholder and no network call.
const DemoCategory = "DEMO"

func ValidCategory(c string) bool { return c == DemoCategory || slices.Contains(Categories, c) }
func ValidRegion(r string) bool   { return slices.Contains(Regions, r) }
func ValidStyle(s string) bool    { return slices.Contains(Styles, s) }
