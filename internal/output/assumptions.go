package output

// DefaultAssumptions lists the modeling assumptions rendered in detailed
// outputs.
var DefaultAssumptions = []string{
	"Federal and state tables: published values for 2024 and 2025",
	"Later years: latest table indexed by the inflation assumption, rounded down to $50",
	"Money is rounded half away from zero to cents at each reported figure",
	"Recommendation savings are single-year estimates from a full recomputation",
	"Entity salary risk grading is advisory and not a legal opinion",
}
