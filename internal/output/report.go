package output

import (
	"github.com/rgehrsitz/taxadvisor/internal/batch"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
)

// Report collects whatever a command produced. Formatters render the
// sections that are set and skip the rest.
type Report struct {
	Title           string                       `json:"title,omitempty"`
	Profile         *domain.TaxpayerProfile      `json:"profile,omitempty"`
	Position        *domain.TaxPosition          `json:"position,omitempty"`
	Entities        *domain.EntityComparison     `json:"entities,omitempty"`
	Projection      *domain.ProjectionResult     `json:"projection,omitempty"`
	Recommendations *domain.RecommendationReport `json:"recommendations,omitempty"`
	Scenarios       []domain.ScenarioResult      `json:"scenarios,omitempty"`
	Batch           *batch.Report                `json:"batch,omitempty"`
	Assumptions     []string                     `json:"assumptions,omitempty"`
}

// Empty reports whether no section is set.
func (r *Report) Empty() bool {
	return r.Position == nil && r.Entities == nil && r.Projection == nil &&
		r.Recommendations == nil && len(r.Scenarios) == 0 && r.Batch == nil
}
