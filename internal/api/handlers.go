package api

import (
	"encoding/json"
	"net/http"

	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/rotisserie/eris"
)

// ProfileRequest is the body shared by the single-year endpoints.
type ProfileRequest struct {
	TaxYear int                     `json:"tax_year"`
	Profile *domain.TaxpayerProfile `json:"profile"`
}

// ProjectionRequest is the body of POST /v1/projections.
type ProjectionRequest struct {
	Profile      *domain.TaxpayerProfile      `json:"profile"`
	HorizonYears int                          `json:"horizon_years"`
	Assumptions  domain.ProjectionAssumptions `json:"assumptions"`
}

// ScenarioRequest is the body of POST /v1/scenarios. With Each set every
// mutation is analyzed on its own against a shared baseline; otherwise they
// are applied together in order.
type ScenarioRequest struct {
	ProfileRequest
	Mutations []string `json:"mutations"`
	Each      bool     `json:"each,omitempty"`
}

// RecommendationResponse pairs the position with its recommendations.
type RecommendationResponse struct {
	Position *domain.TaxPosition          `json:"position"`
	Report   *domain.RecommendationReport `json:"report"`
}

// TablesResponse lists the loaded tax years and the states for each.
type TablesResponse struct {
	Years  []int            `json:"years"`
	States map[int][]string `json:"states"`
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequestError{err: eris.Wrap(err, "decode request body")}
	}
	return nil
}

// profile normalizes and validates the request's profile.
func profile(p *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	if p == nil {
		return nil, &domain.IncompleteProfileError{Field: "profile"}
	}
	if err := config.NewInputParser().ValidateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *server) year(y int) int {
	if y == 0 {
		return s.svc.Tables.LatestYear()
	}
	return y
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTables(w http.ResponseWriter, r *http.Request) {
	resp := TablesResponse{Years: s.svc.Tables.Years(), States: make(map[int][]string)}
	for _, y := range resp.Years {
		resp.States[y] = s.svc.Tables.StateCodes(y)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleMutations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"mutations": s.svc.Scenarios.Registry.List()})
}

func (s *server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := profile(req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pos, err := s.svc.Calc.ComputeTax(p, s.year(req.TaxYear))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *server) handleEntities(w http.ResponseWriter, r *http.Request) {
	var req entity.Request
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Household != nil {
		if _, err := profile(req.Household); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	req.TaxYear = s.year(req.TaxYear)
	cmp, err := s.svc.Entities.Compare(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := profile(req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Projections.Project(p, req.HorizonYears, req.Assumptions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := profile(req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pos, err := s.svc.Calc.ComputeTax(p, s.year(req.TaxYear))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.svc.Advisor.Recommend(p, pos)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{Position: pos, Report: report})
}

func (s *server) handleScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := profile(req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mutations, err := s.svc.Scenarios.Registry.ParseSpecs(req.Mutations)
	if err != nil {
		// Typed errors from the factories keep their own status.
		if status, _ := statusFor(err); status == http.StatusInternalServerError {
			err = &badRequestError{err: err}
		}
		s.writeError(w, r, err)
		return
	}
	year := s.year(req.TaxYear)
	if req.Each {
		results, err := s.svc.Scenarios.AnalyzeEach(p, year, mutations)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}
	res, err := s.svc.Scenarios.Analyze(p, year, mutations...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
