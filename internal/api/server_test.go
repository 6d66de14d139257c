package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const wageProfile = `{"filing_status":"single","state":"TX","taxpayer":{"age":40},"income":[{"type":"w2_wages","amount":"95000"}]}`

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	tables, err := config.LoadBuiltinTables()
	require.NoError(t, err)
	benchmarks, err := entity.DefaultBenchmarks()
	require.NoError(t, err)
	return NewRouter(NewServices(tables, benchmarks, entity.DefaultOptions()), opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := do(t, h, http.MethodPost, "/v1/tax/compute", `{"tax_year":2025,"profile":`+wageProfile+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var pos domain.TaxPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.Equal(t, 2025, pos.TaxYear)
	assert.True(t, dec("12514").Equal(pos.TotalLiability), "total %s", pos.TotalLiability)
}

func TestCompute_DefaultsYearAndNormalizesStatus(t *testing.T) {
	h := newTestRouter(t, Options{})
	body := `{"profile":{"filing_status":"MFJ","state":"tx","taxpayer":{"age":40},"spouse":{"age":40},"income":[{"type":"w2_wages","amount":95000}]}}`

	rec := do(t, h, http.MethodPost, "/v1/tax/compute", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pos domain.TaxPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.Equal(t, 2025, pos.TaxYear)
	assert.Equal(t, domain.FilingMarriedJoint, pos.FilingStatus)
	assert.True(t, dec("7323").Equal(pos.TotalLiability), "total %s", pos.TotalLiability)
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t, Options{})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/v1/tax/compute", `{"profile":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", "/v1/tax/compute", `{"profile":` + wageProfile + `,"extra":1}`, http.StatusBadRequest, "bad_request"},
		{"missing profile", "/v1/tax/compute", `{"tax_year":2025}`, http.StatusUnprocessableEntity, "incomplete_profile"},
		{"missing state", "/v1/tax/compute", `{"profile":{"filing_status":"single","taxpayer":{"age":40}}}`, http.StatusUnprocessableEntity, "incomplete_profile"},
		{"negative income", "/v1/tax/compute", `{"profile":{"filing_status":"single","state":"TX","taxpayer":{"age":40},"income":[{"type":"w2_wages","amount":"-5"}]}}`, http.StatusBadRequest, "invalid_input"},
		{"unknown state", "/v1/tax/compute", `{"profile":{"filing_status":"single","state":"ZZ","taxpayer":{"age":40}}}`, http.StatusNotFound, "unsupported_jurisdiction"},
		{"unknown year", "/v1/tax/compute", `{"tax_year":1999,"profile":` + wageProfile + `}`, http.StatusNotFound, "unsupported_jurisdiction"},
		{"horizon too long", "/v1/projections", `{"profile":` + wageProfile + `,"horizon_years":51}`, http.StatusRequestEntityTooLarge, "computation_limit"},
		{"unknown mutation", "/v1/scenarios", `{"profile":` + wageProfile + `,"mutations":["win_lottery"]}`, http.StatusBadRequest, "bad_request"},
		{"negative mutation amount", "/v1/scenarios", `{"profile":` + wageProfile + `,"mutations":["set_hsa:amount=-1"]}`, http.StatusBadRequest, "invalid_input"},
		{"entity negative income", "/v1/entities/compare", `{"net_income":"-1","state":"TX"}`, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
			assert.Equal(t, rec.Header().Get(requestIDHeader), body.RequestID)
		})
	}
}

func TestEntities(t *testing.T) {
	h := newTestRouter(t, Options{})
	rec := do(t, h, http.MethodPost, "/v1/entities/compare",
		`{"net_income":"150000","occupation":"software developer","state":"TX","tax_year":2025,"salary":"80000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cmp domain.EntityComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, domain.EntitySCorp, cmp.Recommended)
	assert.Len(t, cmp.Options, 3)
}

func TestProjection(t *testing.T) {
	h := newTestRouter(t, Options{})
	body := `{"profile":` + wageProfile + `,"horizon_years":1,"assumptions":{"start_year":2025,"return_rate":"0.05","initial_balance":"10000","annual_contribution":"5000"}}`
	rec := do(t, h, http.MethodPost, "/v1/projections", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res domain.ProjectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Years, 1)
	assert.True(t, dec("1100").Equal(res.CumulativeSavings))
	assert.True(t, dec("15500").Equal(res.EndingBalance))
}

func TestRecommendations(t *testing.T) {
	h := newTestRouter(t, Options{})
	body := `{"tax_year":2025,"profile":{"filing_status":"single","state":"TX","taxpayer":{"age":40},"income":[{"type":"w2_wages","amount":"95000"}],"benefits":{"has_401k":true}}}`
	rec := do(t, h, http.MethodPost, "/v1/recommendations", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Position struct {
			TotalLiability decimal.Decimal `json:"total_liability"`
		} `json:"position"`
		Report struct {
			Recommendations []struct {
				ID       string `json:"id"`
				Priority string `json:"priority"`
			} `json:"recommendations"`
			HealthScore int `json:"health_score"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, dec("12514").Equal(resp.Position.TotalLiability))
	require.NotEmpty(t, resp.Report.Recommendations)
	assert.Equal(t, "max_401k", resp.Report.Recommendations[0].ID)
	assert.NotEmpty(t, resp.Report.Recommendations[0].Priority)
	assert.Less(t, resp.Report.HealthScore, 100)
}

func TestScenario(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := do(t, h, http.MethodPost, "/v1/scenarios",
		`{"tax_year":2025,"profile":`+wageProfile+`,"mutations":["set_retirement_contribution:amount=5000"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res domain.ScenarioResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, dec("-1100").Equal(res.NetTaxDelta), "delta %s", res.NetTaxDelta)

	rec = do(t, h, http.MethodPost, "/v1/scenarios",
		`{"tax_year":2025,"profile":`+wageProfile+`,"mutations":["set_hsa:amount=4300","add_dependent:age=5"],"each":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var results []domain.ScenarioResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, dec("-946").Equal(results[0].NetTaxDelta))
	assert.True(t, dec("-2000").Equal(results[1].NetTaxDelta))
}

func TestListings(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := do(t, h, http.MethodGet, "/v1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tables TablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Contains(t, tables.Years, 2025)
	assert.Contains(t, tables.States[2025], "CA")

	rec = do(t, h, http.MethodGet, "/v1/mutations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "set_filing_status")

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, Options{RatePerSecond: 0.001, Burst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t, Options{AllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/tax/compute", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor_Internal(t *testing.T) {
	status, detail := statusFor(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", detail.Code)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.ServerConfig{RatePerSecond: 5, Burst: 10, TimeoutSecs: 3, AllowedOrigins: []string{"*"}})
	assert.Equal(t, 5.0, opts.RatePerSecond)
	assert.Equal(t, 10, opts.Burst)
	assert.Equal(t, "3s", opts.Timeout.String())
}
