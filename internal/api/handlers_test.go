package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qlab/internal/runner"
	"qlab/internal/sim"
)

func newRouter() *chi.Mux {
	h := NewHandler(runner.New(sim.New(6, 17), zerolog.Nop()), 1024, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Detail
}

func TestHandleRoot(t *testing.T) {
	rec := do(t, newRouter(), "GET", "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quantum Simulation API is running")

	rec = do(t, newRouter(), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandleRunCircuit(t *testing.T) {
	body := `{"qasm": "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[1];\ncreg c[1];\nx q[0];\nmeasure q[0] -> c[0];"}`
	rec := do(t, newRouter(), "POST", "/circuit/run-circuit/", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CircuitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, map[string]int{"1": 1024}, resp.Counts)
	assert.NotEmpty(t, resp.Histogram)
	assert.NotEmpty(t, resp.JobID)
}

func TestHandleRunCircuitBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing clbits", `{"qasm": "qreg q[1];\nh q[0];"}`, "missing classical measurement bits"},
		{"bad qasm", `{"qasm": "qreg q[1];\nwat q[0];"}`, "invalid circuit description"},
		{"zero shots", `{"qasm": "qreg q[1];\ncreg c[1];\nmeasure q[0] -> c[0];", "shots": 0}`, "shots must be positive"},
		{"too wide", `{"qasm": "qreg q[8];\ncreg c[1];\nmeasure q[0] -> c[0];"}`, "qubit limit"},
		{"no qasm", `{}`, "qasm is required"},
		{"not json", `{`, "malformed request"},
		{"huge register", `{"qasm": "qreg q[5000000];\ncreg c[5000000];\nh q;\nmeasure q -> c;"}`, "invalid circuit description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(), "POST", "/circuit/run-circuit/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			d := detail(t, rec)
			assert.True(t, strings.HasPrefix(d, "Bad Request: "), d)
			assert.Contains(t, d, tt.want)
		})
	}
}

func TestHandleSearch(t *testing.T) {
	rec := do(t, newRouter(), "POST", "/grover/search", `{"n": 2, "target": "11", "shots": 256}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Counts     map[string]int `json:"counts"`
		Found      string         `json:"found"`
		Success    bool           `json:"success"`
		Iterations int            `json:"iterations"`
		Blocks     []string       `json:"blocks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "11", resp.Found)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Iterations)
	assert.Len(t, resp.Blocks, 4)
	assert.Equal(t, 256, resp.Counts["11"])
}

func TestHandleSearchBadTarget(t *testing.T) {
	rec := do(t, newRouter(), "POST", "/grover/search", `{"n": 2, "target": "111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "invalid search target")

	rec = do(t, newRouter(), "POST", "/grover/search", `{"n": 0, "target": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "invalid search size")
}

func TestHandleSearchTooWide(t *testing.T) {
	for _, n := range []int{7, 32, 100} {
		body := fmt.Sprintf(`{"n": %d, "target": %q}`, n, strings.Repeat("1", n))
		rec := do(t, newRouter(), "POST", "/grover/search", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "n=%d", n)
		assert.Contains(t, detail(t, rec), "qubit limit", "n=%d", n)
	}
}

func TestHandlePortfolio(t *testing.T) {
	rec := do(t, newRouter(), "POST", "/portfolio/optimize", `{"maxiter": 60, "reps": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Tickers []string `json:"tickers"`
		QAOA    struct {
			Assets []string `json:"assets"`
		} `json:"qaoa"`
		Exact struct {
			Assets []string `json:"assets"`
		} `json:"exact"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Tickers, 4)
	assert.Len(t, resp.QAOA.Assets, 2)
	assert.Len(t, resp.Exact.Assets, 2)
}

func TestHandlePortfolioBadBudget(t *testing.T) {
	rec := do(t, newRouter(), "POST", "/portfolio/optimize", `{"budget": 7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "invalid portfolio problem")
}

func TestHandlePortfolioRejectsSizes(t *testing.T) {
	bodies := []string{
		`{"assets": -1}`,
		`{"assets": 0}`,
		`{"assets": 13}`,
		`{"reps": 0}`,
		`{"reps": 1000000000}`,
		`{"maxiter": -5}`,
		`{"maxiter": 1000000000}`,
	}
	for _, body := range bodies {
		rec := do(t, newRouter(), "POST", "/portfolio/optimize", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, detail(t, rec), "invalid portfolio problem", body)
	}
}

func TestPortfolioRequestScenario(t *testing.T) {
	assets, risk := 3, 0.9
	s := PortfolioRequest{Assets: &assets, RiskFactor: &risk}.Scenario()
	assert.Equal(t, 3, s.Assets)
	assert.Equal(t, 0.9, s.RiskFactor)
	assert.Equal(t, 2, s.Budget)
	assert.Equal(t, 3, s.Options.Reps)
}
