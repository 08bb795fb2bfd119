// Package api exposes the runner and the portfolio solver over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"qlab/internal/circuit"
	"qlab/internal/grover"
	"qlab/internal/portfolio"
	"qlab/internal/runner"
	"qlab/internal/sim"
	"qlab/pkg/logger"
)

// Handler serves the simulation endpoints.
type Handler struct {
	runner       *runner.Runner
	defaultShots int
	log          zerolog.Logger
}

// NewHandler creates a handler. Requests that omit shots use defaultShots.
func NewHandler(r *runner.Runner, defaultShots int, log zerolog.Logger) *Handler {
	return &Handler{
		runner:       r,
		defaultShots: defaultShots,
		log:          logger.Component(log, "api"),
	}
}

// inputErrors are failures caused by the request rather than the server.
var inputErrors = []error{
	circuit.ErrParse,
	sim.ErrNoClassicalBits,
	sim.ErrInvalidShots,
	sim.ErrTooManyQubits,
	grover.ErrInvalidSize,
	grover.ErrInvalidTarget,
	portfolio.ErrInvalidProblem,
	errBadRequest,
}

var errBadRequest = errors.New("malformed request")

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeFailure maps err to a 400 or 500 response.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	if isInputError(err) {
		h.log.Warn().Err(err).Msg("Rejected request")
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Bad Request: " + err.Error()})
		return
	}
	h.log.Error().Err(err).Msg("Request failed")
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal Server Error during simulation: " + err.Error()})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) shots(s *int) int {
	if s == nil {
		return h.defaultShots
	}
	return *s
}

// HandleRoot reports that the service is up.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Quantum Simulation API is running. POST a circuit to /circuit/run-circuit/.",
	})
}

// HandleHealth handles health check requests
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "qlab",
	})
}

// CircuitRequest is the body of POST /circuit/run-circuit/.
type CircuitRequest struct {
	QASM  string `json:"qasm"`
	Shots *int   `json:"shots,omitempty"`
}

// CircuitResponse mirrors the counts and histogram of a run.
type CircuitResponse struct {
	Counts    map[string]int `json:"counts"`
	Histogram string         `json:"histogram_image_png_base64"`
	JobID     string         `json:"job_id"`
}

// HandleRunCircuit runs an OpenQASM 2.0 program.
func (h *Handler) HandleRunCircuit(w http.ResponseWriter, r *http.Request) {
	var req CircuitRequest
	if err := decode(r, &req); err != nil {
		h.writeFailure(w, err)
		return
	}
	if req.QASM == "" {
		h.writeFailure(w, fmt.Errorf("%w: qasm is required", errBadRequest))
		return
	}

	out, err := h.runner.RunSimulation(r.Context(), req.QASM, h.shots(req.Shots))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CircuitResponse{
		Counts:    out.Counts,
		Histogram: out.Histogram,
		JobID:     out.JobID,
	})
}

// SearchRequest is the body of POST /grover/search.
type SearchRequest struct {
	N      int    `json:"n"`
	Target string `json:"target"`
	Shots  *int   `json:"shots,omitempty"`
}

// HandleSearch plans and runs a Grover search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		h.writeFailure(w, err)
		return
	}

	out, err := h.runner.Search(r.Context(), req.N, req.Target, h.shots(req.Shots))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// PortfolioRequest overrides fields of the default portfolio problem.
type PortfolioRequest struct {
	Assets     *int     `json:"assets,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
	RiskFactor *float64 `json:"risk_factor,omitempty"`
	Budget     *int     `json:"budget,omitempty"`
	Reps       *int     `json:"reps,omitempty"`
	MaxIter    *int     `json:"maxiter,omitempty"`
}

// Scenario applies the overrides to the default problem.
func (req PortfolioRequest) Scenario() portfolio.Scenario {
	s := portfolio.DefaultScenario()
	if req.Assets != nil {
		s.Assets = *req.Assets
	}
	if req.Seed != nil {
		s.Seed = *req.Seed
	}
	if req.RiskFactor != nil {
		s.RiskFactor = *req.RiskFactor
	}
	if req.Budget != nil {
		s.Budget = *req.Budget
	}
	if req.Reps != nil {
		s.Options.Reps = *req.Reps
	}
	if req.MaxIter != nil {
		s.Options.MaxIter = *req.MaxIter
	}
	return s
}

// HandlePortfolio solves a generated portfolio problem with QAOA and exactly.
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.writeFailure(w, err)
			return
		}
	}

	rep, err := portfolio.Run(r.Context(), req.Scenario())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.log.Info().
		Strs("qaoa", rep.QAOA.Assets).
		Strs("exact", rep.Exact.Assets).
		Bool("optimal", rep.Optimal).
		Msg("Portfolio optimized")
	h.writeJSON(w, http.StatusOK, rep)
}
