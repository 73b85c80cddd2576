// Package api serves read-only HTTP endpoints over a computed recency report.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/edulog/internal/adapters/repository"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/prioritize"
	"github.com/okian/edulog/internal/domain/recency"
)

const defaultTopLimit = 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	BySubmission(ctx context.Context, submissionID string) ([]model.RecencyRow, error)
	ByStudent(ctx context.Context, user string) ([]model.RecencyRow, error)
	TopDefects(ctx context.Context, n int) ([]repository.DefectEntry, error)
}

// Server wires HTTP routes for the report API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	recencyHandler *RecencyHandler
	defectsHandler *DefectsHandler

	prioritizeHandler *PrioritizeHandler
}

// NewServer creates a new API server with all handlers.
// maxLimit bounds the limit accepted by /defects/top.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		recencyHandler: NewRecencyHandler(deps),
		defectsHandler: NewDefectsHandler(deps, maxLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/recency/", MetricsMiddleware(s.recencyHandler.HandleGetSubmission, "recency"))
	mux.HandleFunc("/students/", MetricsMiddleware(s.recencyHandler.HandleGetStudent, "students"))
	mux.HandleFunc("/defects/top", MetricsMiddleware(s.defectsHandler.HandleGetTop, "defects_top"))
	if s.prioritizeHandler != nil {
		mux.HandleFunc("/prioritize/", MetricsMiddleware(s.prioritizeHandler.HandleGetSubmission, "prioritize"))
	}
}

// rowResponse is the JSON shape of one recency row. SinceLast is null for
// a first occurrence.
type rowResponse struct {
	SubmissionID    string    `json:"submission_id"`
	User            string    `json:"user"`
	Item            string    `json:"item"`
	Time            time.Time `json:"time"`
	DefectID        int       `json:"defect_id"`
	DefectName      string    `json:"defect_name"`
	Severity        int       `json:"severity"`
	Position        int       `json:"position"`
	FirstOccurrence bool      `json:"first_occurrence"`
	SinceLast       *int      `json:"since_last"`
	Level           int       `json:"level"`
}

func toResponse(rows []model.RecencyRow) []rowResponse {
	out := make([]rowResponse, len(rows))
	for i := range rows {
		r := &rows[i]
		out[i] = rowResponse{
			SubmissionID:    r.SubmissionID,
			User:            r.User,
			Item:            r.Item,
			Time:            r.Time,
			DefectID:        int(r.Defect),
			DefectName:      r.DefectName,
			Severity:        r.Severity,
			Position:        r.Position,
			FirstOccurrence: r.First,
			Level:           recency.Discretize(recency.ValueOf(r)),
		}
		if !r.First {
			since := r.Since
			out[i].SinceLast = &since
		}
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps store errors to HTTP statuses.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, prioritize.ErrUnknownSubmission):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest),
		errors.Is(err, prioritize.ErrUnknownHeuristic):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
