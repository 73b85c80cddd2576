package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/edulog/internal/domain/prioritize"
)

// Heuristics used when the query does not name them.
const (
	defaultPrimary   = prioritize.Encountered
	defaultSecondary = prioritize.Severity
)

// PrioritizeDependencies defines the ranking behind the prioritize endpoint.
type PrioritizeDependencies interface {
	Prioritize(ctx context.Context, submissionID string, primary, secondary prioritize.Heuristic) ([]prioritize.Ranked, error)
}

// PrioritizeHandler serves defect rankings per submission.
type PrioritizeHandler struct {
	deps PrioritizeDependencies
}

// NewPrioritizeHandler creates a new prioritize handler.
func NewPrioritizeHandler(deps PrioritizeDependencies) *PrioritizeHandler {
	return &PrioritizeHandler{deps: deps}
}

type rankedResponse struct {
	Rank      int     `json:"rank"`
	DefectID  int     `json:"defect_id"`
	Name      string  `json:"name"`
	Severity  int     `json:"severity"`
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
}

type prioritizeResponse struct {
	SubmissionID string           `json:"submission_id"`
	Primary      string           `json:"primary"`
	Secondary    string           `json:"secondary"`
	Defects      []rankedResponse `json:"defects"`
}

// HandleGetSubmission handles GET /prioritize/{submission_id}?by=&then=.
func (h *PrioritizeHandler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.prioritize_submission"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/prioritize/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	primary, secondary := defaultPrimary, defaultSecondary
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *prioritize.Heuristic
	}{{"by", &primary}, {"then", &secondary}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		parsed, err := prioritize.ParseHeuristic(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
			return
		}
		*p.dst = parsed
	}

	ranked, err := h.deps.Prioritize(r.Context(), id, primary, secondary)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	out := prioritizeResponse{
		SubmissionID: id,
		Primary:      string(primary),
		Secondary:    string(secondary),
		Defects:      make([]rankedResponse, len(ranked)),
	}
	for i, d := range ranked {
		out.Defects[i] = rankedResponse{
			Rank:      d.Rank,
			DefectID:  int(d.Defect),
			Name:      d.Name,
			Severity:  d.Severity,
			Primary:   d.Primary,
			Secondary: d.Secondary,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
