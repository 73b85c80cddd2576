package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/edulog/internal/adapters/repository"
)

// DefectsDependencies defines the interface for defect ranking.
type DefectsDependencies interface {
	TopDefects(ctx context.Context, n int) ([]repository.DefectEntry, error)
}

// DefectsHandler serves the defect ranking.
type DefectsHandler struct {
	deps     DefectsDependencies
	maxLimit int
}

// NewDefectsHandler creates a new defects handler.
func NewDefectsHandler(deps DefectsDependencies, maxLimit int) *DefectsHandler {
	if maxLimit < 1 {
		maxLimit = defaultTopLimit
	}
	return &DefectsHandler{deps: deps, maxLimit: maxLimit}
}

type defectResponse struct {
	Rank        int     `json:"rank"`
	DefectID    int     `json:"defect_id"`
	Name        string  `json:"name"`
	Severity    int     `json:"severity"`
	Occurrences int     `json:"occurrences"`
	First       int     `json:"first_occurrences"`
	MeanSince   float64 `json:"mean_since_last"`
}

// HandleGetTop handles GET /defects/top?limit=N. A missing limit means 10.
func (h *DefectsHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top_defects"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := min(defaultTopLimit, h.maxLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}

	entries, err := h.deps.TopDefects(r.Context(), n)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	out := make([]defectResponse, len(entries))
	for i, e := range entries {
		out[i] = defectResponse{
			Rank:        e.Rank,
			DefectID:    int(e.Defect),
			Name:        e.Name,
			Severity:    e.Severity,
			Occurrences: e.Occurrences,
			First:       e.First,
			MeanSince:   e.MeanSince,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
