package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/edulog/internal/domain/model"
)

// RecencyDependencies defines the lookups behind the recency endpoints.
type RecencyDependencies interface {
	BySubmission(ctx context.Context, submissionID string) ([]model.RecencyRow, error)
	ByStudent(ctx context.Context, user string) ([]model.RecencyRow, error)
}

// RecencyHandler serves recency rows per submission and per student.
type RecencyHandler struct {
	deps RecencyDependencies
}

// NewRecencyHandler creates a new recency handler.
func NewRecencyHandler(deps RecencyDependencies) *RecencyHandler {
	return &RecencyHandler{deps: deps}
}

// HandleGetSubmission handles GET /recency/{submission_id}.
func (h *RecencyHandler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_submission_recency"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/recency/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.BySubmission(r.Context(), id)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rows))
}

// HandleGetStudent handles GET /students/{user_id}/recency.
func (h *RecencyHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_student_recency"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/students/")
	user, ok := strings.CutSuffix(rest, "/recency")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if user == "" || strings.Contains(user, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.ByStudent(r.Context(), user)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rows))
}
