package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// RevisionReader is the read side of the store used by HTTP handlers.
type RevisionReader interface {
	LatestRevision(ctx context.Context, shapeID string) (*Revision, error)
}

type Handler struct {
	revisions RevisionReader
}

func NewHandler(revisions RevisionReader) *Handler {
	return &Handler{revisions: revisions}
}

func (h *Handler) GetLatestRevision(w http.ResponseWriter, r *http.Request) {
	shapeID := mux.Vars(r)["shapeId"]

	rev, err := h.revisions.LatestRevision(r.Context(), shapeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no revision for shape"})
			return
		}
		slog.Error("get latest revision failed", "error", err, "shape", shapeID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, rev)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
