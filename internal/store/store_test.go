package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

type fakeRevisions map[string]*Revision

func (f fakeRevisions) LatestRevision(_ context.Context, shapeID string) (*Revision, error) {
	if shapeID == "broken" {
		return nil, errors.New("connection reset")
	}
	rev, ok := f[shapeID]
	if !ok {
		return nil, ErrNotFound
	}
	return rev, nil
}

func serve(h *Handler, shapeID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/shapes/{shapeId}/revisions/latest", h.GetLatestRevision)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shapes/"+shapeID+"/revisions/latest", nil))
	return rec
}

func TestGetLatestRevision(t *testing.T) {
	h := NewHandler(fakeRevisions{
		"shape_a": {ID: "rev_1", ShapeID: "shape_a", Version: 3, Path: "M0 0 L1 1 M2 2 L3 3"},
	})

	rec := serve(h, "shape_a")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Revision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int32(3), got.Version)
	assert.Equal(t, "M0 0 L1 1 M2 2 L3 3", got.Path)

	assert.Equal(t, http.StatusNotFound, serve(h, "shape_b").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(h, "broken").Code)
}

// TestRevisionsRoundTrip needs a scratch database in TEST_DATABASE_URL.
func TestRevisionsRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	shape := document.Shape{
		ID:        typeid.NewShapeID(),
		Path:      "M0 0 L10 0 Z M5 5 L6 6 Z",
		Transform: document.Transform{X: 10, Y: 20, SX: 2, SY: 2, R: 45},
	}
	_, err = s.LatestRevision(ctx, shape.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	missing, err := s.LoadShape(ctx, shape.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := s.SaveRevision(ctx, shape, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.Version)

	shape.Path = "M0 0 L10 0 Z"
	second, err := s.SaveRevision(ctx, shape, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), second.Version)

	latest, err := s.LatestRevision(ctx, shape.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "M0 0 L10 0 Z", latest.Path)
	assert.Equal(t, shape.Transform, latest.Transform)

	require.NoError(t, s.SaveShape(ctx, shape, "user_2"))
	loaded, err := s.LoadShape(ctx, shape.ID)
	require.NoError(t, err)
	assert.Equal(t, shape.Path, loaded.Path)
	assert.Equal(t, shape.Transform, loaded.Transform)
}
