package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handler issues editor tokens to a trusted operator. Requests must carry
// the operator key in the X-Operator-Key header; with no key configured the
// endpoint is disabled.
type Handler struct {
	service     *Service
	operatorKey string
}

func NewHandler(service *Service, operatorKey string) *Handler {
	return &Handler{service: service, operatorKey: operatorKey}
}

type issueRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TTLSeconds  int    `json:"ttlSeconds"`
}

type issueResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.operatorKey == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "token issuing disabled"})
		return
	}
	key := r.Header.Get("X-Operator-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.operatorKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid operator key"})
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId and displayName are required"})
		return
	}

	user := User{ID: req.UserID, DisplayName: req.DisplayName}
	token, err := h.service.IssueToken(user, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, issueResponse{Token: token, User: user})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
