package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/inamate/pathedit/internal/auth"
	"github.com/inamate/inamate/pathedit/internal/collab"
	"github.com/inamate/inamate/pathedit/internal/config"
	mw "github.com/inamate/inamate/pathedit/internal/middleware"
	"github.com/inamate/inamate/pathedit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a database, edits live only as long as their room.
	var (
		revisions *store.Store
		loader    collab.Loader
		saver     collab.Saver
	)
	if cfg.DatabaseURL != "" {
		revisions, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer revisions.Close()
		loader = revisions.LoadShape
		saver = revisions.SaveShape
	} else {
		slog.Warn("DATABASE_URL not set, path edits will not be persisted")
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService, cfg.OperatorKey)

	hub := collab.NewHub(cfg.EngineOptions(logger), loader, saver)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.CORSOrigins()))

	r.HandleFunc("/auth/token", authHandler.IssueToken).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if revisions != nil {
		revisionHandler := store.NewHandler(revisions)

		api := r.PathPrefix("/api").Subrouter()
		api.Use(authService.AuthMiddleware)
		api.HandleFunc("/shapes/{shapeId}/revisions/latest", revisionHandler.GetLatestRevision).Methods("GET")
	}

	// WebSocket endpoint
	r.HandleFunc("/ws/shape/{shapeId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all edited shapes
		slog.Info("saving edited shapes...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "persistent", revisions != nil, "requireAuth", cfg.RequireAuth)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, cfg *config.Config) {
	shapeID := mux.Vars(r)["shapeId"]

	var userID, displayName string

	// Auth via query param, since browsers cannot set headers on websocket requests
	if token := r.URL.Query().Get("token"); token != "" {
		user, err := authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, displayName = user.ID, user.DisplayName
	} else if cfg.RequireAuth {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	} else {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: cfg.Origins(),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, shapeID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
