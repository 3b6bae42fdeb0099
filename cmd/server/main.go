package main

import (
	"context"
	"encoding/json"
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

	"github.com/cutline/cutline/backend-go/internal/auth"
	"github.com/cutline/cutline/backend-go/internal/config"
	"github.com/cutline/cutline/backend-go/internal/db"
	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/media"
	mw "github.com/cutline/cutline/backend-go/internal/middleware"
	"github.com/cutline/cutline/backend-go/internal/project"
	"github.com/cutline/cutline/backend-go/internal/session"
	"github.com/cutline/cutline/backend-go/internal/thumbs"
	"github.com/cutline/cutline/backend-go/internal/update"
	"github.com/cutline/cutline/backend-go/internal/waveform"
)

// playgroundProjectID is the shared demo timeline; it allows anonymous
// access and is never persisted.
const playgroundProjectID = "proj_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := db.NewStore(pool)

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(store)
	projectHandler := project.NewHandler(projectService)

	mediaHandler := media.NewHandler(cfg.MediaDir)

	thumbProvider, err := thumbs.NewProvider(cfg.FfmpegPath, cfg.MediaDir, cfg.ThumbCacheDir, cfg.ThumbCacheDB, slog.Default())
	if err != nil {
		slog.Error("open thumbnail cache", "error", err)
		os.Exit(1)
	}
	thumbProvider.Start(cfg.ThumbWorkers)
	defer thumbProvider.Close()

	waveCompute := waveform.NewFFmpegComputer(cfg.FfmpegPath, mediaHandler.Resolve, cfg.WaveformDir, slog.Default())

	// Room factory: loads the latest snapshot and builds the session room
	// for a project when its first client joins.
	roomFactory := func(projectID string) (*session.Room, error) {
		log := slog.Default().With("project", projectID)
		waves := waveform.NewBatcher(waveCompute, log)

		if projectID == playgroundProjectID {
			doc := document.NewSampleDoc(projectID)
			return session.NewRoom(projectID, doc, session.RoomConfig{
				Updates: &update.Recorder{},
				Waves:   waves,
				Thumbs:  thumbProvider,
				Log:     log,
			}), nil
		}

		snap, err := store.GetLatestSnapshot(context.Background(), projectID)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		var doc document.Doc
		if err := json.Unmarshal(snap.Document, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}

		snapshots := update.NewSnapshotStore(store, projectID, &doc)
		return session.NewRoom(projectID, &doc, session.RoomConfig{
			Updates: snapshots,
			Waves:   waves,
			Thumbs:  thumbProvider,
			Flush:   snapshots.Flush,
			Log:     log,
		}), nil
	}

	hub := session.NewHub(roomFactory)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Media endpoints (public — used by playground and authenticated users)
	r.HandleFunc("/media/upload", mediaHandler.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/media", mediaHandler.List).Methods("GET")
	r.PathPrefix("/media/").Handler(mediaHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/invite", projectHandler.Invite).Methods("POST")
	api.HandleFunc("/projects/{projectId}/members", projectHandler.ListMembers).Methods("GET")
	api.HandleFunc("/projects/{projectId}/members/{userId}", projectHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/snapshots/latest", projectHandler.GetLatestSnapshot).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, store)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop rooms first so every open timeline flushes a snapshot
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, store *db.Store) {
	vars := mux.Vars(r)
	projectID := vars["projectId"]

	var userID string
	var displayName string

	// Playground project allows anonymous access
	if projectID == playgroundProjectID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real projects
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// Check membership
		if _, err := store.GetProjectMember(r.Context(), projectID, userID); err != nil {
			http.Error(w, "not a project member", http.StatusForbidden)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:5173", "localhost:3000"},
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(hub, conn, userID, displayName, projectID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
