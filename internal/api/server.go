// Package api exposes window listing and scrolling captures over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/export"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	windows  window.Lister
	worker   *scrolling.Worker
	writer   *export.Writer
	jobs     *jobStore
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	http *http.Server
}

// NewServer creates a new API server. Captures run on worker; when writer is
// non-nil every finished capture is also saved to disk.
func NewServer(windows window.Lister, worker *scrolling.Worker, writer *export.Writer) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:  mux.NewRouter(),
		windows: windows,
		worker:  worker,
		writer:  writer,
		jobs:    newJobStore(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")

	api.HandleFunc("/captures", s.handleCreateCapture).Methods("POST")
	api.HandleFunc("/captures/{id}", s.handleGetCapture).Methods("GET")
	api.HandleFunc("/captures/{id}", s.handleCancelCapture).Methods("DELETE")
	api.HandleFunc("/captures/{id}/image", s.handleGetImage).Methods("GET")
	api.HandleFunc("/captures/{id}/events", s.handleCaptureEvents)
}

// Handler returns the HTTP handler with CORS applied
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start listens on port and blocks until Shutdown
func (s *Server) Start(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil
	}
	s.http = srv
	s.mu.Unlock()

	logger.WithComponent("api").Info().
		Int("port", port).
		Msgf("Starting server on http://localhost:%d", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels running captures and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.windows.ListWindows()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

// captureRequest selects the target like the CLI flags do
type captureRequest struct {
	WindowID      string `json:"window_id"`
	Title         string `json:"title"`
	Class         string `json:"class"`
	MaxIterations int    `json:"max_iterations"`
}

func (s *Server) handleCreateCapture(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	var req captureRequest
	// An empty body captures the focused window
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.MaxIterations < 0 {
		http.Error(w, "max_iterations cannot be negative", http.StatusBadRequest)
		return
	}

	query := window.Query{Title: req.Title, Class: req.Class}
	if req.WindowID != "" {
		h, err := window.ParseHandle(req.WindowID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query.ID = h
	}
	target, err := window.Select(s.windows, query)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, window.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, window.ErrInvalidPattern):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	id := s.jobs.create(target.Handle, cancel)

	done, err := s.worker.TrySubmit(ctx, scrolling.Request{
		Target:        target.Handle,
		MaxIterations: req.MaxIterations,
		Observer: func(ev scrolling.Event) {
			s.jobs.observe(id, ev)
		},
	})
	if err != nil {
		s.jobs.finish(id, nil, err, "")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	go s.await(id, target.Title, done)

	log.Info().
		Str("job_id", id).
		Str("window_id", target.Handle.String()).
		Str("title", target.Title).
		Msg("Capture queued")

	status, _ := s.jobs.get(id)
	w.Header().Set("Location", "/api/captures/"+id)
	writeJSON(w, http.StatusAccepted, status)
}

// await records the outcome of a submitted capture
func (s *Server) await(id, title string, done <-chan scrolling.Outcome) {
	log := logger.WithComponent("api")
	out := <-done

	var savedPath string
	if s.writer != nil && out.Result != nil && out.Result.Image != nil {
		path, err := s.writer.Save(out.Result.Image, title)
		if err != nil {
			log.Error().Err(err).Str("job_id", id).Msg("Failed to save capture")
		} else {
			savedPath = path
		}
	}

	st := s.jobs.finish(id, out.Result, out.Err, savedPath)
	log.Info().
		Str("job_id", id).
		Str("state", string(st.State)).
		Int("frames", st.Frames).
		Int("height", st.Height).
		Msg("Capture finished")
}

func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	status, ok := s.jobs.get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "capture not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancelCapture(w http.ResponseWriter, r *http.Request) {
	state, ok := s.jobs.cancel(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "capture not found", http.StatusNotFound)
		return
	}
	if state.Finished() {
		http.Error(w, fmt.Sprintf("capture already %s", state), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, state, ok := s.jobs.image(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "capture not found", http.StatusNotFound)
		return
	}
	if img == nil {
		http.Error(w, fmt.Sprintf("capture has no image (state %s)", state), http.StatusConflict)
		return
	}

	format, err := export.NormalizeFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	if err := export.Encode(w, img, format, export.DefaultQuality); err != nil {
		logger.WithComponent("api").Error().Err(err).Msg("Failed to encode image")
	}
}

func (s *Server) handleCaptureEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")
	id := mux.Vars(r)["id"]

	// Subscribe before upgrading so no event is missed once the client is connected
	updates, ok := s.jobs.subscribe(id)
	if !ok {
		http.Error(w, "capture not found", http.StatusNotFound)
		return
	}
	defer s.jobs.unsubscribe(id, updates)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	for msg := range updates {
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "capture finished"),
		time.Now().Add(time.Second))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
