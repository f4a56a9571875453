package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"slidecast/internal/api"
	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/session"
)

type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		logger: logger,
		daemon: d,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/upload", srv.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/api/generate", srv.handleGenerate).Methods(http.MethodPost)
	router.HandleFunc("/api/status/{session_id}", srv.handleSessionStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions", srv.handleSessions).Methods(http.MethodGet)
	router.HandleFunc("/api/session/{session_id}", srv.handleDeleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/api/daemon/status", srv.handleDaemonStatus).Methods(http.MethodGet)
	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.PathPrefix("/output/").Handler(
		http.StripPrefix("/output/", http.FileServer(http.Dir(cfg.Paths.OutputDir))),
	).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	srv.server = &http.Server{
		Handler:           cors(handlers.RecoveryHandler()(router)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the configured HTTP handler (used in tests).
func (s *apiServer) Handler() http.Handler {
	return s.server.Handler
}

// Addr reports the bound listen address, valid after start.
func (s *apiServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(mux.Vars(r)["session_id"])
	sess, err := s.daemon.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeJSON(w, http.StatusOK, api.NotFoundStatus(sessionID))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results, err := s.daemon.store.StageResults(r.Context(), sess.ID, sess.Attempt)
	if err != nil {
		s.log().Warn("failed to load stage results", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(sess, results))
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	var statuses []session.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := session.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, parsed)
	}

	sessions, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: api.SummarizeAll(sessions)})
}

func (s *apiServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(mux.Vars(r)["session_id"])
	if err := s.daemon.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "session_id": sessionID})
}

func (s *apiServer) handleDaemonStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.daemon.Dependencies()
	dependencies := make([]api.DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		dependencies = append(dependencies, api.DependencyStatus{
			Name:      status.Name,
			Available: status.Available,
			Detail:    status.Detail,
			Solution:  status.Solution,
		})
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:       "ok",
		Version:      Version,
		Dependencies: dependencies,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Status: "error", Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
