package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"barbercal/internal/config"
	"barbercal/internal/deliver"
	"barbercal/internal/ics"
	appLog "barbercal/internal/log"
	"barbercal/internal/metrics"
	"barbercal/internal/model"
	"barbercal/internal/parser"
	"barbercal/internal/session"
)

// maxPasteBytes bounds POST /api/parse bodies.
const maxPasteBytes = 1 << 20

// Server provides the paste-and-download UI and its JSON API.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	parser  *parser.Parser
	format  *ics.Formatter
	metrics *metrics.Collector

	// Latest parse pass shared by all clients; a pass replaces it wholesale.
	stateMu sync.RWMutex
	state   session.State
}

// embeddedStatic contains the single-page UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. m may be nil, in which case a private
// collector is created.
func NewServer(cfg *config.Config, m *metrics.Collector) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		parser: parser.New(parser.Options{
			Location: resolveLocationOrLocal(cfg.Timezone),
			ShopName: cfg.ShopName,
		}),
		format: &ics.Formatter{
			ProductID: cfg.ProductID,
			UIDDomain: cfg.UIDDomain,
			Repeat:    cfg.Repeat,
		},
		metrics: m,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="barbercal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, m *metrics.Collector) error {
	s := NewServer(cfg, m)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("GET /api/appointments", s.handleAppointments)
	s.mux.HandleFunc("GET /api/appointments/{index}/ics", s.handleICS)
	s.mux.HandleFunc("GET /api/appointments/{index}/occurrences", s.handleOccurrences)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// Embedded UI. All non-/api/* paths fall back to this handler.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded files from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Never answer /api/* with HTML.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// parseRequest is the JSON form of POST /api/parse.
type parseRequest struct {
	Text string `json:"text"`
}

// parseResponse is the JSON response shape for /api/parse and
// /api/appointments.
type parseResponse struct {
	Appointments []model.Appointment `json:"appointments"`
	Message      string              `json:"message,omitempty"`
}

// handleParse runs a parse pass over the request body and replaces the
// shared result set.
//
// POST /api/parse
//   - text/plain (or anything else): the body is the pasted text
//   - application/json: {"text": "..."}
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text, err := readPaste(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.stateMu.Lock()
	perr := s.state.Run(s.parser, text, s.metrics)
	snap := s.state.Snapshot()
	s.stateMu.Unlock()

	resp := parseResponse{Appointments: nonNil(snap.Results), Message: snap.Message}

	status := http.StatusOK
	var fe *parser.FailureError
	switch {
	case perr == nil:
	case errors.As(perr, &fe):
		status = http.StatusInternalServerError
	default:
		status = http.StatusUnprocessableEntity
	}

	appLog.Info("api parse request",
		"bytes", len(text),
		"appointments", len(snap.Results),
		"status", status,
	)
	writeJSON(w, status, resp)
}

func readPaste(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPasteBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxPasteBytes {
		return "", errors.New("request body too large")
	}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return string(body), nil
	}

	var req parseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return req.Text, nil
}

func (s *Server) handleAppointments(w http.ResponseWriter, _ *http.Request) {
	s.stateMu.RLock()
	snap := s.state.Snapshot()
	s.stateMu.RUnlock()

	writeJSON(w, http.StatusOK, parseResponse{Appointments: nonNil(snap.Results), Message: snap.Message})
}

// appointmentAt resolves the {index} path value against the current results.
func (s *Server) appointmentAt(w http.ResponseWriter, r *http.Request) (model.Appointment, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return model.Appointment{}, false
	}

	s.stateMu.RLock()
	appt, ok := s.state.At(idx)
	s.stateMu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "no appointment at that index")
		return model.Appointment{}, false
	}
	return appt, true
}

// handleICS serves one appointment as a downloadable .ics document.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	appt, ok := s.appointmentAt(w, r)
	if !ok {
		return
	}

	body := s.format.Format(appt)
	name := deliver.FileName(s.cfg.FilePrefix, appt)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)

	s.metrics.ObserveExport("download", 1)
}

// occurrenceDTO is a JSON-friendly view of one repeat instance.
type occurrenceDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// handleOccurrences previews the configured repeat rule for one appointment.
//
// GET /api/appointments/{index}/occurrences?limit=10
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	appt, ok := s.appointmentAt(w, r)
	if !ok {
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), ics.DefaultOccurrenceLimit)
	occ, err := ics.Occurrences(appt, s.cfg.Repeat, limit)
	if err != nil {
		appLog.Error("api occurrences failed", err, "rule", s.cfg.Repeat)
		writeError(w, http.StatusInternalServerError, "failed to expand repeat rule")
		return
	}

	dtos := make([]occurrenceDTO, 0, len(occ))
	for _, o := range occ {
		dtos = append(dtos, occurrenceDTO{
			Start: o.Start.Format("2006-01-02T15:04:05"),
			End:   o.End.Format("2006-01-02T15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rule":        s.cfg.Repeat,
		"occurrences": dtos,
	})
}

func nonNil(a []model.Appointment) []model.Appointment {
	if a == nil {
		return []model.Appointment{}
	}
	return a
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
