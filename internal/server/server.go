// Package server serves the slice viewer to browsers over HTTP and WebSocket.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/philipparndt/stlslice/internal/config"
	"github.com/philipparndt/stlslice/internal/session"
)

//go:embed static/index.html
var static embed.FS

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// SelectRequest is sent by clients when the slider or the crop box changes.
// Missing fields keep their current value.
type SelectRequest struct {
	Percent *float64 `json:"percent"`
	Crop    *bool    `json:"crop"`
}

// Server exposes a session to browser clients
type Server struct {
	sess     *session.Session
	cfg      *config.Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// mu guards clients and serializes writes to them
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New creates a server for sess
func New(sess *session.Session, cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sess:   sess,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes of the viewer
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/depths", s.handleDepths)
	mux.HandleFunc("GET /api/overlay.png", s.handleOverlay)
	mux.HandleFunc("GET /api/scene.png", s.handleScene)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", "http://"+s.cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked WebSocket connections are not closed by Shutdown
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Broadcast sends the current state to every connected client
func (s *Server) Broadcast() {
	data, err := json.Marshal(s.sess.Snapshot())
	if err != nil {
		s.logger.Error("failed to encode state", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := s.write(conn, data); err != nil {
			s.logger.Warn("websocket write failed", "remote", conn.RemoteAddr(), "error", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// write sends one text message; callers hold s.mu
func (s *Server) write(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sess.Snapshot())
}

func (s *Server) handleDepths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sess.Depths())
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.sess.OverlayPNG(&buf); err != nil {
		s.imageError(w, err)
		return
	}
	writePNG(w, buf.Bytes())
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	yaw, err := floatParam(r, "yaw", 0.6)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pitch, err := floatParam(r, "pitch", 0.4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := s.sess.ScenePNG(&buf, yaw, pitch); err != nil {
		s.imageError(w, err)
		return
	}
	writePNG(w, buf.Bytes())
}

func (s *Server) imageError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNoSlice) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Error("failed to render image", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	data, err := json.Marshal(s.sess.Snapshot())
	if err != nil {
		conn.Close()
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	err = s.write(conn, data)
	s.mu.Unlock()
	if err != nil {
		s.drop(conn)
		return
	}
	s.logger.Debug("websocket client connected", "remote", conn.RemoteAddr())

	defer func() {
		s.drop(conn)
		s.logger.Debug("websocket client disconnected", "remote", conn.RemoteAddr())
	}()

	// only the newest unprocessed request is kept
	pending := make(chan SelectRequest, 1)
	go s.readRequests(conn, pending)

	for req := range pending {
		s.apply(req)
		s.Broadcast()
	}
}

// readRequests decodes client messages into pending, replacing a request that
// was not picked up yet. pending is closed when the connection ends.
func (s *Server) readRequests(conn *websocket.Conn, pending chan SelectRequest) {
	defer close(pending)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req SelectRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.logger.Warn("invalid websocket message", "remote", conn.RemoteAddr(), "error", err)
			continue
		}

		select {
		case <-pending:
		default:
		}
		pending <- req
	}
}

func (s *Server) apply(req SelectRequest) {
	if _, err := s.sess.Update(req.Percent, req.Crop); err != nil && !errors.Is(err, session.ErrNoSlice) {
		s.logger.Error("failed to select slice", "error", err)
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, conn)
	conn.Close()
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}
