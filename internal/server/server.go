// Package server exposes a running sync session over a unix socket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/launchconfig"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Session is the part of a sync session the server reads from.
type Session interface {
	Models() map[string]*launchconfig.Model
	Sync() error
	OnDidChangeCurrentModel(fn func()) func()
	OnTempContentDidChange(fn func(launch.Content)) func()
}

// Update is one streamed event.
type Update struct {
	Type    string              `json:"type"`
	Models  []launchconfig.View `json:"models,omitempty"`
	Content *launch.Content     `json:"content,omitempty"`
	At      time.Time           `json:"at"`
}

// Update types.
const (
	UpdateInitial = "initial"
	UpdateModels  = "models"
	UpdateContent = "content"
)

// Server serves the session API.
type Server struct {
	logger   *logrus.Entry
	session  Session
	server   *http.Server
	updates  event.Emitter[Update]
	unsub    []func()
	upgrader websocket.Upgrader
}

// New creates a Server and starts relaying session events.
func New(session Session, logger *logrus.Entry) *Server {
	s := &Server{
		logger:  logger,
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.unsub = append(s.unsub,
		session.OnDidChangeCurrentModel(func() {
			s.updates.Fire(Update{Type: UpdateModels, Models: s.views(), At: time.Now()})
		}),
		session.OnTempContentDidChange(func(c launch.Content) {
			s.updates.Fire(Update{Type: UpdateContent, Content: &c, At: time.Now()})
		}),
	)
	return s
}

// Handler builds the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/reconcile", s.handleReconcile)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe serves on the unix socket at socketPath until Shutdown.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.Handler()}
	s.logger.WithField("socket", socketPath).Info("API listening")
	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server and the event relay.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, fn := range s.unsub {
		fn()
	}
	s.updates.Dispose()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) views() []launchconfig.View {
	return launchconfig.Views(s.session.Models())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.views())
}

// handleReconcile runs a pass immediately and reports its outcome.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.session.Sync(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.views())
}

// handleStream sends updates as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.updates.Subscribe(16)
	defer s.updates.Unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	s.writeEvent(w, Update{Type: UpdateInitial, Models: s.views(), At: time.Now()})
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			s.writeEvent(w, update)
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, u Update) {
	data, err := json.Marshal(u)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal update")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Type, data)
}

// handleWebSocket streams the same updates over a websocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.updates.Subscribe(16)
	defer s.updates.Unsubscribe(ch)

	// The read loop only notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(Update{Type: UpdateInitial, Models: s.views(), At: time.Now()}); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case update, ok := <-ch:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
