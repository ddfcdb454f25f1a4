// Package httpserver terminates the wire schema over HTTP: the
// WebSocket upgrade route plus the ambient health/stats endpoints,
// adapting the teacher's pkg/server.Server routing.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/catalyst-ai-dev/white-room/internal/auth"
	"github.com/catalyst-ai-dev/white-room/internal/engine"
	"github.com/catalyst-ai-dev/white-room/internal/logging"
	"github.com/catalyst-ai-dev/white-room/internal/session"
	"github.com/catalyst-ai-dev/white-room/internal/storage"
	"github.com/catalyst-ai-dev/white-room/internal/transport"
)

// Server is the HTTP entry point: it upgrades WebSocket connections
// for the collaboration socket route and serves two minimal ambient
// endpoints (health, stats).
type Server struct {
	mux       *http.ServeMux
	engine    *engine.Engine
	fabric    *session.Fabric
	store     *storage.Store // nil when persistence is disabled
	decoder   auth.TokenDecoder
	log       *logging.Logger
	startTime time.Time

	lastAccessMu sync.Mutex
	lastAccess   map[string]time.Time
}

// New wires a Server around its collaborators. store may be nil.
func New(eng *engine.Engine, fab *session.Fabric, store *storage.Store, decoder auth.TokenDecoder, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	s := &Server{
		mux:        http.NewServeMux(),
		engine:     eng,
		fabric:     fab,
		store:      store,
		decoder:    decoder,
		log:        log,
		startTime:  time.Now(),
		lastAccess: make(map[string]time.Time),
	}
	s.mux.HandleFunc("/api/socket/", s.handleSocket)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleSocket upgrades /api/socket/{editorId} and runs the session's
// read loop until the connection closes.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	editorID := strings.TrimPrefix(r.URL.Path, "/api/socket/")
	if editorID == "" {
		http.Error(w, "editor id required", http.StatusBadRequest)
		return
	}

	token, err := auth.ExtractToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := s.decoder.Decode(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.ensureEditor(editorID)
	s.touchAccess(editorID)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.log.Error("websocket upgrade failed for editor %s: %v", editorID, err)
		return
	}
	defer wsConn.Close(websocket.StatusNormalClosure, "")

	tr := transport.New(wsConn)
	conn, frame, err := s.fabric.Connect(userID, tr)
	if err != nil {
		s.log.Error("session connect failed for editor %s: %v", editorID, err)
		return
	}
	defer s.fabric.Disconnect(conn.Session.SessionID)

	ctx := r.Context()
	if err := tr.WriteJSON(ctx, frame); err != nil {
		s.log.Error("send connection frame failed: %v", err)
		return
	}

	for {
		inbound, err := tr.ReadFrame(ctx)
		if err != nil {
			if !transport.IsNormalClosure(err) {
				s.log.Debug("read frame failed for session %s: %v", conn.Session.SessionID, err)
			}
			return
		}
		if err := s.fabric.HandleFrame(ctx, conn.Session.SessionID, inbound); err != nil {
			// Per-frame errors never close the connection — bad frames
			// are reported to the client path via logging only.
			s.log.Debug("handle frame from session %s: %v", conn.Session.SessionID, err)
		}
	}
}

// ensureEditor initializes editorID from the store (if persisted) or
// as an empty document, idempotently.
func (s *Server) ensureEditor(editorID string) {
	if s.engine.HasEditor(editorID) {
		return
	}
	content := ""
	if s.store != nil {
		if doc, err := s.store.Load(editorID); err == nil && doc != nil {
			content = doc.Content
		}
	}
	s.engine.InitializeEditor(editorID, content)
}

func (s *Server) touchAccess(editorID string) {
	s.lastAccessMu.Lock()
	defer s.lastAccessMu.Unlock()
	s.lastAccess[editorID] = time.Now()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Stats mirrors the teacher's handleStats payload.
type Stats struct {
	StartTime    int64 `json:"start_time"`
	NumDocuments int   `json:"num_documents"`
	DatabaseSize int   `json:"database_size"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	dbSize := 0
	if s.store != nil {
		if count, err := s.store.Count(); err == nil {
			dbSize = count
		}
	}

	stats := Stats{
		StartTime:    s.startTime.Unix(),
		NumDocuments: len(s.engine.EditorIDs()),
		DatabaseSize: dbSize,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("server listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

// Shutdown gracefully shuts down the session fabric.
func (s *Server) Shutdown(ctx context.Context) {
	s.fabric.Shutdown()
}
