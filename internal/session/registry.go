// Package session implements SessionRegistry + SessionFabric
// (spec.md §4.7): session bookkeeping, inbound frame validation and
// routing, rate limiting, fan-out broadcast, and heartbeat liveness.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// FrameWriter is the subset of *transport.Conn the fabric needs to send
// frames and close a connection. Defined here (rather than depending
// on internal/transport's concrete type) so tests can substitute a
// fake instead of a real WebSocket.
type FrameWriter interface {
	WriteJSON(ctx context.Context, v any) error
	Close(code int, reason string) error
}

// Connection pairs a transport with its session bookkeeping, mirroring
// the teacher's Connection{transport,session,isAlive} shape.
type Connection struct {
	Transport FrameWriter
	Session   *model.Session
}

// Registry tracks every live session and its document subscriptions.
// Safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	clients    map[string]*Connection
	byDocument map[string]map[string]struct{} // documentId -> set(sessionId)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:    make(map[string]*Connection),
		byDocument: make(map[string]map[string]struct{}),
	}
}

// Register creates a new connection entry with isAlive=true and no
// subscriptions.
func (r *Registry) Register(sessionID, userID string, tr FrameWriter) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := &Connection{
		Transport: tr,
		Session: &model.Session{
			SessionID:        sessionID,
			UserID:           userID,
			LastActivityTime: time.Now(),
			IsAlive:          true,
		},
	}
	r.clients[sessionID] = conn
	return conn
}

// Unregister removes sessionID from every document it subscribed to
// and deletes its client entry. The caller is responsible for clearing
// its rate-limit bucket (the registry doesn't know about the limiter).
func (r *Registry) Unregister(sessionID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.clients[sessionID]
	if !ok {
		return nil, false
	}
	for _, documentID := range conn.Session.SubscribedDocuments {
		r.removeSubscriberLocked(documentID, sessionID)
	}
	delete(r.clients, sessionID)
	return conn, true
}

// Get returns the connection for sessionID.
func (r *Registry) Get(sessionID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.clients[sessionID]
	return conn, ok
}

// Subscribe adds documentID to sessionID's subscription set. Idempotent.
func (r *Registry) Subscribe(sessionID, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.clients[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", model.ErrSessionNotFound, sessionID)
	}
	if !conn.Session.AddSubscription(documentID) {
		return nil
	}
	set, ok := r.byDocument[documentID]
	if !ok {
		set = make(map[string]struct{})
		r.byDocument[documentID] = set
	}
	set[sessionID] = struct{}{}
	return nil
}

// Unsubscribe is silent if the session or subscription is absent.
func (r *Registry) Unsubscribe(sessionID, documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.clients[sessionID]
	if !ok {
		return
	}
	if !conn.Session.RemoveSubscription(documentID) {
		return
	}
	r.removeSubscriberLocked(documentID, sessionID)
}

func (r *Registry) removeSubscriberLocked(documentID, sessionID string) {
	set, ok := r.byDocument[documentID]
	if !ok {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.byDocument, documentID)
	}
}

// SubscriberSessionIDs returns every sessionId subscribed to documentID.
func (r *Registry) SubscriberSessionIDs(documentID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byDocument[documentID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// MarkAlive sets isAlive=true and bumps LastActivityTime for sessionID.
func (r *Registry) MarkAlive(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.clients[sessionID]; ok {
		conn.Session.IsAlive = true
		conn.Session.LastActivityTime = time.Now()
	}
}

// TouchActivity bumps LastActivityTime without changing IsAlive.
func (r *Registry) TouchActivity(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.clients[sessionID]; ok {
		conn.Session.LastActivityTime = time.Now()
	}
}

// All returns a snapshot slice of every registered connection.
func (r *Registry) All() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Connection, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Clear empties every client and subscription entry (shutdown).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[string]*Connection)
	r.byDocument = make(map[string]map[string]struct{})
}
