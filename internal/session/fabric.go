package session

import (
	"context"
	"fmt"
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/engine"
	"github.com/catalyst-ai-dev/white-room/internal/idgen"
	"github.com/catalyst-ai-dev/white-room/internal/logging"
	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/catalyst-ai-dev/white-room/internal/protocol"
	"github.com/catalyst-ai-dev/white-room/internal/ratelimit"
)

// Fabric is the SessionFabric: it validates and routes inbound frames,
// rate-limits by userId, invokes the engine, and fans transformed
// operations out to a document's other subscribers.
type Fabric struct {
	registry *Registry
	engine   *engine.Engine
	limiter  *ratelimit.Limiter
	ids      idgen.Generator
	log      *logging.Logger
}

// NewFabric wires a Fabric around the given collaborators.
func NewFabric(eng *engine.Engine, limiter *ratelimit.Limiter, ids idgen.Generator, log *logging.Logger) *Fabric {
	if log == nil {
		log = logging.Default()
	}
	return &Fabric{
		registry: NewRegistry(),
		engine:   eng,
		limiter:  limiter,
		ids:      ids,
		log:      log,
	}
}

// Registry exposes the underlying session registry.
func (f *Fabric) Registry() *Registry { return f.registry }

// Connect registers a new session for userID over tr and returns the
// ConnectionFrame to send the client immediately.
func (f *Fabric) Connect(userID string, tr FrameWriter) (*Connection, protocol.ConnectionFrame, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return nil, protocol.ConnectionFrame{}, fmt.Errorf("allocate session id: %w", err)
	}
	conn := f.registry.Register(sessionID, userID, tr)
	frame := protocol.NewConnectionFrame(sessionID, time.Now().UnixMilli())
	return conn, frame, nil
}

// Disconnect unregisters sessionID, clears its rate-limit bucket, and
// removes it from every remote-user tracker it was visible on.
func (f *Fabric) Disconnect(sessionID string) {
	conn, ok := f.registry.Unregister(sessionID)
	if !ok {
		return
	}
	f.limiter.ClearUserLimits(conn.Session.UserID)
	for _, documentID := range conn.Session.SubscribedDocuments {
		if err := f.engine.RemoveRemoteUser(documentID, conn.Session.UserID); err != nil {
			f.log.Debug("remove remote user %s from %s on disconnect: %v", conn.Session.UserID, documentID, err)
		}
	}
}

// HandleFrame validates and routes one inbound frame from sessionID.
func (f *Fabric) HandleFrame(ctx context.Context, sessionID string, frame protocol.InboundFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	if frame.SessionID != sessionID {
		return fmt.Errorf("%w: frame sessionId %q does not match connection %q", model.ErrInvalidMessage, frame.SessionID, sessionID)
	}

	switch frame.Type {
	case protocol.FrameOperation:
		return f.handleOperation(ctx, sessionID, frame)
	case protocol.FrameSubscribe:
		return f.handleSubscribe(sessionID, frame)
	case protocol.FrameUnsubscribe:
		return f.handleUnsubscribe(sessionID, frame)
	case protocol.FrameHeartbeat:
		f.registry.MarkAlive(sessionID)
		return nil
	default:
		return fmt.Errorf("%w: unknown frame type %q", model.ErrInvalidMessage, frame.Type)
	}
}

func (f *Fabric) handleOperation(ctx context.Context, sessionID string, frame protocol.InboundFrame) error {
	payload, err := frame.DecodeOperationPayload()
	if err != nil {
		return err
	}

	conn, ok := f.registry.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: session %s", model.ErrSessionNotFound, sessionID)
	}

	if err := f.limiter.CheckAndRecord(conn.Session.UserID); err != nil {
		return err
	}

	if !conn.Session.HasSubscription(payload.DocumentID) {
		return fmt.Errorf("%w: session %s is not subscribed to %s", model.ErrOperationDenied, sessionID, payload.DocumentID)
	}

	applied, err := f.engine.SubmitOperation(payload.DocumentID, payload.Operation, payload.Version)
	if err != nil {
		return err
	}

	broadcast := protocol.NewOperationBroadcast(payload.DocumentID, applied, sessionID, time.Now().UnixMilli())
	f.fanOut(ctx, payload.DocumentID, sessionID, broadcast)

	f.registry.TouchActivity(sessionID)
	return nil
}

func (f *Fabric) handleSubscribe(sessionID string, frame protocol.InboundFrame) error {
	payload, err := frame.DecodeSubscriptionPayload()
	if err != nil {
		return err
	}
	if err := f.registry.Subscribe(sessionID, payload.DocumentID); err != nil {
		return err
	}
	f.registry.TouchActivity(sessionID)
	return nil
}

func (f *Fabric) handleUnsubscribe(sessionID string, frame protocol.InboundFrame) error {
	payload, err := frame.DecodeSubscriptionPayload()
	if err != nil {
		return err
	}
	f.registry.Unsubscribe(sessionID, payload.DocumentID)
	f.registry.TouchActivity(sessionID)
	return nil
}

// BroadcastNotification fans an arbitrary notification (remote user
// join/leave, cursor update) out to every subscriber of documentID,
// excluding nothing.
func (f *Fabric) BroadcastNotification(ctx context.Context, documentID string, data any) {
	frame := protocol.NewNotificationBroadcast(documentID, data, time.Now().UnixMilli())
	f.fanOut(ctx, documentID, "", frame)
}

// fanOut iterates every subscriber of documentID, skipping excludeSessionID
// and any connection whose send fails; per-send failures are logged and
// never abort the fan-out (spec.md §4.7).
func (f *Fabric) fanOut(ctx context.Context, documentID, excludeSessionID string, frame protocol.BroadcastFrame) {
	for _, sessionID := range f.registry.SubscriberSessionIDs(documentID) {
		if sessionID == excludeSessionID {
			continue
		}
		conn, ok := f.registry.Get(sessionID)
		if !ok {
			continue
		}
		if err := conn.Transport.WriteJSON(ctx, frame); err != nil {
			f.log.Debug("fan-out to session %s failed: %v", sessionID, err)
		}
	}
}

// RunHeartbeat runs the 30s liveness tick until ctx is canceled. Each
// tick: sessions still marked dead from the prior tick are closed and
// unregistered with "Heartbeat timeout"; the rest are marked dead and
// sent a heartbeat frame (expecting a pong or inbound heartbeat frame
// to mark them alive again before the next tick).
func (f *Fabric) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(protocol.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.heartbeatTick(ctx)
		}
	}
}

func (f *Fabric) heartbeatTick(ctx context.Context) {
	var dead []string

	for _, conn := range f.registry.All() {
		if !conn.Session.IsAlive {
			dead = append(dead, conn.Session.SessionID)
			continue
		}
		conn.Session.IsAlive = false
		frame := protocol.NewHeartbeatFrame(time.Now().UnixMilli())
		if err := conn.Transport.WriteJSON(ctx, frame); err != nil {
			f.log.Debug("heartbeat send to session %s failed: %v", conn.Session.SessionID, err)
		}
	}

	for _, sessionID := range dead {
		conn, ok := f.registry.Get(sessionID)
		if ok {
			conn.Transport.Close(protocol.CloseCodeNormal, protocol.CloseReasonHeartbeatTimeout)
		}
		f.Disconnect(sessionID)
	}
}

// Shutdown stops serving: closes every transport with "Server
// shutdown" and clears the registry and every rate-limit bucket.
func (f *Fabric) Shutdown() {
	for _, conn := range f.registry.All() {
		conn.Transport.Close(protocol.CloseCodeNormal, protocol.CloseReasonServerShutdown)
		f.limiter.ClearUserLimits(conn.Session.UserID)
	}
	f.registry.Clear()
	f.limiter.ClearAllLimits()
}
