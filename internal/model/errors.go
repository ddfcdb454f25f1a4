package model

import "errors"

// Sentinel errors for the taxonomy in spec.md §7. Callers compare with
// errors.Is; concrete errors returned by the engine wrap these with
// context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidMessage fires when an inbound frame fails schema validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrSessionNotFound fires when an operation targets an absent session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOperationDenied fires when an operation targets a document the
	// session has not subscribed to.
	ErrOperationDenied = errors.New("operation denied: not subscribed")

	// ErrRateLimited fires when a user exceeds their sliding-window quota.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrOperationApply fires when a buffer mutation fails or the editor's
	// mode forbids mutation.
	ErrOperationApply = errors.New("operation apply failed")

	// ErrOperationTransform fires when a transform produces an arithmetic
	// anomaly.
	ErrOperationTransform = errors.New("operation transform failed")

	// ErrInvalidCursorPosition fires on an out-of-bounds cursor/position.
	ErrInvalidCursorPosition = errors.New("invalid cursor position")

	// ErrCollaborationDisabled fires when an editor has not been
	// initialized, or when an operation targets an editor whose mode is
	// not active.
	ErrCollaborationDisabled = errors.New("collaboration disabled: editor not initialized")

	// ErrOperationBatchValidation fires when a batch's size is outside [1,100].
	ErrOperationBatchValidation = errors.New("operation batch validation failed")

	// ErrVersionConflict fires when an op's base version doesn't match history.
	ErrVersionConflict = errors.New("version conflict")

	// ErrWebSocketAuthentication fires when the upgrade handshake lacks, or
	// fails to decode, an authentication token.
	ErrWebSocketAuthentication = errors.New("websocket authentication failed")
)
