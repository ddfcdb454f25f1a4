// Package ot implements the pure, side-effect-free operational
// transform used to reconcile concurrent edits against a flat
// character-offset document. All functions here are deterministic:
// the same inputs always produce the same outputs, with no access to
// wall-clock time, randomness, or shared state.
package ot

import (
	"fmt"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// Transform computes the form of op as if against had already been
// applied, per spec.md §4.1. It never mutates either input.
func Transform(op, against model.Operation) (model.Operation, error) {
	switch {
	case op.Type == model.OpInsert && against.Type == model.OpInsert:
		return transformInsertInsert(op, against), nil
	case op.Type == model.OpInsert && against.Type == model.OpDelete:
		return transformInsertDelete(op, against), nil
	case op.Type == model.OpDelete && against.Type == model.OpInsert:
		return transformDeleteInsert(op, against), nil
	case op.Type == model.OpDelete && against.Type == model.OpDelete:
		return transformDeleteDelete(op, against), nil
	default:
		return model.Operation{}, fmt.Errorf("%w: unhandled operation type pair (%s,%s)", model.ErrOperationTransform, op.Type, against.Type)
	}
}

// transformInsertInsert: tie-break on clientId when positions are
// equal. The client whose id is lexicographically smaller keeps its
// position; the other shifts right.
func transformInsertInsert(op, against model.Operation) model.Operation {
	switch {
	case op.Position < against.Position:
		return op
	case op.Position > against.Position:
		op.Position += model.UTF16Len(against.Content)
		return op
	default:
		if op.ClientID < against.ClientID {
			return op
		}
		op.Position += model.UTF16Len(against.Content)
		return op
	}
}

// transformInsertDelete: an insert falling inside the deleted range
// clamps to the delete's start.
func transformInsertDelete(op, against model.Operation) model.Operation {
	switch {
	case op.Position <= against.Position:
		return op
	case op.Position >= against.End():
		op.Position -= against.Length
		return op
	default:
		op.Position = against.Position
		return op
	}
}

// transformDeleteInsert: an insert landing inside the delete's span
// extends the delete to also cover the newly inserted text.
func transformDeleteInsert(op, against model.Operation) model.Operation {
	opStart, opEnd := op.Position, op.End()
	insLen := model.UTF16Len(against.Content)

	switch {
	case opEnd <= against.Position:
		return op
	case opStart >= against.Position:
		op.Position += insLen
		return op
	default:
		op.Length += insLen
		return op
	}
}

// transformDeleteDelete implements every overlap case between two
// deletes: disjoint, containment either way, and left/right partial
// overlap. In the right-overlap branch Position moves to
// against.Position and Length drops by the overlapped span (spec.md §9
// open question 4); TestTransform_DeleteDelete_RightOverlap covers it.
func transformDeleteDelete(op, against model.Operation) model.Operation {
	opStart, opEnd := op.Position, op.End()
	againstStart, againstEnd := against.Position, against.End()

	switch {
	case opEnd <= againstStart:
		// Disjoint, op entirely before against.
		return op
	case opStart >= againstEnd:
		// Disjoint, op entirely after against.
		op.Position -= against.Length
		return op
	case opStart <= againstStart && opEnd >= againstEnd:
		// op fully contains against.
		op.Length -= against.Length
		return op
	case opStart >= againstStart && opEnd <= againstEnd:
		// op fully contained in against: becomes a no-op.
		op.Position = against.Position
		op.Length = 0
		return op
	case opStart < againstStart:
		// Left overlap: op starts before against, ends inside it.
		op.Length -= opEnd - againstStart
		return op
	default:
		// Right overlap: op starts inside against, ends after it.
		op.Position = against.Position
		op.Length -= againstEnd - opStart
		return op
	}
}

// TransformAgainstMany folds Transform left-to-right over a sequence
// of concurrent operations.
func TransformAgainstMany(op model.Operation, against []model.Operation) (model.Operation, error) {
	result := op
	for _, a := range against {
		var err error
		result, err = Transform(result, a)
		if err != nil {
			return model.Operation{}, err
		}
	}
	return result, nil
}

// Compose merges two adjacent operations from the same client into
// one, when doing so is unambiguous (e.g. two single-character inserts
// typed back to back at adjoining positions). It is a best-effort local
// optimization per spec.md §4.1 — callers must treat a false second
// return as "could not compose" and keep both operations separate, not
// as an error.
func Compose(a, b model.Operation) (model.Operation, bool) {
	if a.ClientID != b.ClientID {
		return model.Operation{}, false
	}
	if a.Type == model.OpInsert && b.Type == model.OpInsert && b.Position == a.Position+model.UTF16Len(a.Content) {
		merged := a
		merged.Content = a.Content + b.Content
		return merged, true
	}
	if a.Type == model.OpDelete && b.Type == model.OpDelete && b.Position == a.Position {
		merged := a
		merged.Length = a.Length + b.Length
		return merged, true
	}
	return model.Operation{}, false
}
