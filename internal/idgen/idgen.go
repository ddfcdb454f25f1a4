// Package idgen provides the ID generator collaborator spec.md treats
// as external: something that "provides monotonically sortable unique
// strings". ULIDs are exactly that — a 48-bit millisecond timestamp
// prefix plus 80 bits of randomness, lexicographically sortable by
// creation time. Grounded on the pack's recurring use of
// github.com/oklog/ulid/v2 (moby-moby, gravitational-teleport,
// vsavkov-kilroy, harunnryd-heike manifests).
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces monotonically sortable unique strings.
type Generator interface {
	New() string
}

// ULIDGenerator is the default Generator.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator returns a Generator backed by a monotonic entropy
// source seeded from crypto/rand, so IDs minted within the same
// millisecond still sort strictly increasing.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a new ULID string.
func (g *ULIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
