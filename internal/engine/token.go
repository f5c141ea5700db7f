package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces pass tokens.
// Implemented by UUIDv7Generator and FixedGenerator.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 pass tokens, so pass
// history sorts by creation time even across processes.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens, for tests and golden traces.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator returns a generator yielding tokens in order.
//
//	gen := NewFixedGenerator("pass-1", "pass-2")
//	gen.Generate() // "pass-1"
//	gen.Generate() // "pass-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token. It panics once the tokens run out, which
// means a test ran more passes than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
