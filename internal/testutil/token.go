package testutil

import (
	"fmt"
	"sync"
)

// NumberedTokens generates "<prefix>-1", "<prefix>-2", ... so repeated runs
// of the same scenario produce byte-identical pass traces.
type NumberedTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewNumberedTokens returns a generator for prefix. An empty prefix becomes
// "pass".
func NewNumberedTokens(prefix string) *NumberedTokens {
	if prefix == "" {
		prefix = "pass"
	}
	return &NumberedTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *NumberedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *NumberedTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
