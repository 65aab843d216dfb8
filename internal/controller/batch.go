package controller

import (
	"strings"

	"github.com/muurk/anthemctl/internal/protocol"
)

// batch accumulates command tokens until the next flush. Call sites decide
// what goes into one write; nothing is coalesced automatically.
type batch struct {
	tokens []string
}

func (b *batch) queue(token string) {
	b.tokens = append(b.tokens, token)
}

// drain returns the queued tokens, each terminated by the delimiter, and
// empties the batch.
func (b *batch) drain() string {
	var sb strings.Builder
	for _, t := range b.tokens {
		sb.WriteString(t)
		sb.WriteString(protocol.Delimiter)
	}
	b.tokens = b.tokens[:0]
	return sb.String()
}

func (b *batch) len() int {
	return len(b.tokens)
}

func (b *batch) reset() {
	b.tokens = nil
}
