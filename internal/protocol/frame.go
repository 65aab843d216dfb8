package protocol

import "strings"

// MaxPendingSize bounds the partial token a Framer carries between chunks.
// Real tokens are short; anything longer is line noise and is dropped.
const MaxPendingSize = 4096

// Framer splits the inbound byte stream into semicolon-terminated tokens.
//
// TCP does not preserve write boundaries, so a token split across two reads
// is held back until its delimiter arrives. The zero value is ready to use.
type Framer struct {
	pending strings.Builder
}

// Feed appends a received chunk and returns every complete token in order.
// Each token has one trailing pad space removed; tokens that end up empty
// are skipped.
func (f *Framer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	f.pending.Write(chunk)
	data := f.pending.String()
	f.pending.Reset()

	parts := strings.Split(data, Delimiter)

	// The last element is whatever followed the final delimiter: empty when
	// the chunk ended on a token boundary, a partial token otherwise.
	tail := parts[len(parts)-1]
	if len(tail) <= MaxPendingSize {
		f.pending.WriteString(tail)
	}

	tokens := make([]string, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		token := TrimPadding(part)
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Pending returns the buffered partial token, if any.
func (f *Framer) Pending() string {
	return f.pending.String()
}

// Reset discards any buffered partial token.
func (f *Framer) Reset() {
	f.pending.Reset()
}
