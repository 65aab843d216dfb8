package protocol

import (
	"reflect"
	"strings"
	"testing"
)

func TestFramerFeed(t *testing.T) {
	tests := []struct {
		name        string
		chunks      []string
		want        []string
		wantPending string
	}{
		{
			name:   "single token",
			chunks: []string{"Z1POW1;"},
			want:   []string{"Z1POW1"},
		},
		{
			name:   "several tokens in one write",
			chunks: []string{"Z1POW1;Z1INP3;Z1PVOL45;"},
			want:   []string{"Z1POW1", "Z1INP3", "Z1PVOL45"},
		},
		{
			name:   "one pad space trimmed",
			chunks: []string{"IDMMRX 740 ;"},
			want:   []string{"IDMMRX 740"},
		},
		{
			name:   "only one pad space trimmed",
			chunks: []string{"IS1INCable  ;"},
			want:   []string{"IS1INCable "},
		},
		{
			name:   "empty tokens skipped",
			chunks: []string{";;Z1MUT0; ;"},
			want:   []string{"Z1MUT0"},
		},
		{
			name:        "partial tail held back",
			chunks:      []string{"Z1POW1;Z1IN"},
			want:        []string{"Z1POW1"},
			wantPending: "Z1IN",
		},
		{
			name:   "token split across chunks",
			chunks: []string{"Z1POW1;Z1IN", "P3;Z2POW0;"},
			want:   []string{"Z1POW1", "Z1INP3", "Z2POW0"},
		},
		{
			name:   "token split into many chunks",
			chunks: []string{"I", "D", "MMRX", " 540", ";"},
			want:   []string{"IDMMRX 540"},
		},
		{
			name:   "no input",
			chunks: []string{""},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Framer
			got := []string{}
			for _, c := range tt.chunks {
				got = append(got, f.Feed([]byte(c))...)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Feed() tokens = %q, want %q", got, tt.want)
			}
			if f.Pending() != tt.wantPending {
				t.Errorf("Pending() = %q, want %q", f.Pending(), tt.wantPending)
			}
		})
	}
}

func TestFramerDropsOversizedTail(t *testing.T) {
	var f Framer
	noise := strings.Repeat("x", MaxPendingSize+1)

	tokens := f.Feed([]byte("Z1POW1;" + noise))
	if len(tokens) != 1 || tokens[0] != "Z1POW1" {
		t.Fatalf("Feed() = %q, want [Z1POW1]", tokens)
	}
	if f.Pending() != "" {
		t.Errorf("Pending() length = %d, want 0", len(f.Pending()))
	}

	tokens = f.Feed([]byte("Z1MUT1;"))
	if len(tokens) != 1 || tokens[0] != "Z1MUT1" {
		t.Errorf("Feed() after drop = %q, want [Z1MUT1]", tokens)
	}
}

func TestFramerReset(t *testing.T) {
	var f Framer
	f.Feed([]byte("Z1PO"))
	f.Reset()

	tokens := f.Feed([]byte("W1;"))
	if len(tokens) != 1 || tokens[0] != "W1" {
		t.Errorf("Feed() after Reset = %q, want [W1]", tokens)
	}
}
