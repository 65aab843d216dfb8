package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
)

// maxUnmatched bounds how many unrecognised tokens a report keeps.
const maxUnmatched = 20

// Decode flags
var (
	decodeEvents  bool
	decodeVerbose bool
)

func init() {
	decodeCmd.Flags().BoolVar(&decodeEvents, "events", false, "Input is 'watch --json --debug' output instead of raw wire bytes")
	decodeCmd.Flags().BoolVarP(&decodeVerbose, "verbose", "v", false, "Print every token with its decoded responses")
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode captured receiver traffic",
	Long: `Run captured receiver output through the response table and report what
was recognised.

The input is either the raw byte stream read from port 14999 (for example a
netcat capture) or, with --events, the JSON lines written by
'anthemctl watch --json --debug'. Reads stdin when no file is given.`,
	Example: `  nc 192.168.1.100 14999 > capture.txt
  anthemctl decode capture.txt

  anthemctl watch --json --debug | tee events.jsonl
  anthemctl decode --events -v events.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

// decodeStats summarises one decoded capture.
type decodeStats struct {
	Tokens    int
	Decoded   int
	Prefixes  map[string]int
	Unmatched []string
	Unknown   int
	Pending   string
}

func (s *decodeStats) add(token string, responses []protocol.Response) {
	s.Tokens++
	if len(responses) == 0 {
		s.Unknown++
		if len(s.Unmatched) < maxUnmatched {
			s.Unmatched = append(s.Unmatched, token)
		}
		return
	}
	s.Decoded++
	for _, r := range responses {
		s.Prefixes[r.Prefix()]++
	}
}

type tokenFunc func(token string, responses []protocol.Response)

// decodeCapture feeds a capture through the framer and the response table,
// calling fn for every token.
func decodeCapture(r io.Reader, events bool, fn tokenFunc) (*decodeStats, error) {
	stats := &decodeStats{Prefixes: make(map[string]int)}
	visit := func(token string) {
		responses := protocol.ParseResponse(token)
		stats.add(token, responses)
		if fn != nil {
			fn(token, responses)
		}
	}

	if events {
		return stats, readEventTokens(r, visit)
	}

	var framer protocol.Framer
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		for _, token := range framer.Feed(buf[:n]) {
			visit(token)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
	}
	stats.Pending = framer.Pending()
	return stats, nil
}

// readEventTokens extracts inbound tokens from debug events in JSON lines.
func readEventTokens(r io.Reader, visit func(string)) error {
	const reading = `Reading: "`
	wantEvent := controller.EventDebugLine.String()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line struct {
			Event   string `json:"event"`
			Payload struct {
				Text string `json:"text"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil || line.Event != wantEvent {
			continue
		}
		text := line.Payload.Text
		if !strings.HasPrefix(text, reading) {
			continue
		}
		visit(strings.TrimSuffix(strings.TrimPrefix(text, reading), `"`))
	}
	return scanner.Err()
}

func runDecode(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()
		in = f
	}

	var show tokenFunc
	if decodeVerbose {
		show = func(token string, responses []protocol.Response) {
			if len(responses) == 0 {
				fmt.Printf("  %-24s  ?\n", token)
				return
			}
			for _, r := range responses {
				fmt.Printf("  %-24s  %s\n", token, r)
			}
		}
	}

	stats, err := decodeCapture(in, decodeEvents, show)
	if err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}
	printDecodeStats(stats)
	return nil
}

func printDecodeStats(s *decodeStats) {
	fmt.Printf("\n=== Decode Summary ===\n")
	fmt.Printf("Tokens:    %d\n", s.Tokens)
	fmt.Printf("Decoded:   %d\n", s.Decoded)
	fmt.Printf("Unknown:   %d\n", s.Unknown)
	if s.Tokens > 0 {
		fmt.Printf("Coverage:  %.1f%%\n", float64(s.Decoded)*100/float64(s.Tokens))
	}

	if len(s.Prefixes) > 0 {
		fmt.Println("\nResponses by prefix:")
		prefixes := make([]string, 0, len(s.Prefixes))
		for p := range s.Prefixes {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)
		for _, p := range prefixes {
			fmt.Printf("  %-8s %d\n", p, s.Prefixes[p])
		}
	}

	if len(s.Unmatched) > 0 {
		fmt.Println("\nUnrecognised tokens:")
		for _, token := range s.Unmatched {
			fmt.Printf("  %q\n", token)
		}
		if s.Unknown > len(s.Unmatched) {
			fmt.Printf("  ... and %d more\n", s.Unknown-len(s.Unmatched))
		}
	}

	if s.Pending != "" {
		fmt.Printf("\nTrailing partial token: %q\n", s.Pending)
	}
}
