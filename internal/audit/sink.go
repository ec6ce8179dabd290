package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/edushield/edushield/internal/integrity"
)

// Sink receives sanitized audit entries. Implementations must tolerate
// concurrent-free single-writer delivery (the pipeline's one consumer) and
// report failures via the returned error; a failing sink never blocks or
// aborts delivery to its peers.
type Sink interface {
	Name() string
	Write(e Entry) error
	Close() error
}

// FileSink appends one JSON object per line to a durable log file. The file
// is safe to tail or replay.
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewFileSink opens (or creates) the append-only audit log at path.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	return &FileSink{f: f, path: path}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(e Entry) error {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("audit: marshal entry %s: %w", e.TraceID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("audit: append entry %s: %w", e.TraceID, err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// MemorySink keeps entries in arrival order and serves lookups by trace id.
// This is the correlation store for audit entries; it is one of the two
// pieces of shared mutable state in the engine.
type MemorySink struct {
	mu      sync.RWMutex
	entries []Entry
	byTrace map[string]int
}

// NewMemorySink creates an empty in-process buffer.
func NewMemorySink() *MemorySink {
	return &MemorySink{byTrace: make(map[string]int)}
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTrace[e.TraceID] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// ByTrace returns the entry recorded for a trace id.
func (s *MemorySink) ByTrace(traceID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byTrace[traceID]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Tail returns up to limit most recent entries, oldest first.
func (s *MemorySink) Tail(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.entries) > limit {
		start = len(s.entries) - limit
	}
	out := make([]Entry, len(s.entries)-start)
	copy(out, s.entries[start:])
	return out
}

// Len returns the number of recorded entries.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Root returns the Merkle root over entry hashes in delivery order. Two
// buffers holding the same entries in the same order produce the same root;
// any mutation or reordering changes it.
func (s *MemorySink) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leaves := make([]string, len(s.entries))
	for i, e := range s.entries {
		leaves[i] = e.Hash
	}
	return integrity.BuildMerkleRoot(leaves)
}

// ConsoleSink writes a human-readable block per entry for diagnostics.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink writes diagnostic blocks to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	divider := "============================================================"
	fmt.Fprintf(s.w, "\n%s\n  AUDIT LOG — %s\n%s\n", divider, e.TraceID, divider)
	for _, k := range sortedKeys(e.Payload) {
		if k == "trace_id" {
			continue
		}
		fmt.Fprintf(s.w, "  %-18s: %v\n", k, e.Payload[k])
	}
	fmt.Fprintf(s.w, "%s\n", divider)
	return nil
}

func (s *ConsoleSink) Close() error { return nil }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
