package contextstore

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// transcriptWriter coalesces transcript fragments into periodic appends.
// Agents stream tokens far faster than a file write per fragment can
// sustain; fragments buffer in memory and reach disk on a debounce timer.
// Close performs a final synchronous flush so no trailing content is
// lost. The transcript is the only durable resume point, so that last
// flush is a correctness requirement, not an optimization.
type transcriptWriter struct {
	store *Store
	path  string

	mu      sync.Mutex
	pending strings.Builder
	timer   *time.Timer
	closed  bool
}

func newTranscriptWriter(store *Store, path string) *transcriptWriter {
	return &transcriptWriter{store: store, path: path}
}

// Append adds text to the transcript. The write reaches disk on the
// next debounce flush, or on Flush/Close.
func (w *transcriptWriter) Append(text string) {
	if text == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	w.pending.WriteString(text)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.store.debounce, func() {
			_ = w.Flush()
		})
	}
}

// Flush forces pending text to disk immediately.
func (w *transcriptWriter) Flush() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	text := w.pending.String()
	w.pending.Reset()
	w.mu.Unlock()

	if text == "" {
		return nil
	}
	return w.appendToFile(text)
}

// Close flushes pending text and releases the writer. Further Appends
// are discarded.
func (w *transcriptWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	return w.Flush()
}

// appendToFile appends text to the transcript under the store lock.
// The transcript is append-only: follow-up sessions extend it, never
// truncate it.
func (w *transcriptWriter) appendToFile(text string) error {
	return w.store.withLockWrite(func() error {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		if _, err := f.WriteString(text); err != nil {
			_ = f.Close()
			return fmt.Errorf("append transcript: %w", err)
		}
		return f.Close()
	})
}
