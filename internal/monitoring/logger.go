// Package monitoring holds the diagnostic logger shared by the scan tools.
package monitoring

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(on bool) {
	verbose.Store(on)
}

// Verbose reports whether Debugf output is enabled.
func Verbose() bool {
	return verbose.Load()
}

// Debugf logs through Logf only when verbose output is enabled.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}

// maxRelayLine bounds how much of an unterminated line is held before it
// is logged on its own.
const maxRelayLine = 1024 * 1024

// RelayWriter logs subprocess output line by line as it is written, each
// line prefixed with ">>> ". Call Flush when the output ends so a final
// line without a newline is logged too.
type RelayWriter struct {
	mu      sync.Mutex
	pending []byte
}

// Write logs every complete line in p and keeps the remainder for the
// next call. It never fails.
func (w *RelayWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.pending = append(w.pending, p...)
			if len(w.pending) >= maxRelayLine {
				w.emit()
			}
			break
		}
		w.pending = append(w.pending, p[:i]...)
		w.emit()
		p = p[i+1:]
	}
	return n, nil
}

// Flush logs any buffered partial line.
func (w *RelayWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		w.emit()
	}
}

func (w *RelayWriter) emit() {
	Logf(">>> %s", strings.TrimRight(string(w.pending), "\r"))
	w.pending = w.pending[:0]
}

// Relay logs each line of already captured output with a ">>> " prefix.
func Relay(output string) {
	var w RelayWriter
	_, _ = w.Write([]byte(output))
	w.Flush()
}
