package logging

import (
	"io"
	"os"
	"sync"
)

// swapWriter is an io.Writer whose destination can be replaced at runtime.
type swapWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (sw *swapWriter) Write(p []byte) (int, error) {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.w.Write(p)
}

func (sw *swapWriter) set(w io.Writer) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.w = w
}

var stderrSink = &swapWriter{w: os.Stderr}

// SetGlobalOutput redirects the stderr sink of every logger created by NewLogger.
// Tests and the watch command's API mode use it to capture log output.
func SetGlobalOutput(w io.Writer) {
	stderrSink.set(w)
}

// GetGlobalOutput returns the shared stderr sink.
func GetGlobalOutput() io.Writer {
	return stderrSink
}
