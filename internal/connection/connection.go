package connection

import (
	"errors"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// ErrNotStarted is returned by operations that need a started connector.
var ErrNotStarted = errors.New("connection: connector not started")

// Logger defines the logging interface for connectors.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// listenerBox boxes a listener for atomic publication.
type listenerBox struct {
	l message.Listener
}

// listenerSlot holds the connector's message.Listener.
type listenerSlot struct {
	p atomic.Pointer[listenerBox]
}

func (s *listenerSlot) set(l message.Listener) {
	if l == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&listenerBox{l: l})
}

func (s *listenerSlot) get() message.Listener {
	if b := s.p.Load(); b != nil {
		return b.l
	}
	return nil
}
