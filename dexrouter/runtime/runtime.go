// Package runtime executes state-changing calls one at a time and makes each of
// them atomic: a call that fails leaves no trace in any registered component.
package runtime

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var runtimeLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	runtimeLog = zerolog.New(out).With().Timestamp().Str("component", "runtime").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	runtimeLog = l.With().Str("component", "runtime").Logger()
}

// Checkpointer is implemented by every component whose state a failed call must not change.
type Checkpointer interface {
	// Checkpoint captures the current state. The returned function restores it.
	Checkpoint() (restore func())
}

// PanicError is returned by Dispatch when the call panicked.
type PanicError struct {
	Call  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("call %s panicked: %v", e.Call, e.Value)
}

// Runtime serializes calls over a fixed set of components.
type Runtime struct {
	mu     sync.Mutex
	parts  []Checkpointer
	events *EventLog
	calls  uint64
}

// New returns a runtime guarding parts and a fresh event log.
func New(parts ...Checkpointer) *Runtime {
	events := NewEventLog()
	return &Runtime{
		parts:  append(append([]Checkpointer{}, parts...), events),
		events: events,
	}
}

// Events returns the log that successful calls report into.
func (rt *Runtime) Events() *EventLog { return rt.events }

// Dispatch runs fn with exclusive access to every component. If fn returns an
// error or panics, all components are restored to their state before the call
// and the error is returned unchanged.
func (rt *Runtime) Dispatch(ctx context.Context, call string, fn func() error) (err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	rt.calls++
	seq := rt.calls

	restores := make([]func(), len(rt.parts))
	for i, p := range rt.parts {
		restores[i] = p.Checkpoint()
	}
	rollback := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			err = &PanicError{Call: call, Value: r}
			runtimeLog.Error().Err(err).Uint64("seq", seq).Msg("Call panicked, state rolled back")
		}
	}()

	start := time.Now()
	if err = fn(); err != nil {
		rollback()
		runtimeLog.Debug().Err(err).
			Str("call", call).
			Uint64("seq", seq).
			Msg("Call failed, state rolled back")
		return err
	}
	runtimeLog.Debug().
		Str("call", call).
		Uint64("seq", seq).
		Dur("took", time.Since(start)).
		Msg("Call applied")
	return nil
}

// Read runs fn with exclusive access and without checkpointing. fn must not
// change state.
func (rt *Runtime) Read(fn func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	fn()
}

// Calls returns how many calls have been dispatched.
func (rt *Runtime) Calls() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.calls
}
