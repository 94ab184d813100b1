package runtime

import (
	"sync"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// EventRecord is a swap outcome with its position in the log.
type EventRecord struct {
	Index   int                `json:"index"`
	Outcome models.SwapOutcome `json:"outcome"`
}

// EventLog is the append-only record of successful swaps. Outcomes emitted by a
// call that later fails are removed when the runtime rolls the call back.
type EventLog struct {
	mu      sync.RWMutex
	records []EventRecord
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

// Emit appends an outcome.
func (l *EventLog) Emit(outcome models.SwapOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, EventRecord{Index: len(l.records), Outcome: outcome})
}

func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Since returns the records with index >= from.
func (l *EventLog) Since(from int) []EventRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if from < 0 {
		from = 0
	}
	if from >= len(l.records) {
		return []EventRecord{}
	}
	out := make([]EventRecord, len(l.records)-from)
	copy(out, l.records[from:])
	return out
}

// Checkpoint remembers the log length; restoring drops everything appended since.
func (l *EventLog) Checkpoint() (restore func()) {
	l.mu.RLock()
	n := len(l.records)
	l.mu.RUnlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.records = l.records[:n]
	}
}
