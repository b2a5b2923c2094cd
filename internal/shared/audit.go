package shared

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one append-only record of a consolidation activity.
type AuditEntry struct {
	ID            string
	At            time.Time
	User          string
	Action        string
	EntityID      string
	RunID         string
	Description   string
	PreviousValue string
	NewValue      string
}

// AuditRecorder captures audit events.
type AuditRecorder interface {
	Record(entry AuditEntry)
}

// AuditTrail is an in-memory append-only audit log. Entries are never
// mutated or deleted; the trail is the sole record of a failed run.
type AuditTrail struct {
	mu      sync.Mutex
	entries []AuditEntry
	now     func() time.Time
}

// NewAuditTrail returns an empty trail.
func NewAuditTrail() *AuditTrail {
	return &AuditTrail{now: func() time.Time { return time.Now().UTC() }}
}

// Record appends the entry, stamping ID, timestamp and default user when absent.
func (t *AuditTrail) Record(entry AuditEntry) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = t.nowFn()
	}
	if entry.User == "" {
		entry.User = "system"
	}
	t.entries = append(t.entries, entry)
}

// Entries returns a copy of the recorded entries in append order.
func (t *AuditTrail) Entries() []AuditEntry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]AuditEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of recorded entries.
func (t *AuditTrail) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// WithClock overrides the internal clock for deterministic tests.
func (t *AuditTrail) WithClock(clock func() time.Time) {
	if t != nil && clock != nil {
		t.now = clock
	}
}

func (t *AuditTrail) nowFn() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now().UTC()
}
