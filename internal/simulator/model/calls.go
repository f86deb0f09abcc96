package model

import (
	"sync"
	"time"
)

// APICallRecord is one entry of the diagnostic call log: which backend
// endpoint was hit, how it went and how long it took. Status is 0 when the
// request never produced a response.
type APICallRecord struct {
	Method    string        `json:"method"`
	Endpoint  string        `json:"endpoint"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// CallLog collects APICallRecords across a conversation. Append-only and
// unbounded; the debug surface reads snapshots, it never mutates.
type CallLog struct {
	mu      sync.Mutex
	records []APICallRecord
}

func NewCallLog() *CallLog {
	return &CallLog{}
}

func (l *CallLog) Append(rec APICallRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a copy of the log in insertion order.
func (l *CallLog) Records() []APICallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]APICallRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *CallLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
