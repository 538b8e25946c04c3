package model

import "time"

// HistoryEventType classifies a lock activity event.
type HistoryEventType string

const (
	EventAcquired      HistoryEventType = "acquired"
	EventReleased      HistoryEventType = "released"
	EventBusy          HistoryEventType = "busy"
	EventHeartbeatLost HistoryEventType = "heartbeat_lost"
	EventSwept         HistoryEventType = "swept"
)

// HistoryRecord is one line of the append-only lock activity log.
// Records form a hash chain: RecordHash covers the record with RecordHash
// cleared, and PrevHash is the previous record's RecordHash.
type HistoryRecord struct {
	Timestamp  time.Time        `json:"timestamp"`
	EventType  HistoryEventType `json:"event_type"`
	LockName   string           `json:"lock_name"`
	RunID      string           `json:"run_id,omitempty"`
	PID        int              `json:"pid"`
	Details    map[string]any   `json:"details,omitempty"`
	PrevHash   string           `json:"prev_hash"`
	RecordHash string           `json:"record_hash"`
}
