package model

import "time"

// SweepReport summarizes one garbage-collection pass over the local lock
// directory.
type SweepReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Scanned   int           `json:"scanned"`
	Reclaimed []string      `json:"reclaimed,omitempty"`
	Busy      []string      `json:"busy,omitempty"`
	Failed    []SweepError  `json:"failed,omitempty"`
}

// SweepError records a lock name the sweep could not process.
type SweepError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}
