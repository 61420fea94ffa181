package model

import "time"

// ValueRecord is one accepted telemetry value as persisted by the history
// sink.
type ValueRecord struct {
	ID         int64     `json:"id"`
	TimeStamp  time.Time `json:"timestamp"`
	Value      string    `json:"value"`
	Identifier string    `json:"identifier"`
	Slug       string    `json:"slug"`
}

type ValueRecords []ValueRecord
