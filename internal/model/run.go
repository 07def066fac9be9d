package model

import "fmt"

// RunState tracks the lifecycle of a reconciliation run.
type RunState string

const (
	RunStateIdle            RunState = "idle"
	RunStateRunning         RunState = "running"
	RunStateCompleted       RunState = "completed"
	RunStateCriticalFailure RunState = "critical_failure"
)

// RunStats counts per-record outcomes for a single run.
type RunStats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Filtered int `json:"filtered"`
	Errors   int `json:"errors"`
}

func (s RunStats) Message() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped (%d filtered), %d errors",
		s.Created, s.Updated, s.Skipped, s.Filtered, s.Errors)
}

type RunSummary struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SyncRun is the persisted record of one finished run.
type SyncRun struct {
	ID         int64  `json:"id"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Filtered   int    `json:"filtered"`
	Errors     int    `json:"errors"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}
