package domain

import "time"

// ExecutionStatus summarizes the outcome of a macro run.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionPartial ExecutionStatus = "partial"
)

// ActionStatus reports the outcome of a single action within a run.
type ActionStatus string

const (
	ActionStatusSuccess ActionStatus = "success"
	ActionStatusFailed  ActionStatus = "failed"
	ActionStatusSkipped ActionStatus = "skipped"
)

// ActionResult captures one action's outcome. Serialized at the storage
// boundary only; kept strongly typed in memory.
type ActionResult struct {
	ActionType ActionType     `json:"action_type"`
	Status     ActionStatus   `json:"status"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
}

// MacroExecution is an immutable record of one macro run against a ticket.
type MacroExecution struct {
	ID            string
	MacroID       string
	TicketID      string
	ExecutedBy    string
	ExecutionType string
	Status        ExecutionStatus
	StartedAt     time.Time
	CompletedAt   time.Time
	Results       []ActionResult
	ErrorMessage  *string
	Metadata      map[string]any
}
