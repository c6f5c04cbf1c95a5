package dto

import (
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

// MacroRequest is the create/update payload for a macro.
type MacroRequest struct {
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	TriggerType        string             `json:"trigger_type"`
	Conditions         []domain.Condition `json:"conditions"`
	ConditionsOperator string             `json:"conditions_operator"`
	Actions            []domain.Action    `json:"actions"`
	IsActive           bool               `json:"is_active"`
	Category           string             `json:"category"`
	Priority           int                `json:"priority"`
	Keywords           []string           `json:"keywords"`
}

// MacroResponse is the stored macro shape.
type MacroResponse struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	TriggerType        string             `json:"trigger_type"`
	Conditions         []domain.Condition `json:"conditions"`
	ConditionsOperator string             `json:"conditions_operator"`
	Actions            []domain.Action    `json:"actions"`
	IsActive           bool               `json:"is_active"`
	Category           string             `json:"category"`
	Priority           int                `json:"priority"`
	Keywords           []string           `json:"keywords"`
	ExecutionCount     int                `json:"execution_count"`
	LastExecutedAt     *time.Time         `json:"last_executed_at,omitempty"`
	SuccessRate        float64            `json:"success_rate"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// ExecuteMacroRequest is the POST /macros/:id/execute payload.
type ExecuteMacroRequest struct {
	TicketID  string         `json:"ticket_id"`
	Overrides map[string]any `json:"overrides"`
}

// TestMacroRequest is the POST /macros/:id/test payload.
type TestMacroRequest struct {
	TicketID string `json:"ticket_id"`
}

// ValidateMacroRequest is the POST /macros/validate payload.
type ValidateMacroRequest struct {
	Conditions []domain.Condition `json:"conditions"`
	Actions    []domain.Action    `json:"actions"`
}

// ActionResultResponse is one per-action outcome within an execution.
type ActionResultResponse struct {
	ActionType string         `json:"action_type,omitempty"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
}

// ExecutionResponse is one macro run record.
type ExecutionResponse struct {
	ID            string                 `json:"id,omitempty"`
	MacroID       string                 `json:"macro_id"`
	TicketID      string                 `json:"ticket_id"`
	ExecutedBy    string                 `json:"executed_by"`
	ExecutionType string                 `json:"execution_type"`
	Status        string                 `json:"status"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at"`
	Results       []ActionResultResponse `json:"results"`
	ErrorMessage  *string                `json:"error_message,omitempty"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
}
