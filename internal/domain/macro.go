package domain

import "time"

// TriggerType enumerates how a macro is invoked.
type TriggerType string

const (
	TriggerManual        TriggerType = "manual"
	TriggerTicketCreated TriggerType = "ticket_created"
	TriggerTicketUpdated TriggerType = "ticket_updated"
)

// ConditionsOperator combines condition results.
type ConditionsOperator string

const (
	ConditionsAnd ConditionsOperator = "AND"
	ConditionsOr  ConditionsOperator = "OR"
)

// ConditionField names a ticket attribute a condition can inspect.
// Values outside this set are looked up in the execution context map.
type ConditionField string

const (
	FieldStatus   ConditionField = "status"
	FieldPriority ConditionField = "priority"
	FieldCategory ConditionField = "category"
	FieldAssignee ConditionField = "assignee"
	FieldContent  ConditionField = "content"
	FieldAgeHours ConditionField = "age_hours"
)

// ConditionOperator enumerates supported comparison operators.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not_equals"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
)

// ValidConditionOperator reports whether op is a known operator.
func ValidConditionOperator(op ConditionOperator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// Condition is one field/operator/value predicate.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value"`
}

// ActionType enumerates the macro actions the executor understands.
type ActionType string

const (
	ActionAddReply       ActionType = "add_reply"
	ActionChangeStatus   ActionType = "change_status"
	ActionAssignAgent    ActionType = "assign_agent"
	ActionChangePriority ActionType = "change_priority"
	ActionAddTags        ActionType = "add_tags"
	ActionSendEmail      ActionType = "send_email"
	ActionCreateTask     ActionType = "create_task"
	ActionEscalate       ActionType = "escalate"
)

// Action is one typed macro step with its parameters.
type Action struct {
	Type       ActionType     `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

// Macro is a named, reusable automation rule.
type Macro struct {
	ID                 string
	OrganizationID     string
	Name               string
	Description        string
	TriggerType        TriggerType
	Conditions         []Condition
	ConditionsOperator ConditionsOperator
	Actions            []Action
	IsActive           bool
	Category           string
	Priority           int
	Keywords           []string
	ExecutionCount     int
	LastExecutedAt     *time.Time
	SuccessRate        float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}
