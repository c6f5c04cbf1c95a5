package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

// evaluateConditions reports whether the condition set matches the ticket.
// An empty list matches everything.
func evaluateConditions(conditions []domain.Condition, operator domain.ConditionsOperator, ticket *domain.Ticket, extra map[string]any, now time.Time) bool {
	if len(conditions) == 0 {
		return true
	}
	if operator == domain.ConditionsOr {
		for _, cond := range conditions {
			if evaluateCondition(cond, ticket, extra, now) {
				return true
			}
		}
		return false
	}
	for _, cond := range conditions {
		if !evaluateCondition(cond, ticket, extra, now) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond domain.Condition, ticket *domain.Ticket, extra map[string]any, now time.Time) bool {
	resolved := resolveConditionField(cond.Field, ticket, extra, now)
	switch cond.Operator {
	case domain.OpEquals:
		return valuesEqual(resolved, cond.Value)
	case domain.OpNotEquals:
		return !valuesEqual(resolved, cond.Value)
	case domain.OpContains:
		return strings.Contains(
			strings.ToLower(coerceString(resolved)),
			strings.ToLower(coerceString(cond.Value)))
	case domain.OpNotContains:
		return !strings.Contains(
			strings.ToLower(coerceString(resolved)),
			strings.ToLower(coerceString(cond.Value)))
	case domain.OpGreaterThan:
		left, okLeft := coerceFloat(resolved)
		right, okRight := coerceFloat(cond.Value)
		return okLeft && okRight && left > right
	case domain.OpLessThan:
		left, okLeft := coerceFloat(resolved)
		right, okRight := coerceFloat(cond.Value)
		return okLeft && okRight && left < right
	}
	return false
}

// resolveConditionField maps a field name to the ticket attribute it
// inspects. Unknown names fall through to the caller-supplied context.
func resolveConditionField(field domain.ConditionField, ticket *domain.Ticket, extra map[string]any, now time.Time) any {
	switch field {
	case domain.FieldStatus:
		return string(ticket.Status)
	case domain.FieldPriority:
		return string(ticket.Priority)
	case domain.FieldCategory:
		return strPtrVal(ticket.CategoryID)
	case domain.FieldAssignee:
		return strPtrVal(ticket.AssignedTo)
	case domain.FieldContent:
		return ticket.Description
	case domain.FieldAgeHours:
		return now.Sub(ticket.CreatedAt).Hours()
	}
	return extra[string(field)]
}

// valuesEqual compares numerically when both sides are numbers, otherwise
// by exact string form. JSON decoding yields float64 for every number, so
// a stored condition value of 2 must still equal an age of 2.0.
func valuesEqual(a, b any) bool {
	fa, okA := coerceFloat(a)
	fb, okB := coerceFloat(b)
	if okA && okB {
		return fa == fb
	}
	return coerceString(a) == coerceString(b)
}

func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		return parsed, err == nil
	}
	return 0, false
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return stringify(val)
	}
}

func stringify(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	if i, ok := coerceFloat(v); ok {
		return strconv.FormatFloat(i, 'f', -1, 64)
	}
	return ""
}
