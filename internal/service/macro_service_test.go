package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/events"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

type macroFixture struct {
	*ticketFixture
	svc    *MacroService
	macros *fakeMacroRepo
	execs  *fakeExecutionRepo
	outbox *fakeOutbox
}

func newMacroFixture() *macroFixture {
	base := newTicketFixture()
	macros := newFakeMacroRepo()
	execs := &fakeExecutionRepo{}
	emailOutbox := &fakeOutbox{}

	svc := NewMacroService(MacroDependencies{
		MacroRepo:     macros,
		ExecutionRepo: execs,
		TicketService: base.svc,
		EmailOutbox:   emailOutbox,
		Dispatcher:    events.NewInMemoryDispatcher(),
		AuditSink:     base.auditSink,
		Logger:        zap.NewNop(),
		Clock:         base.clock.Now,
	})
	return &macroFixture{
		ticketFixture: base,
		svc:           svc,
		macros:        macros,
		execs:         execs,
		outbox:        emailOutbox,
	}
}

func (f *macroFixture) createMacro(t *testing.T, input MacroInput) *domain.Macro {
	t.Helper()
	if input.Name == "" {
		input.Name = "test macro"
	}
	input.IsActive = true
	macro, err := f.svc.CreateMacro(context.Background(), adminCtx, input)
	require.NoError(t, err)
	return macro
}

func TestEvaluateConditions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	category := "billing"
	ticket := &domain.Ticket{
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
		CategoryID:  &category,
		Description: "The invoice total is wrong",
		CreatedAt:   now.Add(-150 * time.Minute),
	}
	extra := map[string]any{"channel": "email"}

	tests := []struct {
		name       string
		conditions []domain.Condition
		operator   domain.ConditionsOperator
		want       bool
	}{
		{"empty list matches everything", nil, domain.ConditionsAnd, true},
		{"status equals", []domain.Condition{{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: "open"}}, domain.ConditionsAnd, true},
		{"status not equals", []domain.Condition{{Field: domain.FieldStatus, Operator: domain.OpNotEquals, Value: "closed"}}, domain.ConditionsAnd, true},
		{"priority equals wrong value", []domain.Condition{{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "urgent"}}, domain.ConditionsAnd, false},
		{"content contains case insensitive", []domain.Condition{{Field: domain.FieldContent, Operator: domain.OpContains, Value: "INVOICE"}}, domain.ConditionsAnd, true},
		{"content not contains", []domain.Condition{{Field: domain.FieldContent, Operator: domain.OpNotContains, Value: "refund"}}, domain.ConditionsAnd, true},
		{"category equals", []domain.Condition{{Field: domain.FieldCategory, Operator: domain.OpEquals, Value: "billing"}}, domain.ConditionsAnd, true},
		{"unassigned ticket has empty assignee", []domain.Condition{{Field: domain.FieldAssignee, Operator: domain.OpEquals, Value: ""}}, domain.ConditionsAnd, true},
		{"age greater than", []domain.Condition{{Field: domain.FieldAgeHours, Operator: domain.OpGreaterThan, Value: 2}}, domain.ConditionsAnd, true},
		{"age less than", []domain.Condition{{Field: domain.FieldAgeHours, Operator: domain.OpLessThan, Value: 2}}, domain.ConditionsAnd, false},
		{"age numeric equality", []domain.Condition{{Field: domain.FieldAgeHours, Operator: domain.OpEquals, Value: 2.5}}, domain.ConditionsAnd, true},
		{"free form field resolves from context", []domain.Condition{{Field: "channel", Operator: domain.OpEquals, Value: "email"}}, domain.ConditionsAnd, true},
		{
			"AND requires every condition",
			[]domain.Condition{
				{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: "open"},
				{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "urgent"},
			},
			domain.ConditionsAnd, false,
		},
		{
			"OR requires at least one",
			[]domain.Condition{
				{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: "closed"},
				{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "high"},
			},
			domain.ConditionsOr, true,
		},
		{
			"OR with nothing matching",
			[]domain.Condition{
				{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: "closed"},
				{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "urgent"},
			},
			domain.ConditionsOr, false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluateConditions(tc.conditions, tc.operator, ticket, extra, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateMacroLogic(t *testing.T) {
	f := newMacroFixture()

	t.Run("empty actions is a logic error", func(t *testing.T) {
		validation := f.svc.ValidateMacroLogic(nil, nil)
		assert.False(t, validation.IsValid)
		require.NotEmpty(t, validation.Errors)
		assert.Equal(t, "logic", validation.Errors[0].Type)
	})

	t.Run("empty conditions is only a warning", func(t *testing.T) {
		validation := f.svc.ValidateMacroLogic(nil, []domain.Action{
			{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"vip"}}},
		})
		assert.True(t, validation.IsValid)
		assert.Empty(t, validation.Errors)
		require.NotEmpty(t, validation.Warnings)
		assert.Equal(t, "best_practice", validation.Warnings[0].Type)
	})

	t.Run("condition missing parts", func(t *testing.T) {
		validation := f.svc.ValidateMacroLogic(
			[]domain.Condition{{Field: domain.FieldStatus}},
			[]domain.Action{{Type: domain.ActionAddReply, Parameters: map[string]any{"content": "hi"}}},
		)
		assert.False(t, validation.IsValid)
	})

	t.Run("type specific required parameters", func(t *testing.T) {
		validation := f.svc.ValidateMacroLogic(nil, []domain.Action{
			{Type: domain.ActionAddReply, Parameters: map[string]any{}},
			{Type: domain.ActionAssignAgent, Parameters: map[string]any{}},
			{Type: domain.ActionChangeStatus, Parameters: map[string]any{}},
			{Type: domain.ActionSendEmail, Parameters: map[string]any{}},
		})
		assert.False(t, validation.IsValid)
		assert.Len(t, validation.Errors, 4)
	})

	t.Run("content contains warns about performance", func(t *testing.T) {
		validation := f.svc.ValidateMacroLogic(
			[]domain.Condition{{Field: domain.FieldContent, Operator: domain.OpContains, Value: "invoice"}},
			[]domain.Action{{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"x"}}}},
		)
		assert.True(t, validation.IsValid)
		found := false
		for _, warning := range validation.Warnings {
			if warning.Type == "performance" {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestCreateMacroRejectsInvalidLogic(t *testing.T) {
	f := newMacroFixture()
	_, err := f.svc.CreateMacro(context.Background(), adminCtx, MacroInput{Name: "broken"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateMacroNameConflict(t *testing.T) {
	f := newMacroFixture()
	input := MacroInput{
		Name:    "close stale",
		Actions: []domain.Action{{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"stale"}}}},
	}
	f.createMacro(t, input)

	_, err := f.svc.CreateMacro(context.Background(), adminCtx, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestExecuteMacroPartialFailure(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name: "three step",
		Actions: []domain.Action{
			{Type: domain.ActionAddReply, Parameters: map[string]any{"content": "step one"}},
			// open -> open is not a legal transition, so this one fails.
			{Type: domain.ActionChangeStatus, Parameters: map[string]any{"status": "open"}},
			{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"automated"}}},
		},
	})

	execution, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionPartial, execution.Status)
	require.Len(t, execution.Results, 3)
	assert.Equal(t, domain.ActionStatusSuccess, execution.Results[0].Status)
	assert.Equal(t, domain.ActionStatusFailed, execution.Results[1].Status)
	assert.Equal(t, domain.ActionStatusSuccess, execution.Results[2].Status)

	stored, err := f.macros.GetByID(context.Background(), testOrgID, macro.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ExecutionCount)
}

func TestExecuteMacroStatisticsRecomputed(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name: "start work",
		Actions: []domain.Action{
			{Type: domain.ActionChangeStatus, Parameters: map[string]any{"status": "in_progress"}},
		},
	})

	first, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionSuccess, first.Status)

	// The ticket is already in_progress now, so the same transition fails.
	second, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionFailed, second.Status)

	stored, err := f.macros.GetByID(context.Background(), testOrgID, macro.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ExecutionCount)
	assert.InDelta(t, 50.0, stored.SuccessRate, 0.001)
	require.NotNil(t, stored.LastExecutedAt)
}

func TestExecuteMacroUnknownActionType(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name:    "mystery",
		Actions: []domain.Action{{Type: "explode", Parameters: map[string]any{}}},
	})

	execution, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionFailed, execution.Status)
	require.Len(t, execution.Results, 1)
	assert.Equal(t, domain.ActionStatusFailed, execution.Results[0].Status)
	assert.Contains(t, execution.Results[0].Message, "unknown action type")
}

func TestExecuteMacroConditionsGateNonManualTriggers(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityLow)

	macro := f.createMacro(t, MacroInput{
		Name:        "auto resolve urgent",
		TriggerType: domain.TriggerTicketCreated,
		Conditions: []domain.Condition{
			{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "urgent"},
		},
		Actions: []domain.Action{
			{Type: domain.ActionChangeStatus, Parameters: map[string]any{"status": "resolved"}},
		},
	})

	execution, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// The run fails before any action executes.
	require.NotNil(t, execution)
	assert.Equal(t, domain.ExecutionFailed, execution.Status)
	assert.Empty(t, execution.Results)

	stored, getErr := f.tickets.GetByID(context.Background(), testOrgID, ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)

	// Failed runs still count toward statistics.
	storedMacro, getErr := f.macros.GetByID(context.Background(), testOrgID, macro.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, storedMacro.ExecutionCount)
	assert.InDelta(t, 0.0, storedMacro.SuccessRate, 0.001)
}

func TestExecuteMacroInactive(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name:    "dormant",
		Actions: []domain.Action{{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"x"}}}},
	})
	macro.IsActive = false
	require.NoError(t, f.macros.Update(context.Background(), macro))

	_, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Empty(t, f.execs.executions)
}

func TestExecuteMacroAppliesOverrides(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name:    "canned answer",
		Actions: []domain.Action{{Type: domain.ActionAddReply, Parameters: map[string]any{"content": "stored text"}}},
	})

	execution, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID,
		map[string]any{"content": "customized text"})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionSuccess, execution.Status)

	replies, err := f.replies.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "customized text", replies[0].Content)
}

func TestExecuteMacroSendEmailDefaultsToRequester(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name: "notify requester",
		Actions: []domain.Action{
			{Type: domain.ActionSendEmail, Parameters: map[string]any{"template_name": "followup"}},
		},
	})

	execution, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionSuccess, execution.Status)

	require.Len(t, f.outbox.emails, 1)
	assert.Equal(t, ticket.RequesterEmail, f.outbox.emails[0].RecipientEmail)
	assert.Equal(t, "followup", f.outbox.emails[0].TemplateName)
}

func TestTestMacroDryRun(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityLow)

	macro := f.createMacro(t, MacroInput{
		Name: "dry run target",
		Conditions: []domain.Condition{
			{Field: domain.FieldPriority, Operator: domain.OpEquals, Value: "urgent"},
		},
		Actions: []domain.Action{
			{Type: domain.ActionChangeStatus, Parameters: map[string]any{"status": "resolved"}},
			{Type: domain.ActionAddReply, Parameters: map[string]any{"content": "done"}},
		},
	})

	t.Run("unmet conditions report a single skip", func(t *testing.T) {
		execution, err := f.svc.TestMacro(context.Background(), agentCtx, macro.ID, ticket.ID)
		require.NoError(t, err)
		require.Len(t, execution.Results, 1)
		assert.Equal(t, domain.ActionStatusSkipped, execution.Results[0].Status)
	})

	t.Run("met conditions simulate every action", func(t *testing.T) {
		urgent := f.createTicket(t, domain.TicketPriorityUrgent)
		execution, err := f.svc.TestMacro(context.Background(), agentCtx, macro.ID, urgent.ID)
		require.NoError(t, err)
		require.Len(t, execution.Results, 2)
		for _, result := range execution.Results {
			assert.Equal(t, domain.ActionStatusSuccess, result.Status)
			assert.Equal(t, true, result.Data["dry_run"])
		}

		// Nothing was actually mutated.
		stored, getErr := f.tickets.GetByID(context.Background(), testOrgID, urgent.ID)
		require.NoError(t, getErr)
		assert.Equal(t, domain.TicketStatusOpen, stored.Status)
		replies, listErr := f.replies.ListByTicket(context.Background(), urgent.ID)
		require.NoError(t, listErr)
		assert.Empty(t, replies)
	})

	// No run records or statistics for dry runs.
	assert.Empty(t, f.execs.executions)
	assert.Equal(t, 0, f.macros.statsCalls)

	stored, err := f.macros.GetByID(context.Background(), testOrgID, macro.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ExecutionCount)
}

func TestDeleteMacroKeepsHistory(t *testing.T) {
	f := newMacroFixture()
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	macro := f.createMacro(t, MacroInput{
		Name:    "short lived",
		Actions: []domain.Action{{Type: domain.ActionAddTags, Parameters: map[string]any{"tags": []string{"x"}}}},
	})
	_, err := f.svc.ExecuteMacro(context.Background(), agentCtx, macro.ID, ticket.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMacro(context.Background(), adminCtx, macro.ID))

	_, err = f.svc.GetMacro(context.Background(), adminCtx, macro.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	assert.Len(t, f.execs.executions, 1)
}
