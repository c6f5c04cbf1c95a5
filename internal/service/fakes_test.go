package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-service/internal/audit"
	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/outbox"
	"github.com/spec-kit/portal-service/internal/repository"
	"github.com/spec-kit/portal-service/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeTicketRepo struct {
	mu       sync.Mutex
	tickets  map[string]*domain.Ticket
	counters map[string]int
	history  []domain.TicketStatusHistory
	now      func() time.Time
}

func newFakeTicketRepo(now func() time.Time) *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:  make(map[string]*domain.Ticket),
		counters: make(map[string]int),
		now:      now,
	}
}

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	year := ticket.CreatedAt.Year()
	key := fmt.Sprintf("%s-%d", ticket.OrganizationID, year)
	r.counters[key]++
	ticket.TicketNumber = fmt.Sprintf("TICKET-%d-%06d", year, r.counters[key])
	ticket.ID = uuid.NewString()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != ticket.OrganizationID {
		return pgx.ErrNoRows
	}
	copied := *ticket
	copied.UpdatedAt = r.now()
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, history *domain.TicketStatusHistory) error {
	if err := r.Update(ctx, ticket); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = r.now()
	r.history = append(r.history, *history)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, organizationID, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != organizationID {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.DeletedAt != nil || ticket.OrganizationID != filter.OrganizationID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.SLABreachedAt != nil &&
			!(ticket.SLADeadline.Before(*filter.SLABreachedAt) && ticket.Status != domain.TicketStatusClosed) {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			if !strings.Contains(strings.ToLower(ticket.Title), term) &&
				!strings.Contains(strings.ToLower(ticket.TicketNumber), term) &&
				!strings.Contains(strings.ToLower(ticket.RequesterEmail), term) {
				continue
			}
		}
		matched = append(matched, *ticket)
	}
	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeTicketRepo) Stats(ctx context.Context, organizationID string, now time.Time) (*domain.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}
	var resolutionTotal float64
	var resolvedCount int
	for _, ticket := range r.tickets {
		if ticket.DeletedAt != nil || ticket.OrganizationID != organizationID {
			continue
		}
		stats.ByStatus[ticket.Status]++
		stats.ByPriority[ticket.Priority]++
		if ticket.SLADeadline.Before(now) && ticket.Status != domain.TicketStatusClosed {
			stats.SLABreached++
		}
		if ticket.ResolvedAt != nil {
			resolutionTotal += ticket.ResolvedAt.Sub(ticket.CreatedAt).Seconds()
			resolvedCount++
		}
		if ticket.CreatedAt.After(now.AddDate(0, 0, -30)) {
			stats.CreatedLast30Days++
		}
	}
	if resolvedCount > 0 {
		stats.AvgResolutionSeconds = resolutionTotal / float64(resolvedCount)
	}
	return stats, nil
}

func (r *fakeTicketRepo) SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != organizationID {
		return pgx.ErrNoRows
	}
	stored.DeletedAt = &now
	return nil
}

func (r *fakeTicketRepo) historyFor(ticketID string) []domain.TicketStatusHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []domain.TicketStatusHistory
	for _, entry := range r.history {
		if entry.TicketID == ticketID {
			rows = append(rows, entry)
		}
	}
	return rows
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}

type fakeReplyRepo struct {
	mu      sync.Mutex
	replies map[string]*domain.TicketReply
	tickets *fakeTicketRepo
	now     func() time.Time
}

func newFakeReplyRepo(tickets *fakeTicketRepo, now func() time.Time) *fakeReplyRepo {
	return &fakeReplyRepo{
		replies: make(map[string]*domain.TicketReply),
		tickets: tickets,
		now:     now,
	}
}

var _ repository.TicketReplyRepository = (*fakeReplyRepo)(nil)

func (r *fakeReplyRepo) Create(ctx context.Context, reply *domain.TicketReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reply.ID = uuid.NewString()
	reply.CreatedAt = r.now()
	reply.UpdatedAt = reply.CreatedAt
	copied := *reply
	r.replies[reply.ID] = &copied
	return nil
}

// CreateWithTicket mirrors the SQL implementation: the reply insert and the
// COALESCE-guarded ticket update succeed or fail together, and the first
// writer's assignment and first-response values stick.
func (r *fakeReplyRepo) CreateWithTicket(ctx context.Context, reply *domain.TicketReply, ticket *domain.Ticket) error {
	r.tickets.mu.Lock()
	defer r.tickets.mu.Unlock()
	stored, ok := r.tickets.tickets[ticket.ID]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != ticket.OrganizationID {
		return pgx.ErrNoRows
	}
	if stored.AssignedTo == nil {
		stored.AssignedTo = ticket.AssignedTo
	}
	if stored.FirstResponseAt == nil {
		stored.FirstResponseAt = ticket.FirstResponseAt
	}
	stored.UpdatedAt = r.tickets.now()
	return r.Create(ctx, reply)
}

func (r *fakeReplyRepo) GetByID(ctx context.Context, id string) (*domain.TicketReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.replies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeReplyRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketReply
	for _, reply := range r.replies {
		if reply.TicketID == ticketID {
			result = append(result, *reply)
		}
	}
	return result, nil
}

func (r *fakeReplyRepo) Update(ctx context.Context, reply *domain.TicketReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.replies[reply.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *reply
	copied.UpdatedAt = r.now()
	r.replies[reply.ID] = &copied
	return nil
}

func (r *fakeReplyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.replies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.replies, id)
	return nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments map[string]*domain.Attachment
	now         func() time.Time
}

func newFakeAttachmentRepo(now func() time.Time) *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*domain.Attachment), now: now}
}

var _ repository.AttachmentRepository = (*fakeAttachmentRepo)(nil)

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = uuid.NewString()
	attachment.CreatedAt = r.now()
	copied := *attachment
	r.attachments[attachment.ID] = &copied
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeAttachmentRepo) ListByReply(ctx context.Context, replyID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.ReplyID == replyID {
			result = append(result, *attachment)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.attachments, id)
	return nil
}

type fakeHistoryRepo struct {
	tickets *fakeTicketRepo
}

var _ repository.TicketHistoryRepository = (*fakeHistoryRepo)(nil)

func (r *fakeHistoryRepo) Create(ctx context.Context, history *domain.TicketStatusHistory) error {
	r.tickets.mu.Lock()
	defer r.tickets.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = r.tickets.now()
	r.tickets.history = append(r.tickets.history, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	return r.tickets.historyFor(ticketID), nil
}

type fakeFileStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

var _ storage.FileStore = (*fakeFileStore)(nil)

func (s *fakeFileStore) Store(ctx context.Context, data []byte, filename, mimeType, folder string) (storage.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := uuid.NewString()
	path := folder + "/" + name
	s.files[path] = data
	return storage.StoredFile{FileName: name, Path: path}, nil
}

func (s *fakeFileStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *fakeFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeAuditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

var _ audit.Sink = (*fakeAuditSink)(nil)

func (s *fakeAuditSink) Log(ctx context.Context, entry audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *fakeAuditSink) byAction(action string) []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []audit.Entry
	for _, entry := range s.entries {
		if entry.Action == action {
			result = append(result, entry)
		}
	}
	return result
}

type fakeOutbox struct {
	mu     sync.Mutex
	emails []outbox.Email
}

var _ outbox.EmailOutbox = (*fakeOutbox)(nil)

func (o *fakeOutbox) Enqueue(ctx context.Context, email outbox.Email) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails = append(o.emails, email)
	return uuid.NewString(), nil
}

type fakeMacroRepo struct {
	mu         sync.Mutex
	macros     map[string]*domain.Macro
	statsCalls int
}

func newFakeMacroRepo() *fakeMacroRepo {
	return &fakeMacroRepo{macros: make(map[string]*domain.Macro)}
}

var _ repository.MacroRepository = (*fakeMacroRepo)(nil)

func (r *fakeMacroRepo) Create(ctx context.Context, macro *domain.Macro) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	macro.ID = uuid.NewString()
	copied := *macro
	r.macros[macro.ID] = &copied
	return nil
}

func (r *fakeMacroRepo) Update(ctx context.Context, macro *domain.Macro) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.macros[macro.ID]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != macro.OrganizationID {
		return pgx.ErrNoRows
	}
	copied := *macro
	r.macros[macro.ID] = &copied
	return nil
}

func (r *fakeMacroRepo) GetByID(ctx context.Context, organizationID, id string) (*domain.Macro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.macros[id]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != organizationID {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMacroRepo) GetByName(ctx context.Context, organizationID, name string) (*domain.Macro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, macro := range r.macros {
		if macro.DeletedAt == nil && macro.OrganizationID == organizationID && macro.Name == name {
			copied := *macro
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMacroRepo) List(ctx context.Context, organizationID string, limit, offset int) ([]domain.Macro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Macro
	for _, macro := range r.macros {
		if macro.DeletedAt == nil && macro.OrganizationID == organizationID {
			result = append(result, *macro)
		}
	}
	return result, nil
}

func (r *fakeMacroRepo) UpdateStats(ctx context.Context, id string, executionCount int, lastExecutedAt time.Time, successRate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.macros[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.ExecutionCount = executionCount
	stored.LastExecutedAt = &lastExecutedAt
	stored.SuccessRate = successRate
	r.statsCalls++
	return nil
}

func (r *fakeMacroRepo) SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.macros[id]
	if !ok || stored.DeletedAt != nil || stored.OrganizationID != organizationID {
		return pgx.ErrNoRows
	}
	stored.DeletedAt = &now
	return nil
}

type fakeExecutionRepo struct {
	mu         sync.Mutex
	executions []domain.MacroExecution
}

var _ repository.MacroExecutionRepository = (*fakeExecutionRepo)(nil)

func (r *fakeExecutionRepo) Create(ctx context.Context, execution *domain.MacroExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	execution.ID = uuid.NewString()
	r.executions = append(r.executions, *execution)
	return nil
}

func (r *fakeExecutionRepo) ListByMacro(ctx context.Context, macroID string, limit, offset int) ([]domain.MacroExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MacroExecution
	for _, execution := range r.executions {
		if execution.MacroID == macroID {
			result = append(result, execution)
		}
	}
	return result, nil
}

func (r *fakeExecutionRepo) CountByMacro(ctx context.Context, macroID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, successes := 0, 0
	for _, execution := range r.executions {
		if execution.MacroID != macroID {
			continue
		}
		total++
		if execution.Status == domain.ExecutionSuccess {
			successes++
		}
	}
	return total, successes, nil
}
