package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-service/internal/audit"
	"github.com/spec-kit/portal-service/internal/auth"
	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/events"
	"github.com/spec-kit/portal-service/internal/repository"
	"github.com/spec-kit/portal-service/internal/sla"
	"github.com/spec-kit/portal-service/internal/storage"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

const (
	replyEditWindow   = 15 * time.Minute
	replyDeleteWindow = 30 * time.Minute
)

// TicketService coordinates the ticket aggregate: lifecycle, replies,
// attachments, history and the side effects each operation triggers.
type TicketService struct {
	tickets     repository.TicketRepository
	replies     repository.TicketReplyRepository
	attachments repository.AttachmentRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	auditSink   audit.Sink
	files       storage.FileStore
	logger      *zap.Logger
	clock       func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ReplyRepo      repository.TicketReplyRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	AuditSink      audit.Sink
	FileStore      storage.FileStore
	Logger         *zap.Logger
	Clock          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Priority       domain.TicketPriority
	CategoryID     *string
	AssignedTo     *string
	RequesterEmail string
	RequesterName  string
	Source         string
}

// TicketPatch carries optional field edits; nil means "leave unchanged".
type TicketPatch struct {
	Title         *string
	Description   *string
	Priority      *domain.TicketPriority
	CategoryID    *string
	AssignedTo    *string
	RequesterName *string
	Source        *string
}

// StatusChangeInput describes a status transition request.
type StatusChangeInput struct {
	Status               domain.TicketStatus
	Resolution           *string
	Reason               string
	SuppressNotification bool
}

// ReplyCreateInput describes a new conversation entry.
type ReplyCreateInput struct {
	Type        domain.ReplyType
	Content     string
	IsInternal  bool
	Attachments []AttachmentUpload
}

// AttachmentUpload carries raw attachment bytes plus metadata.
type AttachmentUpload struct {
	Data     []byte
	FileName string
	MimeType string
}

// TicketListInput describes listing filters and pagination.
type TicketListInput struct {
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	CategoryID      *string
	AssignedTo      *string
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	SLABreachedOnly bool
	Page            int
	PageSize        int
}

// TicketPage is one page of listing results.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
	HasNext  bool
	HasPrev  bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		replies:     deps.ReplyRepo,
		attachments: deps.AttachmentRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		auditSink:   deps.AuditSink,
		files:       deps.FileStore,
		logger:      deps.Logger,
		clock:       clock,
	}
}

// CreateTicket creates a ticket with derived SLA deadlines and a sequential
// per-organization ticket number.
func (s *TicketService) CreateTicket(ctx context.Context, rc domain.RequestContext, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || strings.TrimSpace(input.RequesterEmail) == "" {
		return nil, apperrors.NewValidationError("title, description and requester_email are required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	now := s.clock()
	deadlines := sla.ComputeDeadlines(priority, now)
	ticket := &domain.Ticket{
		OrganizationID:        rc.OrganizationID,
		Title:                 title,
		Description:           description,
		Priority:              priority,
		Status:                domain.TicketStatusOpen,
		CategoryID:            input.CategoryID,
		AssignedTo:            input.AssignedTo,
		RequesterEmail:        strings.TrimSpace(input.RequesterEmail),
		RequesterName:         strings.TrimSpace(input.RequesterName),
		Source:                input.Source,
		SLADeadline:           deadlines.SLADeadline,
		FirstResponseDeadline: deadlines.FirstResponseDeadline,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit(ctx, rc, "ticket.created", "ticket", ticket.ID, map[string]any{
		"ticket_number": ticket.TicketNumber,
		"priority":      ticket.Priority,
	})
	s.publishEvent(ctx, events.Event{
		Type:           events.EventTicketCreated,
		OrganizationID: ticket.OrganizationID,
		TicketID:       ticket.ID,
		ActorID:        rc.UserID,
		Payload: events.TicketCreatedPayload{
			TicketNumber:   ticket.TicketNumber,
			Title:          ticket.Title,
			Priority:       ticket.Priority,
			RequesterEmail: ticket.RequesterEmail,
			AssignedTo:     ticket.AssignedTo,
		},
	})
	// Breach monitoring is owned by the external job scheduler.
	s.logger.Debug("sla monitoring delegated",
		zap.String("ticket_id", ticket.ID),
		zap.Time("sla_deadline", ticket.SLADeadline))
	return ticket, nil
}

// UpdateTicket applies the fields present in the patch. Priority changes
// re-derive SLA deadlines from the original creation time.
func (s *TicketService) UpdateTicket(ctx context.Context, rc domain.RequestContext, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	assigneeChanged := false
	priorityChanged := false
	oldPriority := ticket.Priority

	if patch.Title != nil && *patch.Title != ticket.Title {
		changes["title"] = diff(ticket.Title, *patch.Title)
		ticket.Title = *patch.Title
	}
	if patch.Description != nil && *patch.Description != ticket.Description {
		changes["description"] = diff(ticket.Description, *patch.Description)
		ticket.Description = *patch.Description
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		if !domain.ValidPriority(*patch.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
		}
		changes["priority"] = diff(ticket.Priority, *patch.Priority)
		ticket.Priority = *patch.Priority
		priorityChanged = true
	}
	if patch.CategoryID != nil && !strPtrEq(patch.CategoryID, ticket.CategoryID) {
		changes["category_id"] = diff(strPtrVal(ticket.CategoryID), *patch.CategoryID)
		ticket.CategoryID = patch.CategoryID
	}
	if patch.AssignedTo != nil && !strPtrEq(patch.AssignedTo, ticket.AssignedTo) {
		changes["assigned_to"] = diff(strPtrVal(ticket.AssignedTo), *patch.AssignedTo)
		ticket.AssignedTo = patch.AssignedTo
		assigneeChanged = true
	}
	if patch.RequesterName != nil && *patch.RequesterName != ticket.RequesterName {
		changes["requester_name"] = diff(ticket.RequesterName, *patch.RequesterName)
		ticket.RequesterName = *patch.RequesterName
	}
	if patch.Source != nil && *patch.Source != ticket.Source {
		changes["source"] = diff(ticket.Source, *patch.Source)
		ticket.Source = *patch.Source
	}

	if len(changes) == 0 {
		return ticket, nil
	}

	if priorityChanged {
		// Deadlines are re-derived from the original creation time, and
		// the response deadline is frozen once a first response exists.
		deadlines := sla.ComputeDeadlines(ticket.Priority, ticket.CreatedAt)
		ticket.SLADeadline = deadlines.SLADeadline
		if ticket.FirstResponseAt == nil {
			ticket.FirstResponseDeadline = deadlines.FirstResponseDeadline
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketErr(err, ticketID)
	}

	s.audit(ctx, rc, "ticket.updated", "ticket", ticket.ID, changes)
	if priorityChanged {
		s.publishEvent(ctx, events.Event{
			Type:           events.EventTicketPriorityChanged,
			OrganizationID: ticket.OrganizationID,
			TicketID:       ticket.ID,
			ActorID:        rc.UserID,
			Payload: events.TicketPriorityChangedPayload{
				TicketNumber:   ticket.TicketNumber,
				OldPriority:    oldPriority,
				NewPriority:    ticket.Priority,
				RequesterEmail: ticket.RequesterEmail,
				SLADeadline:    ticket.SLADeadline,
			},
		})
	}
	if assigneeChanged {
		s.publishEvent(ctx, events.Event{
			Type:           events.EventTicketAssigned,
			OrganizationID: ticket.OrganizationID,
			TicketID:       ticket.ID,
			ActorID:        rc.UserID,
			Payload: events.TicketAssignedPayload{
				TicketNumber: ticket.TicketNumber,
				AssignedTo:   ticket.AssignedTo,
			},
		})
	}
	return ticket, nil
}

// ChangeStatus applies a state-machine-checked transition. Illegal
// transitions fail before any persistence.
func (s *TicketService) ChangeStatus(ctx context.Context, rc domain.RequestContext, ticketID string, input StatusChangeInput) (*domain.Ticket, error) {
	if !domain.ValidStatus(input.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.Status})
	}
	ticket, err := s.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, input.Status) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(input.Status))
	}

	now := s.clock()
	from := ticket.Status
	applyTransition(ticket, input.Status, input.Resolution, now)

	history := &domain.TicketStatusHistory{
		TicketID:   ticket.ID,
		FromStatus: from,
		ToStatus:   ticket.Status,
		ChangedBy:  rc.UserID,
		Reason:     input.Reason,
	}
	if err := s.tickets.UpdateWithHistory(ctx, ticket, history); err != nil {
		return nil, s.mapTicketErr(err, ticketID)
	}

	s.audit(ctx, rc, "ticket.status_changed", "ticket", ticket.ID, map[string]any{
		"from": from,
		"to":   ticket.Status,
	})
	s.publishEvent(ctx, events.Event{
		Type:           events.EventTicketStatusChanged,
		OrganizationID: ticket.OrganizationID,
		TicketID:       ticket.ID,
		ActorID:        rc.UserID,
		Payload: events.TicketStatusChangedPayload{
			TicketNumber:   ticket.TicketNumber,
			OldStatus:      from,
			NewStatus:      ticket.Status,
			RequesterEmail: ticket.RequesterEmail,
			Suppressed:     input.SuppressNotification,
		},
	})
	return ticket, nil
}

// CreateReply appends a conversation entry and applies first-response and
// auto-assignment side effects.
func (s *TicketService) CreateReply(ctx context.Context, rc domain.RequestContext, ticketID string, input ReplyCreateInput) (*domain.TicketReply, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}
	replyType := input.Type
	if replyType == "" {
		if auth.IsAgent(rc.Roles) {
			replyType = domain.ReplyTypeAgent
		} else {
			replyType = domain.ReplyTypeClient
		}
	}
	if replyType == domain.ReplyTypeClient && input.IsInternal {
		return nil, apperrors.NewValidationError("client replies cannot be internal", nil)
	}

	ticket, err := s.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, err
	}

	reply := &domain.TicketReply{
		TicketID:   ticket.ID,
		Type:       replyType,
		Content:    content,
		IsInternal: input.IsInternal,
		CreatedBy:  rc.UserID,
	}

	// First-response and auto-assignment land in the same transaction as the
	// reply row, so a failure cannot leave a reply without its side effects.
	ticketDirty := false
	if replyType == domain.ReplyTypeAgent {
		if !input.IsInternal && ticket.FirstResponseAt == nil {
			now := s.clock()
			ticket.FirstResponseAt = &now
			ticketDirty = true
		}
		if ticket.AssignedTo == nil {
			actorID := rc.UserID
			ticket.AssignedTo = &actorID
			ticketDirty = true
		}
	}
	if ticketDirty {
		if err := s.replies.CreateWithTicket(ctx, reply, ticket); err != nil {
			return nil, s.mapTicketErr(err, ticketID)
		}
	} else {
		if err := s.replies.Create(ctx, reply); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	for _, upload := range input.Attachments {
		attachment, err := s.storeAttachment(ctx, ticket.ID, reply.ID, upload)
		if err != nil {
			return nil, err
		}
		reply.Attachments = append(reply.Attachments, *attachment)
	}

	s.audit(ctx, rc, "ticket.reply_created", "ticket_reply", reply.ID, map[string]any{
		"ticket_id":   ticket.ID,
		"is_internal": reply.IsInternal,
	})
	if replyType == domain.ReplyTypeAgent && !reply.IsInternal {
		s.publishEvent(ctx, events.Event{
			Type:           events.EventTicketReplyAdded,
			OrganizationID: ticket.OrganizationID,
			TicketID:       ticket.ID,
			ActorID:        rc.UserID,
			Payload: events.TicketReplyAddedPayload{
				ReplyID:        reply.ID,
				ReplyType:      reply.Type,
				IsInternal:     reply.IsInternal,
				RequesterEmail: ticket.RequesterEmail,
				BodyPreview:    stringPreview(reply.Content, 120),
			},
		})
	}
	return reply, nil
}

// UpdateReply edits a reply within the 15 minute window. The creator may
// edit their own reply; privileged roles bypass both checks.
func (s *TicketService) UpdateReply(ctx context.Context, rc domain.RequestContext, replyID, content string) (*domain.TicketReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}
	reply, err := s.getAuthorizedReply(ctx, rc, replyID, replyEditWindow)
	if err != nil {
		return nil, err
	}
	reply.Content = content
	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, rc, "ticket.reply_updated", "ticket_reply", reply.ID, nil)
	return reply, nil
}

// DeleteReply removes a reply within the 30 minute window, cascading to its
// attachments and their stored files.
func (s *TicketService) DeleteReply(ctx context.Context, rc domain.RequestContext, replyID string) error {
	reply, err := s.getAuthorizedReply(ctx, rc, replyID, replyDeleteWindow)
	if err != nil {
		return err
	}
	attachments, err := s.attachments.ListByReply(ctx, reply.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, attachment := range attachments {
		if err := s.files.Delete(ctx, attachment.FilePath); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
			return apperrors.MapError(err)
		}
	}
	if err := s.replies.Delete(ctx, reply.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit(ctx, rc, "ticket.reply_deleted", "ticket_reply", reply.ID, map[string]any{
		"attachments_removed": len(attachments),
	})
	return nil
}

// AddAttachment stores a file and binds its metadata to a reply.
func (s *TicketService) AddAttachment(ctx context.Context, rc domain.RequestContext, replyID string, upload AttachmentUpload) (*domain.Attachment, error) {
	reply, err := s.getAuthorizedReply(ctx, rc, replyID, 0)
	if err != nil {
		return nil, err
	}
	attachment, err := s.storeAttachment(ctx, reply.TicketID, reply.ID, upload)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, rc, "ticket.attachment_added", "attachment", attachment.ID, map[string]any{
		"reply_id":  reply.ID,
		"file_name": attachment.OriginalName,
	})
	return attachment, nil
}

// RemoveAttachment deletes attachment metadata and the stored file.
func (s *TicketService) RemoveAttachment(ctx context.Context, rc domain.RequestContext, attachmentID string) error {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return apperrors.MapError(err)
	}
	if _, err := s.getAuthorizedReply(ctx, rc, attachment.ReplyID, 0); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, attachment.FilePath); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit(ctx, rc, "ticket.attachment_removed", "attachment", attachment.ID, nil)
	return nil
}

// GetTicket returns a ticket with its conversation and status history.
// Internal notes are hidden from non-agent callers.
func (s *TicketService) GetTicket(ctx context.Context, rc domain.RequestContext, ticketID string) (*domain.Ticket, []domain.TicketReply, []domain.TicketStatusHistory, error) {
	ticket, err := s.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	visible := make([]domain.TicketReply, 0, len(replies))
	for i := range replies {
		if replies[i].IsInternal && !auth.IsAgent(rc.Roles) {
			continue
		}
		attachments, err := s.attachments.ListByReply(ctx, replies[i].ID)
		if err != nil {
			return nil, nil, nil, apperrors.MapError(err)
		}
		replies[i].Attachments = attachments
		visible = append(visible, replies[i])
	}
	historyRows, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return ticket, visible, historyRows, nil
}

// ListTickets returns a filtered, paginated ticket page.
func (s *TicketService) ListTickets(ctx context.Context, rc domain.RequestContext, input TicketListInput) (*TicketPage, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	filter := repository.TicketFilter{
		OrganizationID: rc.OrganizationID,
		Statuses:       input.Statuses,
		Priorities:     input.Priorities,
		CategoryID:     input.CategoryID,
		AssignedTo:     input.AssignedTo,
		SearchTerm:     input.SearchTerm,
		CreatedFrom:    input.CreatedFrom,
		CreatedTo:      input.CreatedTo,
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
	}
	if input.SLABreachedOnly {
		now := s.clock()
		filter.SLABreachedAt = &now
	}
	items, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  page*pageSize < total,
		HasPrev:  page > 1,
	}, nil
}

// GetStats returns aggregate ticket figures for the caller's organization.
func (s *TicketService) GetStats(ctx context.Context, rc domain.RequestContext) (*domain.TicketStats, error) {
	stats, err := s.tickets.Stats(ctx, rc.OrganizationID, s.clock())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// DeleteTicket tombstones a ticket. Privileged roles only.
func (s *TicketService) DeleteTicket(ctx context.Context, rc domain.RequestContext, ticketID string) error {
	if !auth.IsPrivileged(rc.Roles) {
		return apperrors.NewForbidden("insufficient role to delete tickets")
	}
	if err := s.tickets.SoftDelete(ctx, rc.OrganizationID, ticketID, s.clock()); err != nil {
		return s.mapTicketErr(err, ticketID)
	}
	s.audit(ctx, rc, "ticket.deleted", "ticket", ticketID, nil)
	return nil
}

func (s *TicketService) getTicket(ctx context.Context, rc domain.RequestContext, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, rc.OrganizationID, ticketID)
	if err != nil {
		return nil, s.mapTicketErr(err, ticketID)
	}
	return ticket, nil
}

func (s *TicketService) mapTicketErr(err error, ticketID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}

// getAuthorizedReply loads a reply, checks tenant scope through the parent
// ticket and enforces the creator-or-privileged rule. A non-zero window
// additionally restricts non-privileged callers to recent replies.
func (s *TicketService) getAuthorizedReply(ctx context.Context, rc domain.RequestContext, replyID string, window time.Duration) (*domain.TicketReply, error) {
	reply, err := s.replies.GetByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reply", map[string]any{"reply_id": replyID})
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.getTicket(ctx, rc, reply.TicketID); err != nil {
		return nil, err
	}
	if auth.IsPrivileged(rc.Roles) {
		return reply, nil
	}
	if reply.CreatedBy != rc.UserID {
		return nil, apperrors.NewForbidden("only the reply creator may modify it")
	}
	if window > 0 && s.clock().Sub(reply.CreatedAt) > window {
		return nil, apperrors.NewForbidden("the edit window for this reply has passed")
	}
	return reply, nil
}

func (s *TicketService) storeAttachment(ctx context.Context, ticketID, replyID string, upload AttachmentUpload) (*domain.Attachment, error) {
	if len(upload.Data) == 0 || upload.FileName == "" {
		return nil, apperrors.NewValidationError("attachment data and file name are required", nil)
	}
	stored, err := s.files.Store(ctx, upload.Data, upload.FileName, upload.MimeType, "tickets/"+ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachment := &domain.Attachment{
		ReplyID:      replyID,
		FileName:     stored.FileName,
		OriginalName: upload.FileName,
		MimeType:     upload.MimeType,
		FileSize:     int64(len(upload.Data)),
		FilePath:     stored.Path,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		// Don't leave an orphaned file behind.
		_ = s.files.Delete(ctx, stored.Path)
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

func (s *TicketService) audit(ctx context.Context, rc domain.RequestContext, action, resourceType, resourceID string, details map[string]any) {
	if s.auditSink == nil {
		return
	}
	s.auditSink.Log(ctx, audit.Entry{
		OrganizationID: rc.OrganizationID,
		UserID:         rc.UserID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Details:        details,
		IPAddress:      rc.IPAddress,
		UserAgent:      rc.UserAgent,
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func diff(from, to any) map[string]any {
	return map[string]any{"from": from, "to": to}
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
