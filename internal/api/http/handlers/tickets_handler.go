package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-service/internal/api/dto"
	"github.com/spec-kit/portal-service/internal/auth"
	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/service"
	"github.com/spec-kit/portal-service/internal/sla"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), rc, service.TicketCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TicketPriority(req.Priority),
		CategoryID:     req.CategoryID,
		AssignedTo:     req.AssignedTo,
		RequesterEmail: req.RequesterEmail,
		RequesterName:  req.RequesterName,
		Source:         req.Source,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page, err := h.service.ListTickets(c.UserContext(), rc, parseTicketListQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketSummary(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		HasNext:  page.HasNext,
		HasPrev:  page.HasPrev,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, replies, history, err := h.service.GetTicket(c.UserContext(), rc, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, replies, history)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.TicketPatch{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		AssignedTo:    req.AssignedTo,
		RequesterName: req.RequesterName,
		Source:        req.Source,
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		patch.Priority = &priority
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), rc, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), rc, c.Params("id"), service.StatusChangeInput{
		Status:               domain.TicketStatus(req.Status),
		Resolution:           req.Resolution,
		Reason:               req.Reason,
		SuppressNotification: req.SuppressNotification,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTicket(c.UserContext(), rc, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetStats GET /tickets/stats.
func (h *TicketsHandler) GetStats(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.GetStats(c.UserContext(), rc)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{
		ByStatus:             stats.ByStatus,
		ByPriority:           stats.ByPriority,
		SLABreached:          stats.SLABreached,
		AvgResolutionSeconds: stats.AvgResolutionSeconds,
		CreatedLast30Days:    stats.CreatedLast30Days,
	}})
}

// CreateReply POST /tickets/:id/replies.
func (h *TicketsHandler) CreateReply(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachments := make([]service.AttachmentUpload, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.AttachmentUpload{
			Data:     att.Data,
			FileName: att.FileName,
			MimeType: att.MimeType,
		})
	}
	reply, err := h.service.CreateReply(c.UserContext(), rc, c.Params("id"), service.ReplyCreateInput{
		Type:        domain.ReplyType(req.Type),
		Content:     req.Content,
		IsInternal:  req.IsInternal,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": replyResponse(reply)})
}

// UpdateReply PATCH /replies/:id.
func (h *TicketsHandler) UpdateReply(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.service.UpdateReply(c.UserContext(), rc, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": replyResponse(reply)})
}

// DeleteReply DELETE /replies/:id.
func (h *TicketsHandler) DeleteReply(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteReply(c.UserContext(), rc, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddAttachment POST /replies/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AttachmentPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), rc, c.Params("id"), service.AttachmentUpload{
		Data:     req.Data,
		FileName: req.FileName,
		MimeType: req.MimeType,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(*attachment)})
}

// RemoveAttachment DELETE /attachments/:id.
func (h *TicketsHandler) RemoveAttachment(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.RemoveAttachment(c.UserContext(), rc, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			input.Priorities = append(input.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category_id"); category != "" {
		input.CategoryID = &category
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		input.AssignedTo = &assignee
	}
	if search := c.Query("search"); search != "" {
		input.SearchTerm = &search
	}
	input.CreatedFrom = parseTime(c.Query("created_from"))
	input.CreatedTo = parseTime(c.Query("created_to"))
	input.SLABreachedOnly = c.QueryBool("sla_breached")
	input.Page = parseInt(c.Query("page"), 1)
	input.PageSize = parseInt(c.Query("page_size"), 20)
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:             ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		Title:          ticket.Title,
		Status:         string(ticket.Status),
		Priority:       string(ticket.Priority),
		CategoryID:     ticket.CategoryID,
		AssignedTo:     ticket.AssignedTo,
		RequesterEmail: ticket.RequesterEmail,
		SLADeadline:    ticket.SLADeadline,
		SLA:            slaStatus(ticket),
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ResolvedAt:     ticket.ResolvedAt,
		ClosedAt:       ticket.ClosedAt,
	}
}

func slaStatus(ticket *domain.Ticket) dto.SLAStatus {
	status := sla.ComputeStatus(time.Now(), ticket.SLADeadline)
	return dto.SLAStatus{
		Value:           string(status.Value),
		Breached:        status.Breached,
		MinutesToBreach: status.MinutesToBreach,
	}
}

func ticketDetail(ticket *domain.Ticket, replies []domain.TicketReply, history []domain.TicketStatusHistory) dto.TicketDetail {
	replyItems := make([]dto.ReplyResponse, 0, len(replies))
	for i := range replies {
		replyItems = append(replyItems, replyResponse(&replies[i]))
	}
	historyItems := make([]dto.HistoryResponse, 0, len(history))
	for _, entry := range history {
		historyItems = append(historyItems, dto.HistoryResponse{
			ID:         entry.ID,
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			ChangedBy:  entry.ChangedBy,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return dto.TicketDetail{
		TicketSummary:         ticketSummary(ticket),
		Description:           ticket.Description,
		RequesterName:         ticket.RequesterName,
		Source:                ticket.Source,
		Resolution:            ticket.Resolution,
		FirstResponseDeadline: ticket.FirstResponseDeadline,
		FirstResponseAt:       ticket.FirstResponseAt,
		Replies:               replyItems,
		History:               historyItems,
	}
}

func replyResponse(reply *domain.TicketReply) dto.ReplyResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(reply.Attachments))
	for _, att := range reply.Attachments {
		attachments = append(attachments, attachmentResponse(att))
	}
	return dto.ReplyResponse{
		ID:          reply.ID,
		TicketID:    reply.TicketID,
		Type:        string(reply.Type),
		Content:     reply.Content,
		IsInternal:  reply.IsInternal,
		CreatedBy:   reply.CreatedBy,
		CreatedAt:   reply.CreatedAt,
		Attachments: attachments,
	}
}

func attachmentResponse(att domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:           att.ID,
		FileName:     att.FileName,
		OriginalName: att.OriginalName,
		MimeType:     att.MimeType,
		FileSize:     att.FileSize,
		CreatedAt:    att.CreatedAt,
	}
}
