package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// RepliesHandler manages thread reply endpoints and ticket resolution.
type RepliesHandler struct {
	service *service.ReplyService
}

// NewRepliesHandler constructs handler.
func NewRepliesHandler(replyService *service.ReplyService) *RepliesHandler {
	return &RepliesHandler{service: replyService}
}

// CreateReply POST /ticket-response/:ticketId.
func (h *RepliesHandler) CreateReply(c *fiber.Ctx) error {
	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	result, err := h.service.CreateReply(c.Context(), c.Params("ticketId"), req.UserID, req.Role, req.ReplyData.ResponseText)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Reply created successfully",
		dto.NewReplyResponse(result.Reply, result.AuthorEmail, result.CounterpartEmail))
}

// UpdateReply PUT /ticket-response/:ticketId/response/:responseId.
func (h *RepliesHandler) UpdateReply(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}
	var req dto.UpdateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.UpdateReply(c.Context(), c.Params("ticketId"), c.Params("responseId"), userID, req.UpdatedText)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Reply updated successfully", fiber.Map{
		"responseId":   reply.ID,
		"ticketId":     reply.TicketID,
		"responseText": reply.ResponseText,
		"role":         string(reply.Role),
		"updatedAt":    reply.UpdatedAt,
	})
}

// DeleteReply DELETE /ticket-response/:ticketId/response/:responseId.
func (h *RepliesHandler) DeleteReply(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	if err := h.service.DeleteReply(c.Context(), c.Params("ticketId"), c.Params("responseId"), userID); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Reply deleted successfully", nil)
}

// ResolveTicket PUT /ticket-response/:ticketId/update-status.
func (h *RepliesHandler) ResolveTicket(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	ticket, err := h.service.ResolveTicket(c.Context(), c.Params("ticketId"), userID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Ticket resolved successfully", fiber.Map{
		"ticketId":   ticket.ID,
		"status":     string(ticket.Status),
		"resolvedAt": ticket.ResolvedAt,
	})
}
