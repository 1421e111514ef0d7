package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /ticket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), service.TicketCreateInput{
		UserID:      req.UserID,
		BookingID:   req.BookingID,
		Description: req.Description,
		Role:        req.Role,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Ticket created successfully", dto.NewTicketCreatedResponse(ticket))
}

// SearchTickets GET /ticket/search.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	buckets, err := h.service.SearchTickets(
		c.Context(),
		userID,
		c.Query("role"),
		c.Query("ticket_status", "ALL"),
		c.Query("booking_category"),
		c.QueryInt("page", 0),
		c.QueryInt("size", 10),
	)
	if err != nil {
		return err
	}

	data := fiber.Map{}
	for bucket, listings := range buckets {
		data[bucket] = dto.NewSimpleTickets(listings)
	}
	return success(c, http.StatusOK, "Tickets fetched successfully", data)
}

// GetTicketDetail GET /ticket/search/:userId/:ticketId.
func (h *TicketsHandler) GetTicketDetail(c *fiber.Ctx) error {
	detail, err := h.service.GetTicketDetail(
		c.Context(),
		c.Params("userId"),
		c.Params("ticketId"),
		c.QueryInt("page", 0),
		c.QueryInt("size", 10),
	)
	if err != nil {
		return err
	}

	resp := dto.TicketDetailResponse{
		TicketID:    detail.Ticket.ID,
		Status:      string(detail.Ticket.Status),
		Category:    string(detail.Ticket.Category),
		Time:        detail.Ticket.CreatedAt,
		Description: detail.Ticket.Description,
		Responses:   dto.NewDetailReplies(detail.Replies, detail.ViewerRole, detail.CustomerEmail, detail.AgentEmail),
		TotalPages:  detail.TotalPages,
	}
	return success(c, http.StatusOK, "Ticket fetched successfully", resp)
}

// CountTickets GET /ticket/count/search.
func (h *TicketsHandler) CountTickets(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	counts, err := h.service.CountActiveResolved(c.Context(), userID, c.Query("role"), c.Query("category"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Ticket counts fetched successfully", counts)
}

// ListReplies GET /ticket/:ticketId/response.
func (h *TicketsHandler) ListReplies(c *fiber.Ctx) error {
	if c.Query("userId") == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	thread, err := h.service.ListTicketReplies(c.Context(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	if len(thread.Replies) == 0 {
		return apperrors.NewNotFound("Ticket not found", nil)
	}

	return success(c, http.StatusOK, "Replies fetched successfully", fiber.Map{
		"replies": dto.NewThreadReplies(thread.Replies, thread.AgentEmail),
	})
}
