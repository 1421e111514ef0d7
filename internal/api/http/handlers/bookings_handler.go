package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// BookingsHandler exposes booking ownership validation.
type BookingsHandler struct {
	service *service.BookingService
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookingService *service.BookingService) *BookingsHandler {
	return &BookingsHandler{service: bookingService}
}

// Validate GET /booking/:bookingId/validate.
func (h *BookingsHandler) Validate(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	booking, err := h.service.Validate(c.Context(), userID, c.Params("bookingId"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Booking validated successfully", fiber.Map{
		"bookingId": booking.ID,
		"userId":    booking.OwnerUserID,
		"valid":     true,
	})
}
