package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// BookingService validates booking ownership ahead of postbooking ticket
// creation.
type BookingService struct {
	users    repository.UserRepository
	bookings repository.BookingRepository
	logger   *zap.Logger
}

// NewBookingService constructs the service.
func NewBookingService(users repository.UserRepository, bookings repository.BookingRepository, logger *zap.Logger) *BookingService {
	return &BookingService{users: users, bookings: bookings, logger: logger}
}

// Validate confirms the booking exists and belongs to the user.
func (s *BookingService) Validate(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found", nil)
		}
		return nil, apperrors.MapError(err)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Booking not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if booking.OwnerUserID != userID {
		return nil, apperrors.NewForbidden("User is not authorized to access this booking")
	}
	return booking, nil
}
