package service

import (
	"fmt"
	"log"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"
	"valetbay/internal/repository"
)

const (
	paymentStatusUnpaid   = "unpaid"
	paymentStatusPending  = "pending"
	paymentStatusPaid     = "paid"
	paymentStatusFailed   = "failed"
	paymentStatusRefunded = "refunded"
)

// PaymentService is the payment collaborator. It charges a booking's computed
// price through Stripe checkout and records the result in payment_status; it
// never drives the booking status state machine.
type PaymentService struct {
	Bookings repository.BookingStore
	Stripe   *StripeService
}

func NewPaymentService(bookings repository.BookingStore, stripeService *StripeService) *PaymentService {
	return &PaymentService{Bookings: bookings, Stripe: stripeService}
}

// CreateCheckout starts a checkout session for the booking and returns its
// URL. Only active, unpaid bookings are chargeable.
func (s *PaymentService) CreateCheckout(bookingID int, requesterID string, role db.Role) (string, error) {
	booking, err := s.Bookings.GetByID(bookingID)
	if err != nil {
		return "", err
	}
	if booking == nil {
		return "", apperrors.NotFound(fmt.Sprintf("booking %d not found", bookingID))
	}
	if role != db.RoleAdmin && booking.RequesterID != requesterID {
		return "", apperrors.Forbidden("only the booking owner may pay for it")
	}
	if !booking.Status.IsActive() {
		return "", apperrors.InvalidState(fmt.Sprintf("booking in status %s cannot be paid", booking.Status))
	}
	if booking.PaymentStatus == paymentStatusPaid {
		return "", apperrors.InvalidState("booking is already paid")
	}

	description := fmt.Sprintf("ValetBay booking #%d", booking.ID)
	url, sessionID, err := s.Stripe.CreateCheckoutSession(int64(booking.PriceCents), "eur", description, booking.GuestEmail)
	if err != nil {
		return "", err
	}
	if err := s.Bookings.SetStripeSession(booking.ID, sessionID, paymentStatusPending); err != nil {
		return "", err
	}
	return url, nil
}

// HandleCheckoutResult is called from the Stripe webhook once a session
// completes or expires.
func (s *PaymentService) HandleCheckoutResult(sessionID string, paid bool) (*db.Booking, error) {
	status := paymentStatusFailed
	if paid {
		status = paymentStatusPaid
	}
	booking, err := s.Bookings.UpdatePaymentStatusBySession(sessionID, status)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("no booking for stripe session %s", sessionID))
	}
	return booking, nil
}

// RefundBooking refunds a paid booking after its cancellation commits.
// Failures are logged rather than surfaced since the cancellation itself
// already succeeded.
func (s *PaymentService) RefundBooking(booking *db.Booking) {
	if booking.PaymentStatus != paymentStatusPaid || booking.StripeSessionID == "" {
		return
	}
	if err := s.Stripe.RefundPaymentBySessionID(booking.StripeSessionID); err != nil {
		log.Printf("ALERT: Refund failed for booking %d (session %s): %v", booking.ID, booking.StripeSessionID, err)
		return
	}
	if _, err := s.Bookings.UpdatePaymentStatusBySession(booking.StripeSessionID, paymentStatusRefunded); err != nil {
		log.Printf("Refund succeeded but payment status update failed for booking %d: %v", booking.ID, err)
	}
}
