package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"valetbay/internal/db"
)

// SenderService implements BookingNotifier over SendGrid and Twilio. All
// delivery happens in goroutines; a failed send is logged and never surfaces
// to the request that triggered it.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) BookingCreated(booking *db.Booking, location *db.Location) {
	subject := fmt.Sprintf("Your ValetBay booking at %s is pending - #%d", location.Name, booking.ID)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour valet booking at %s is pending confirmation.\n\n"+
			"Booking Details:\n"+
			"Booking: #%d\n"+
			"Location: %s, %s\n"+
			"From: %s\n"+
			"Until: %s\n"+
			"Price: %s\n\n"+
			"Keep your reference %s to manage this booking.\n\n"+
			"Thank you for choosing ValetBay.",
		displayName(booking), location.Name,
		booking.ID, location.Name, location.Address,
		formatTime(booking.StartTime), formatTime(booking.EndTime),
		formatPrice(booking.PriceCents), booking.RequesterID,
	)
	s.deliver(booking, subject, body,
		fmt.Sprintf("ValetBay: booking #%d at %s is pending. Check-in %s.", booking.ID, location.Name, booking.StartTime.Format("02/01 15:04")))
}

func (s *SenderService) BookingStatusChanged(booking *db.Booking, location *db.Location) {
	status := strings.ToLower(strings.ReplaceAll(string(booking.Status), "_", " "))
	subject := fmt.Sprintf("Your ValetBay booking at %s is %s - #%d", location.Name, status, booking.ID)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour valet booking at %s is now %s.\n\n"+
			"Booking: #%d\n"+
			"From: %s\n"+
			"Until: %s\n\n"+
			"Thank you for choosing ValetBay.",
		displayName(booking), location.Name, status,
		booking.ID, formatTime(booking.StartTime), formatTime(booking.EndTime),
	)
	s.deliver(booking, subject, body,
		fmt.Sprintf("ValetBay: booking #%d is now %s. More details in your email.", booking.ID, status))
}

// BookingReminder is used by the cron job for bookings starting soon.
func (s *SenderService) BookingReminder(booking *db.Booking, location *db.Location) {
	subject := fmt.Sprintf("Reminder: your ValetBay booking at %s starts soon", location.Name)
	body := fmt.Sprintf(
		"Hello %s,\n\nA reminder that your valet booking #%d at %s starts at %s.\n\n"+
			"See you there.",
		displayName(booking), booking.ID, location.Name, formatTime(booking.StartTime),
	)
	s.deliver(booking, subject, body,
		fmt.Sprintf("ValetBay reminder: booking #%d starts at %s.", booking.ID, booking.StartTime.Format("02/01 15:04")))
}

func (s *SenderService) deliver(booking *db.Booking, subject, body, sms string) {
	if booking.GuestEmail != "" {
		go func(to, name, subject, body string, id int) {
			if err := SendEmailWithSendGrid(to, name, subject, body, ""); err != nil {
				log.Printf("ALERT (async): email for booking %d failed: %v", id, err)
			}
		}(booking.GuestEmail, displayName(booking), subject, body, booking.ID)
	}
	if booking.GuestPhone != "" {
		go func(to, message string, id int) {
			if err := SendSMS(to, message); err != nil {
				log.Printf("ALERT (async): SMS for booking %d failed: %v", id, err)
			}
		}(booking.GuestPhone, sms, booking.ID)
	}
}

func displayName(booking *db.Booking) string {
	if booking.GuestName != "" {
		return booking.GuestName
	}
	return "there"
}

func formatTime(t time.Time) string {
	return t.Format("02 Jan 2006 15:04 MST")
}

func formatPrice(cents int) string {
	return fmt.Sprintf("%d.%02d EUR", cents/100, cents%100)
}
