package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/dakshgarg/flightdesk/internal/kafka"
	qrcode "github.com/skip2/go-qrcode"
)

// Sender delivers itinerary notifications for booking events. Delivery is a
// log line for now; the rendered message includes a boarding QR that encodes
// the booking reference.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.CustomerEmail == "" {
		log.Printf("skip %s notification for %s: no customer email", event.Type, event.BookingRef)
		return nil
	}

	body := fmt.Sprintf("booking %s: %s, flight %d, %d seat(s), amount %d",
		event.BookingRef, event.Type, event.FlightID, event.Seats, event.AmountCents)

	if event.Type == "booking_confirmed" {
		png, err := qrcode.Encode(event.BookingRef, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("render boarding qr for %s: %w", event.BookingRef, err)
		}
		body += fmt.Sprintf(", qr attachment %d bytes (base64 %d)", len(png), base64.StdEncoding.EncodedLen(len(png)))
	}

	log.Printf("send email to %s: %s", event.CustomerEmail, body)
	return nil
}
