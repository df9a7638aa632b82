package forms

import (
	"strconv"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
)

type BookingForm struct {
	Quantity string `form:"quantity" validate:"required,number"`
}

// Validate checks the requested quantity against the last fetched ticket.
// The server remains the authority; the snapshot can be stale.
func (f *BookingForm) Validate(snapshot domain.Ticket) (int, FieldErrors) {
	errs := check(f, map[string]string{"quantity": "Quantity"})
	if !errs.Empty() {
		return 0, errs
	}
	qty, err := strconv.Atoi(f.Quantity)
	switch {
	case err != nil:
		errs.Add("quantity", "Quantity must be a number")
	case qty < 1:
		errs.Add("quantity", "Quantity must be at least 1")
	case qty > snapshot.Quantity:
		errs.Add("quantity", "Booking quantity can't exceed available tickets")
	}
	return qty, errs
}

func (f *BookingForm) Input(ticketID string, qty int, user domain.Identity) backend.BookingInput {
	return backend.BookingInput{
		TicketID:  ticketID,
		Quantity:  qty,
		Status:    domain.BookingStatusPending,
		UserEmail: user.Email,
		UserName:  user.DisplayName,
	}
}
