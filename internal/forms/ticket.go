package forms

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
)

// DepartureLayout is the value format of a datetime-local input.
const DepartureLayout = "2006-01-02T15:04"

// FraudMessage replaces the add-ticket form for vendors marked as fraud.
const FraudMessage = "You have been marked as a fraud vendor. You cannot add new tickets."

type TicketForm struct {
	Title         string   `form:"title" validate:"required"`
	From          string   `form:"from" validate:"required"`
	To            string   `form:"to" validate:"required,nefield=From"`
	TransportType string   `form:"transportType" validate:"required,oneof=Bus Train Plane Launch"`
	Price         string   `form:"price" validate:"required,numeric"`
	Quantity      string   `form:"quantity" validate:"required,number"`
	Departure     string   `form:"departure" validate:"required,datetime=2006-01-02T15:04"`
	Perks         []string `form:"perks" validate:"dive,oneof=AC Breakfast Wi-Fi Snacks"`
	// Image holds the existing image URL when editing.
	Image string `form:"image"`
}

var ticketLabels = map[string]string{
	"title":         "Title",
	"from":          "From",
	"to":            "To",
	"transportType": "Transport type",
	"price":         "Price",
	"quantity":      "Quantity",
	"departure":     "Departure",
	"perks":         "Perk",
}

// Validate trims text fields and checks the form.
func (f *TicketForm) Validate() FieldErrors {
	f.Title = strings.TrimSpace(f.Title)
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)

	errs := check(f, ticketLabels)
	if _, ok := errs["price"]; !ok {
		if p, err := decimal.NewFromString(f.Price); err == nil && !p.IsPositive() {
			errs.Add("price", "Price must be greater than 0")
		}
	}
	if _, ok := errs["quantity"]; !ok {
		if q, err := strconv.Atoi(f.Quantity); err == nil && q < 1 {
			errs.Add("quantity", "Quantity must be at least 1")
		}
	}
	return errs
}

// Input converts a validated form into the API payload.
func (f *TicketForm) Input(imageURL string, vendor domain.Identity, loc *time.Location) (backend.TicketInput, error) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return backend.TicketInput{}, err
	}
	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		return backend.TicketInput{}, err
	}
	dep, err := time.ParseInLocation(DepartureLayout, f.Departure, loc)
	if err != nil {
		return backend.TicketInput{}, err
	}
	if imageURL == "" {
		imageURL = f.Image
	}
	perks := f.Perks
	if perks == nil {
		perks = []string{}
	}
	return backend.TicketInput{
		Title:         f.Title,
		From:          f.From,
		To:            f.To,
		TransportType: f.TransportType,
		Price:         price,
		Quantity:      qty,
		Departure:     dep,
		Perks:         perks,
		Image:         imageURL,
		VendorName:    vendor.DisplayName,
		VendorEmail:   vendor.Email,
	}, nil
}

// TicketFormFrom prefills the edit form.
func TicketFormFrom(t domain.Ticket, loc *time.Location) TicketForm {
	return TicketForm{
		Title:         t.Title,
		From:          t.From,
		To:            t.To,
		TransportType: t.TransportType,
		Price:         t.Price.String(),
		Quantity:      strconv.Itoa(t.Quantity),
		Departure:     t.Departure.In(loc).Format(DepartureLayout),
		Perks:         t.Perks,
		Image:         t.Image,
	}
}

// HasPerk is used by templates to check perk boxes.
func (f TicketForm) HasPerk(p string) bool {
	for _, v := range f.Perks {
		if v == p {
			return true
		}
	}
	return false
}

// VendorGate reports whether the vendor may open the add-ticket form.
func VendorGate(profile *domain.UserProfile) (allowed bool, message string) {
	if profile != nil && profile.IsFraud {
		return false, FraudMessage
	}
	return true, ""
}
