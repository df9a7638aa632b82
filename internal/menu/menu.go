// Package menu builds the dashboard sidebar for a role.
package menu

import (
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

type Item struct {
	Label  string
	Href   string
	Active bool
	// Post items submit a form instead of following a link.
	Post bool
}

var (
	userItems = []Item{
		{Label: "My Booked Tickets", Href: "/dashboard/my-bookings"},
		{Label: "Transaction History", Href: "/dashboard/transactions"},
	}
	vendorItems = []Item{
		{Label: "Add Ticket", Href: "/dashboard/vendor/add-ticket"},
		{Label: "My Added Tickets", Href: "/dashboard/vendor/my-tickets"},
		{Label: "Requested Bookings", Href: "/dashboard/vendor/requests"},
		{Label: "Revenue Overview", Href: "/dashboard/vendor/revenue"},
	}
	adminItems = []Item{
		{Label: "Manage Tickets", Href: "/dashboard/admin/manage-tickets"},
		{Label: "Manage Users", Href: "/dashboard/admin/manage-users"},
		{Label: "Advertise Tickets", Href: "/dashboard/admin/advertise"},
	}
)

// For returns the sidebar for a role lookup marking the item at path as
// active. Until the role is resolved only Profile and Logout are shown.
func For(role query.Result[domain.Role], path string) []Item {
	var variant []Item
	if role.Status == query.Ready {
		switch role.Value {
		case domain.RoleUser:
			variant = userItems
		case domain.RoleVendor:
			variant = vendorItems
		case domain.RoleAdmin:
			variant = adminItems
		}
	}

	items := make([]Item, 0, len(variant)+2)
	items = append(items, Item{Label: "Profile", Href: "/dashboard"})
	items = append(items, variant...)
	items = append(items, Item{Label: "Logout", Href: "/logout", Post: true})
	for i := range items {
		items[i].Active = items[i].Href == path
	}
	return items
}
