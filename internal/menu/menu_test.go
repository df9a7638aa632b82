package menu

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestFor(t *testing.T) {
	assert.Equal(t, []string{"Profile", "My Booked Tickets", "Transaction History", "Logout"},
		labels(For(query.Done(domain.RoleUser), "")))
	assert.Equal(t, []string{"Profile", "Add Ticket", "My Added Tickets", "Requested Bookings", "Revenue Overview", "Logout"},
		labels(For(query.Done(domain.RoleVendor), "")))
	assert.Equal(t, []string{"Profile", "Manage Tickets", "Manage Users", "Advertise Tickets", "Logout"},
		labels(For(query.Done(domain.RoleAdmin), "")))
}

func TestFor_Unresolved(t *testing.T) {
	base := []string{"Profile", "Logout"}
	assert.Equal(t, base, labels(For(query.Pending[domain.Role](), "")))
	assert.Equal(t, base, labels(For(query.Disabled[domain.Role](), "")))
	assert.Equal(t, base, labels(For(query.Fail[domain.Role](errors.New("x")), "")))
	assert.Equal(t, base, labels(For(query.Done(domain.RoleNone), "")))
}

func TestFor_Active(t *testing.T) {
	items := For(query.Done(domain.RoleAdmin), "/dashboard/admin/advertise")
	assert.True(t, items[3].Active)
	assert.False(t, items[0].Active)

	items = For(query.Done(domain.RoleAdmin), "/dashboard/admin/advertise")
	items[0].Label = "changed"
	assert.Equal(t, "Manage Tickets", adminItems[0].Label)
}
