package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	cases := map[string]string{
		"/all-tickets":                     "/all-tickets",
		"/tickets":                         "/tickets",
		"/tickets/abc123":                  "/tickets/:id",
		"/tickets/vendor/v@x.com":          "/tickets/vendor/:id",
		"/user/role":                       "/user/role",
		"/user/a@b.com":                    "/user/:id",
		"/bookings/accept/42":              "/bookings/accept/:id",
		"/vendor/revenue-overview/v@x.com": "/vendor/revenue-overview/:id",
		"/admin/tickets":                   "/admin/tickets",
		"/admin/tickets/approve/9":         "/admin/tickets/approve/:id",
		"/admin/users/make-admin/9":        "/admin/users/make-admin/:id",
		"/admin/advertise-tickets":         "/admin/advertise-tickets",
	}
	for in, want := range cases {
		assert.Equal(t, want, Route(in), in)
	}
}
