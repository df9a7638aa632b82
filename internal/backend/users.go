package backend

import (
	"context"
	"net/http"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

type roleResponse struct {
	Role string `json:"role"`
}

// Role fetches the caller's own role. Requires a token in ctx.
func (c *Client) Role(ctx context.Context) (domain.Role, error) {
	var resp roleResponse
	if err := c.do(ctx, http.MethodGet, "/user/role", nil, nil, &resp); err != nil {
		return domain.RoleNone, err
	}
	return domain.ParseRole(resp.Role), nil
}

func (c *Client) GetUser(ctx context.Context, email string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/user/"+escape(email), nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type saveUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// SaveUser upserts the signed-in identity into the API's user collection.
func (c *Client) SaveUser(ctx context.Context, id domain.Identity) error {
	return c.do(ctx, http.MethodPost, "/user", nil, saveUserRequest{Name: id.DisplayName, Email: id.Email, Image: id.PhotoURL}, nil)
}
