package backend

import (
	"context"
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

type credentialsRequest struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Password    string `json:"password"`
}

type authResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (r authResponse) session(email string) *domain.Session {
	return &domain.Session{UserID: r.ID, Name: r.Name, Email: email, Token: r.Token}
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	var resp authResponse
	err := c.call(ctx, http.MethodPost, "/auth/login", credentialsRequest{
		Email:       creds.Email,
		PhoneNumber: creds.PhoneNumber,
		Password:    creds.Password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(creds.Email), nil
}

// Register creates an account and returns its session.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	var resp authResponse
	err := c.call(ctx, http.MethodPost, "/auth/register", credentialsRequest{
		Name:        reg.Name,
		Email:       reg.Email,
		PhoneNumber: reg.PhoneNumber,
		Password:    reg.Password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(reg.Email), nil
}
