package domain

// Session is the signed-in user.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Token  string `json:"token"`
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.UserID != ""
}

// Credentials identify a user by email or phone number.
type Credentials struct {
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,phone"`
	Password    string `json:"password" validate:"required"`
}

// Registration creates a new account.
type Registration struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,phone"`
	Password    string `json:"password" validate:"required,min=6"`
}
