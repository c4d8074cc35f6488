package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleBasic = "basic"
)

// Role is the embedded role reference stored on a user.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User models an account able to authenticate against the API.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Validated      bool      `json:"validated"`
	ChangePassword bool      `json:"change_password"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Identity returns the snapshot carried by access and refresh tokens.
func (u *User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Email,
		Email:  u.Email,
		Role:   u.Role.Name,
	}
}

// Identity is the resolved subject of a token. Name is the login name.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}
