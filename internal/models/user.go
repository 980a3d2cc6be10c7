package models

import (
	"encoding/json"
	"time"
)

// User is the account profile returned by the user endpoints
type User struct {
	ID          string `json:"user_id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
}

// UnmarshalJSON accepts "user_id", "userId" and "_id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		UserID  string `json:"userId"`
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.UserID
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Session is the authenticated identity derived from a stored token
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginRequest is the body of POST /user/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /user/register
type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	IsAdmin     bool   `json:"isAdmin"`
}

// AuthResponse is returned by the login and register endpoints
type AuthResponse struct {
	Error string `json:"error,omitempty"`
	Data  struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	} `json:"data"`
}
