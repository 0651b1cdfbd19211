package model

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the persisted account record. It carries the password digest and
// must never be written to a response; use Public instead.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FirstName      string
	LastName       string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the API view of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionClaims are the identity facts carried by a session token.
type SessionClaims struct {
	Subject   string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}
