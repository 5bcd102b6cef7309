package domain

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

const MinPasswordLength = 6

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	Address      Address   `json:"address"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AvatarFor renders the generated initials avatar for a name.
func AvatarFor(firstName, lastName string) string {
	name := url.QueryEscape(firstName) + "+" + url.QueryEscape(lastName)
	return "https://ui-avatars.com/api/?name=" + name + "&background=6366f1&color=fff"
}

// NormalizeEmail trims and lowercases an address; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

type UserFilter struct {
	Search string
	Page   Page
}
