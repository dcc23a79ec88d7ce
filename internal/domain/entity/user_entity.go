package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/pkg/validation"
)

// User is the aggregate root for the identity domain.
// Methods use value receivers and return the changed copy; callers persist
// the returned value. PasswordHash holds a self-describing KDF string.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	IsActive           bool
	Roles              []string
	RefreshToken       string
	RefreshTokenExpiry *time.Time
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Version is the optimistic concurrency token owned by the store.
	Version int64
}

// NewUserInput carries the fields validated on registration.
type NewUserInput struct {
	Email        string `json:"email" validate:"required,max=256,contains=@,contains=."`
	PasswordHash string `json:"passwordHash" validate:"required"`
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
}

var userMessages = map[string]string{
	"email.required":        "Email cannot be empty.",
	"email.contains":        "Email format is invalid.",
	"email.max":             "Email cannot exceed 256 characters.",
	"passwordHash.required": "Password hash cannot be empty.",
	"firstName.required":    "firstName cannot be empty.",
	"firstName.max":         "firstName cannot exceed 100 characters.",
	"lastName.required":     "lastName cannot be empty.",
	"lastName.max":          "lastName cannot exceed 100 characters.",
}

// NormalizeEmail lower-cases and trims an email so it can serve as a unique key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser validates in and builds an active user holding the default role.
func NewUser(in NewUserInput, now time.Time) (User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PasswordHash = strings.TrimSpace(in.PasswordHash)

	if msgs := validation.Messages(in, userMessages); len(msgs) > 0 {
		return User{}, apperror.Validation(msgs...)
	}

	return User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		Roles:        []string{RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName is the display name embedded in access tokens.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// WithRefreshToken replaces the single live refresh token pair.
func (u User) WithRefreshToken(token string, expiry time.Time) User {
	u.RefreshToken = token
	u.RefreshTokenExpiry = &expiry
	return u
}

// WithoutRefreshToken revokes the live session.
func (u User) WithoutRefreshToken() User {
	u.RefreshToken = ""
	u.RefreshTokenExpiry = nil
	return u
}

// RecordLogin stamps the last successful login.
func (u User) RecordLogin(now time.Time) User {
	u.LastLoginAt = &now
	return u
}

// HasValidRefreshToken reports whether token may be exchanged for a new pair.
func (u User) HasValidRefreshToken(token string, now time.Time) bool {
	return u.IsActive &&
		u.RefreshToken != "" &&
		u.RefreshToken == token &&
		u.RefreshTokenExpiry != nil &&
		now.Before(*u.RefreshTokenExpiry)
}

// Deactivate disables the account and revokes its refresh token.
func (u User) Deactivate() User {
	u.IsActive = false
	return u.WithoutRefreshToken()
}

func (u User) Activate() User {
	u.IsActive = true
	return u
}

// HasRole compares case-insensitively.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// AddRole appends role unless an equal (case-insensitive) role exists.
func (u User) AddRole(role string) (User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return u, apperror.Validation("Role cannot be empty.")
	}
	if u.HasRole(role) {
		return u, nil
	}
	roles := make([]string, 0, len(u.Roles)+1)
	roles = append(roles, u.Roles...)
	u.Roles = append(roles, role)
	return u, nil
}

// RemoveRole drops every case-insensitive match of role.
func (u User) RemoveRole(role string) User {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if !strings.EqualFold(r, role) {
			roles = append(roles, r)
		}
	}
	u.Roles = roles
	return u
}
