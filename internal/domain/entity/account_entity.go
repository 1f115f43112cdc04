package entity

import (
	"time"
)

// Role is the closed set of authorization roles an account can hold.
type Role string

const (
	RoleAdmin Role = "admin" // elevated
	RoleUser  Role = "user"  // standard
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Status is the closed set of account lifecycle states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Account is the aggregate root for the user-management domain.
// PasswordHash holds a bcrypt hash and never leaves the service boundary.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	ProfilePhoto string // data URI or external URL, may be empty
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ApplyDefaults fills role and status when they were not provided.
func (a *Account) ApplyDefaults() {
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
}

// AccountPatch lists the optional fields of a partial update. Nil means unchanged.
type AccountPatch struct {
	Name         *string
	Email        *string
	Role         *Role
	Status       *Status
	ProfilePhoto *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Status == nil && p.ProfilePhoto == nil
}

// Apply copies the set fields of p onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.ProfilePhoto != nil {
		a.ProfilePhoto = *p.ProfilePhoto
	}
}
