package models

import "errors"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleOrganizer UserRole = "organizer"
	UserRoleAdmin     UserRole = "admin"
)

// Actor is the authenticated caller of an operation. Accounts themselves are
// managed elsewhere; tickets and events only need who is acting and in what
// role.
type Actor struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// Validate checks the identity carried by a token
func (a *Actor) Validate() error {
	if a.ID == "" {
		return errors.New("actor id is required")
	}

	switch a.Role {
	case UserRoleUser, UserRoleOrganizer, UserRoleAdmin:
		return nil
	default:
		return errors.New("invalid user role")
	}
}

// IsAdmin returns true if the actor is an administrator
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == UserRoleAdmin
}

// HasRole reports whether the actor holds any of roles
func (a *Actor) HasRole(roles ...UserRole) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanManageEvent returns true for the event's organizer and for admins
func (a *Actor) CanManageEvent(event *Event) bool {
	if a == nil || event == nil {
		return false
	}
	return a.IsAdmin() || (a.ID != "" && a.ID == event.OrganizerID)
}

// ActorID returns a pointer to the actor's id, or nil for anonymous callers
func (a *Actor) ActorID() *string {
	if a == nil || a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}
