package models

// RoleAdmin marks users allowed to moderate any comment.
const RoleAdmin = "admin"

// User mirrors the identity provider's view of the current requester. It is
// decoded from the bearer token on each request and treated as read-only; the
// engagement service never creates, stores, or mutates user records.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Role  string `json:"role"`
}

// IsAnonymous reports whether no identity is attached to the request.
func (u User) IsAnonymous() bool {
	return u.ID == ""
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
