package models

// Member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group represents a named collection of members.
// Expenses and settlements reference a group through GroupID.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string

	// Members is the list of users in the group, in join order.
	Members []GroupMember

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupMember is one user's membership in a group.
type GroupMember struct {
	UserID   string
	Role     string
	JoinedAt int64
}

// HasMember reports whether userID is listed in the group's members.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user IDs of all members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}
