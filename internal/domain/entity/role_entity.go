package entity

// Role names. Comparison is always case-insensitive; the stored spelling is
// the one first assigned.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)
