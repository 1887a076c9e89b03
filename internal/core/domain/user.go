package domain

// Role describes what a user is allowed to do.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents an account holder who owns cards.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	AuditFields
}

// IsAdmin reports whether the user carries the administrative role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
