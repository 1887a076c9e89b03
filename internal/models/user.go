package models

import "time"

// User represents a user row as stored in the database.
type User struct {
	UserID       string    `db:"user_id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
