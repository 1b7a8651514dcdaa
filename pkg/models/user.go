package models

import "time"

// User is a participant identified by their chat-platform user id.
type User struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username"`
	FullName  string    `json:"fullName"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
