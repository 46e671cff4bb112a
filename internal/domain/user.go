package domain

import "time"

// UserProfile is what the server remembers about a signed-in user.
type UserProfile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}
