package domain

import "time"

// User is a mock account. PasswordHash is only kept for mock authentication.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Wilaya       string    `json:"wilaya"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	Verified     bool      `json:"verified"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy without credential fields.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// PublicUsers strips credentials from every user in list.
func PublicUsers(list []User) []User {
	out := make([]User, len(list))
	for i, u := range list {
		out[i] = u.Public()
	}
	return out
}
