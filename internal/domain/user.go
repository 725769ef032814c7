package domain

import "time"

// Role is the single canonical role type; every authorization check compares against it.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Hash         string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	BusinessName *string   `db:"business_name" json:"business_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (u *User) Is(r Role) bool { return u != nil && u.Role == r }

type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}
