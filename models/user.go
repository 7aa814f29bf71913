package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleStaff || r == RoleAdmin
}

// IsStaff reports whether the role works requests (staff or admin).
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID        int64     `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password,omitempty" json:"-"`
	FullName  string    `bson:"fullName" json:"full_name"`
	Phone     *string   `bson:"phone,omitempty" json:"phone"`
	Role      Role      `bson:"role" json:"role"`
	IsActive  bool      `bson:"isActive" json:"is_active"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// MaxPasswordBytes is the most bcrypt will hash.
const MaxPasswordBytes = 72

func (u *User) HashPassword() error {
	if len(u.Password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidArgument, MaxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// Principal returns the identity the policy layer reasons about.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Active: u.IsActive}
}

// Principal is the authenticated caller of a single request.
type Principal struct {
	ID     int64
	Role   Role
	Active bool
}

// Registration is the input of a self-service sign-up.
type Registration struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	FullName string  `json:"full_name" binding:"required,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,max=30"`
}
