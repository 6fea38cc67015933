package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account type of a user. It never changes after registration.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the marketplace
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone" json:"phone"`
	Role       Role               `bson:"role" json:"role"`
	Password   string             `bson:"password" json:"-"`
	Aadhar     string             `bson:"aadhar,omitempty" json:"aadhar,omitempty"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"` // admin-verified status for farmers
	Experience string             `bson:"experience" json:"experience"`
	Awards     string             `bson:"awards" json:"awards"`
	TechUsed   string             `bson:"techUsed" json:"techUsed"`
	Cart       []CartItem         `bson:"cart" json:"-"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Profile holds the user-editable fields of an account.
// The farmer-only fields are ignored for other roles.
type Profile struct {
	Username   string
	Name       string
	Email      string
	Phone      string
	Experience string
	Awards     string
	TechUsed   string
}

// UserSummary is the public face of a user embedded in populated views
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
}

// Summary projects u to its public summary.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}

// FarmerPublic is the part of a farmer's account anyone may see.
type FarmerPublic struct {
	ID         primitive.ObjectID `json:"_id"`
	Username   string             `json:"username"`
	Name       string             `json:"name"`
	Experience string             `json:"experience"`
	Awards     string             `json:"awards"`
	TechUsed   string             `json:"techUsed"`
	IsVerified bool               `json:"isVerified"`
}

// Identity is the caller resolved by the auth gate.
type Identity struct {
	ID       primitive.ObjectID
	Username string
	Role     Role
}

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Is reports whether the caller is the user with the given id.
func (i Identity) Is(id primitive.ObjectID) bool { return !i.ID.IsZero() && i.ID == id }
