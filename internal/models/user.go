package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Username     string `bson:"username" json:"username"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"-"` // Never returned in JSON
	IsActive     bool   `bson:"is_active" json:"is_active"`
}

// Public returns the fields safe to include in API responses.
func (u User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID.Hex(),
		"username":   u.Username,
		"email":      u.Email,
		"created_at": u.CreatedAt,
		"is_active":  u.IsActive,
	}
}
