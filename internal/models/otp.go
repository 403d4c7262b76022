package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP is a one-time code issued to an email address. Only the bcrypt hash
// of the code is stored.
type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	CodeHash  string             `bson:"code_hash" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	IsUsed    bool               `bson:"is_used" json:"is_used"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UsedAt    *time.Time         `bson:"used_at,omitempty" json:"used_at,omitempty"`
}

// IsValidAt reports whether the code can still be redeemed at now.
func (o *OTP) IsValidAt(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}

type OTPRequest struct {
	Email string `json:"email"`
}

type OTPVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
