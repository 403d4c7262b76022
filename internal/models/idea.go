package models

import (
	"time"
)

type Idea struct {
	ID          int64     `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	Body        string    `json:"idea" bson:"idea"`
	Category    string    `json:"category" bson:"category"`
	SubmittedAt time.Time `json:"timestamp" bson:"timestamp"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// IdeaSubmission is the payload accepted by POST /ideas. Timestamp is an
// optional RFC 3339 string; when absent the server time is used.
type IdeaSubmission struct {
	Email             string `json:"email"`
	Idea              string `json:"idea"`
	Category          string `json:"category"`
	Timestamp         string `json:"timestamp,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`
}
