package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserType string

const (
	UserTypeCustomer  UserType = "customer"
	UserTypeTradesman UserType = "tradesman"
	UserTypeSystem    UserType = "system"
)

// BookingComment is an append-only audit record on a booking or active job
// thread. System comments are written automatically on every state transition
// and are never edited or deleted.
type BookingComment struct {
	ID bson.ObjectID `bson:"_id,omitempty" json:"id"`

	BookingID   string `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	ActiveJobID string `bson:"active_job_id,omitempty" json:"active_job_id,omitempty"`

	UserID   string   `bson:"user_id,omitempty" json:"user_id,omitempty"`
	UserName string   `bson:"user_name,omitempty" json:"user_name,omitempty"`
	UserType UserType `bson:"user_type" json:"user_type"`

	Comment   string    `bson:"comment" json:"comment"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
