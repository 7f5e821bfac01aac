package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type BookingStatus string

const (
	BookingStatusQuoteRequested BookingStatus = "Quote Requested"
	BookingStatusAccepted       BookingStatus = "Accepted"
	BookingStatusRejected       BookingStatus = "Rejected"
	BookingStatusCompleted      BookingStatus = "Completed"
)

type UrgencyTier string

const (
	UrgencyStandard  UrgencyTier = "standard"
	UrgencyUrgent    UrgencyTier = "urgent"
	UrgencyEmergency UrgencyTier = "emergency"
)

// Booking is a quote request from a customer to a tradesman. The negotiation
// state is the status plus the quote flags: while status is "Quote Requested",
// at most one of has_custom_quote / has_customer_counter may be true.
type Booking struct {
	ID bson.ObjectID `bson:"_id,omitempty" json:"id"`

	CustomerID    string `bson:"customer_id" json:"customer_id"`
	CustomerName  string `bson:"customer_name" json:"customer_name"`
	CustomerEmail string `bson:"customer_email" json:"customer_email"`
	CustomerPhoto string `bson:"customer_photo,omitempty" json:"customer_photo,omitempty"`

	TradesmanID    string `bson:"tradesman_id" json:"tradesman_id"`
	TradesmanName  string `bson:"tradesman_name" json:"tradesman_name"`
	TradesmanEmail string `bson:"tradesman_email" json:"tradesman_email"`
	TradesmanPhoto string `bson:"tradesman_photo,omitempty" json:"tradesman_photo,omitempty"`

	JobTitle       string      `bson:"job_title" json:"job_title"`
	JobDescription string      `bson:"job_description" json:"job_description"`
	Urgency        UrgencyTier `bson:"urgency" json:"urgency"`
	RequestedDates []string    `bson:"requested_dates,omitempty" json:"requested_dates,omitempty"`
	JobPhotos      []string    `bson:"job_photos,omitempty" json:"job_photos,omitempty"`

	// Tradesman's advertised rate at request time, informational only.
	HourlyRate float64 `bson:"hourly_rate" json:"hourly_rate"`

	Status BookingStatus `bson:"status" json:"status"`

	CustomQuote          string `bson:"custom_quote,omitempty" json:"custom_quote,omitempty"`
	HasCustomQuote       bool   `bson:"has_custom_quote" json:"has_custom_quote"`
	CustomerCounterQuote string `bson:"customer_counter_quote,omitempty" json:"customer_counter_quote,omitempty"`
	HasCustomerCounter   bool   `bson:"has_customer_counter" json:"has_customer_counter"`
	CustomerReasoning    string `bson:"customer_reasoning,omitempty" json:"customer_reasoning,omitempty"`

	// Set once the booking has been promoted to an active job.
	ActiveJobID string `bson:"active_job_id,omitempty" json:"active_job_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
