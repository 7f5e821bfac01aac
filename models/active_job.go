package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type JobStatus string

const (
	JobStatusAccepted        JobStatus = "accepted"
	JobStatusInProgress      JobStatus = "in_progress"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusCancelled       JobStatus = "cancelled"
)

// ActiveJob is a booking that has been accepted (or paid for) and entered
// execution. Party names, emails and photos are snapshotted from the profiles
// at creation time and never refreshed afterwards.
type ActiveJob struct {
	ID bson.ObjectID `bson:"_id,omitempty" json:"id"`

	BookingID string `bson:"booking_id" json:"booking_id"`

	CustomerID    string `bson:"customer_id" json:"customer_id"`
	CustomerName  string `bson:"customer_name" json:"customer_name"`
	CustomerEmail string `bson:"customer_email" json:"customer_email"`
	CustomerPhoto string `bson:"customer_photo,omitempty" json:"customer_photo,omitempty"`

	TradesmanID    string `bson:"tradesman_id" json:"tradesman_id"`
	TradesmanName  string `bson:"tradesman_name" json:"tradesman_name"`
	TradesmanEmail string `bson:"tradesman_email" json:"tradesman_email"`
	TradesmanPhoto string `bson:"tradesman_photo,omitempty" json:"tradesman_photo,omitempty"`

	JobTitle       string `bson:"job_title" json:"job_title"`
	JobDescription string `bson:"job_description" json:"job_description"`

	Status JobStatus `bson:"status" json:"status"`

	AgreedPrice        float64    `bson:"agreed_price" json:"agreed_price"`
	AgreedPriceDisplay string     `bson:"agreed_price_display" json:"agreed_price_display"`
	HourlyRate         float64    `bson:"hourly_rate" json:"hourly_rate"`
	AgreedDate         *time.Time `bson:"agreed_date,omitempty" json:"agreed_date,omitempty"`
	AgreedTimeSlot     string     `bson:"agreed_time_slot,omitempty" json:"agreed_time_slot,omitempty"`

	JobPhotos        []string `bson:"job_photos,omitempty" json:"job_photos,omitempty"`
	CompletionPhotos []string `bson:"completion_photos,omitempty" json:"completion_photos,omitempty"`

	// Populated only when status is "cancelled".
	CancelledAt            *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelledBy            string     `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`
	CancellationFeeApplied float64    `bson:"cancellation_fee_applied,omitempty" json:"cancellation_fee_applied,omitempty"`
	CancellationPercentage int        `bson:"cancellation_percentage,omitempty" json:"cancellation_percentage,omitempty"`
	RefundAmount           float64    `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`

	ReviewedByCustomer bool `bson:"reviewed_by_customer" json:"reviewed_by_customer"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
