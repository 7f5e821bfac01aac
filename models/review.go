package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Review lives on the tradesman's profile, one per completed job at most,
// enforced through ActiveJob.ReviewedByCustomer rather than a store index.
type Review struct {
	ID           bson.ObjectID `bson:"id" json:"id"`
	JobID        string        `bson:"job_id" json:"job_id"`
	CustomerName string        `bson:"customer_name" json:"customer_name"`
	Rating       int           `bson:"rating" json:"rating"`
	Comment      string        `bson:"comment" json:"comment"`
	Date         time.Time     `bson:"date" json:"date"`
}
