package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Customer profile. Shares its _id with the credentials document in "users".
type Customer struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Email     string        `bson:"email" json:"email"`
	Phone     string        `bson:"phone,omitempty" json:"phone,omitempty"`
	Photo     string        `bson:"photo,omitempty" json:"photo,omitempty"`
	Postcode  string        `bson:"postcode,omitempty" json:"postcode,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// Tradesman profile. Reviews are embedded; average_rating is the plain
// arithmetic mean of all review ratings.
type Tradesman struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Email       string        `bson:"email" json:"email"`
	Phone       string        `bson:"phone,omitempty" json:"phone,omitempty"`
	Photo       string        `bson:"photo,omitempty" json:"photo,omitempty"`
	Trade       string        `bson:"trade" json:"trade"`
	Slug        string        `bson:"slug" json:"slug"`
	Bio         string        `bson:"bio,omitempty" json:"bio,omitempty"`
	AreaCovered string        `bson:"area_covered,omitempty" json:"area_covered,omitempty"`
	HourlyRate  float64       `bson:"hourly_rate" json:"hourly_rate"`

	Reviews            []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`
	AverageRating      float64  `bson:"average_rating" json:"average_rating"`
	CompletedJobsCount int      `bson:"completed_jobs_count" json:"completed_jobs_count"`

	// Bumped when the tradesman cancels an active job. No fee is charged,
	// the count feeds moderation.
	CancellationWarnings int `bson:"cancellation_warnings,omitempty" json:"cancellation_warnings,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
