package repository

import (
	"context"
	"errors"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoBookingRepository stores bookings in the "bookings" collection.
type MongoBookingRepository struct {
	col *mongo.Collection
}

func NewMongoBookingRepository(col *mongo.Collection) *MongoBookingRepository {
	return &MongoBookingRepository{col: col}
}

func (r *MongoBookingRepository) Get(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNotFound
	}

	var b models.Booking
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *MongoBookingRepository) Insert(ctx context.Context, b *models.Booking) (string, error) {
	if b.ID.IsZero() {
		b.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, b); err != nil {
		return "", err
	}
	return b.ID.Hex(), nil
}

func (r *MongoBookingRepository) Put(ctx context.Context, b *models.Booking) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
