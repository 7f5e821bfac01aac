package repository

import (
	"context"
	"errors"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoJobRepository stores active jobs in the "active_jobs" collection.
type MongoJobRepository struct {
	col *mongo.Collection
}

func NewMongoJobRepository(col *mongo.Collection) *MongoJobRepository {
	return &MongoJobRepository{col: col}
}

func (r *MongoJobRepository) Get(ctx context.Context, id string) (*models.ActiveJob, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNotFound
	}

	var j models.ActiveJob
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *MongoJobRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.ActiveJob, error) {
	var j models.ActiveJob
	if err := r.col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *MongoJobRepository) Insert(ctx context.Context, j *models.ActiveJob) (string, error) {
	if j.ID.IsZero() {
		j.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, j); err != nil {
		return "", err
	}
	return j.ID.Hex(), nil
}

func (r *MongoJobRepository) Put(ctx context.Context, j *models.ActiveJob) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": j.ID}, j)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
