package repository

import (
	"context"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoCommentRepository appends audit comments to "booking_comments".
// Comments are append-only; there is no update or delete.
type MongoCommentRepository struct {
	col *mongo.Collection
}

func NewMongoCommentRepository(col *mongo.Collection) *MongoCommentRepository {
	return &MongoCommentRepository{col: col}
}

func (r *MongoCommentRepository) Insert(ctx context.Context, c *models.BookingComment) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}
