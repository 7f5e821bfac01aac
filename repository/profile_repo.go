package repository

import (
	"context"
	"errors"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoProfileRepository reads and writes the "customers" and "tradesmen"
// profile collections.
type MongoProfileRepository struct {
	customers *mongo.Collection
	tradesmen *mongo.Collection
}

func NewMongoProfileRepository(customers, tradesmen *mongo.Collection) *MongoProfileRepository {
	return &MongoProfileRepository{customers: customers, tradesmen: tradesmen}
}

func (r *MongoProfileRepository) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNotFound
	}

	var c models.Customer
	if err := r.customers.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoProfileRepository) GetTradesman(ctx context.Context, id string) (*models.Tradesman, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNotFound
	}

	var t models.Tradesman
	if err := r.tradesmen.FindOne(ctx, bson.M{"_id": oid}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoProfileRepository) PutTradesman(ctx context.Context, t *models.Tradesman) error {
	res, err := r.tradesmen.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
