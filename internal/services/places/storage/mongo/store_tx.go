package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/storage"
)

// txStore writes through the session context handed to it, so every
// operation joins the surrounding transaction.
type txStore struct {
	users  *mongo.Collection
	places *mongo.Collection
}

var _ storage.Tx = txStore{}

func (t txStore) InsertPlace(ctx context.Context, p place.Place) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("place id is required")
	}
	if strings.TrimSpace(p.CreatorID) == "" {
		return fmt.Errorf("creator id is required")
	}
	if _, err := t.places.InsertOne(ctx, placeToDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert place %s: %w", p.ID, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (t txStore) AddUserPlace(ctx context.Context, userID, placeID string) error {
	result, err := t.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "places", Value: placeID}}}},
	)
	if err != nil {
		return fmt.Errorf("add user place: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t txStore) DeletePlace(ctx context.Context, placeID string) error {
	result, err := t.places.DeleteOne(ctx, bson.D{{Key: "_id", Value: placeID}})
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t txStore) RemoveUserPlace(ctx context.Context, userID, placeID string) error {
	result, err := t.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "places", Value: placeID}}}},
	)
	if err != nil {
		return fmt.Errorf("remove user place: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
