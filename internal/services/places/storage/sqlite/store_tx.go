package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/storage"
)

// txStore applies the cross-document writes of one transaction.
type txStore struct {
	q queryer
}

var _ storage.Tx = txStore{}

func (t txStore) InsertPlace(ctx context.Context, p place.Place) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("place id is required")
	}
	if strings.TrimSpace(p.CreatorID) == "" {
		return fmt.Errorf("creator id is required")
	}
	if _, err := t.q.ExecContext(ctx,
		"INSERT INTO places ("+placeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Description, p.Address, p.Location.Lat, p.Location.Lng,
		p.ImageRef, p.CreatorID, toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	); err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("insert place %s: %w", p.ID, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (t txStore) AddUserPlace(ctx context.Context, userID, placeID string) error {
	found, err := userExists(ctx, t.q, userID)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	if _, err := t.q.ExecContext(ctx, `
INSERT INTO user_places (user_id, place_id, position)
SELECT ?1, ?2, COALESCE(MAX(position), 0) + 1 FROM user_places WHERE user_id = ?1`,
		userID, placeID,
	); err != nil {
		return fmt.Errorf("add user place: %w", err)
	}
	return nil
}

func (t txStore) DeletePlace(ctx context.Context, placeID string) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM places WHERE id = ?", placeID)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return requireAffected(result)
}

func (t txStore) RemoveUserPlace(ctx context.Context, userID, placeID string) error {
	found, err := userExists(ctx, t.q, userID)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	if _, err := t.q.ExecContext(ctx, "DELETE FROM user_places WHERE user_id = ? AND place_id = ?", userID, placeID); err != nil {
		return fmt.Errorf("remove user place: %w", err)
	}
	return nil
}
