package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/storage"
)

const placeColumns = "id, title, description, address, lat, lng, image_ref, creator_id, created_at, updated_at"

// GetPlace fetches a place by ID.
func (s *Store) GetPlace(ctx context.Context, placeID string) (place.Place, error) {
	if err := ctx.Err(); err != nil {
		return place.Place{}, err
	}
	if s == nil || s.sqlDB == nil {
		return place.Place{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(placeID) == "" {
		return place.Place{}, fmt.Errorf("place id is required")
	}

	p, err := scanPlace(s.sqlDB.QueryRowContext(ctx, "SELECT "+placeColumns+" FROM places WHERE id = ?", placeID))
	if errors.Is(err, sql.ErrNoRows) {
		return place.Place{}, storage.ErrNotFound
	}
	if err != nil {
		return place.Place{}, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

// ListPlacesByUser returns the places in a user's place set.
func (s *Store) ListPlacesByUser(ctx context.Context, userID string) ([]place.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	found, err := userExists(ctx, s.sqlDB, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT p.id, p.title, p.description, p.address, p.lat, p.lng, p.image_ref, p.creator_id, p.created_at, p.updated_at
FROM user_places up
JOIN places p ON p.id = up.place_id
WHERE up.user_id = ?
ORDER BY up.position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	places := make([]place.Place, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return places, nil
}

// UpdatePlace replaces the mutable fields of a place.
func (s *Store) UpdatePlace(ctx context.Context, p place.Place) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("place id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE places SET title = ?, description = ?, updated_at = ? WHERE id = ?",
		p.Title, p.Description, toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return requireAffected(result)
}

func scanPlace(row rowScanner) (place.Place, error) {
	var (
		p         place.Place
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Location.Lat, &p.Location.Lng,
		&p.ImageRef, &p.CreatorID, &createdAt, &updatedAt); err != nil {
		return place.Place{}, err
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
