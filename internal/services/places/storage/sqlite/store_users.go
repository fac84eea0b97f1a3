package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/places/internal/services/places/storage"
	"github.com/louisbranch/places/internal/services/places/user"
)

const userColumns = "id, email, name, password_hash, image_ref, created_at, updated_at"

// PutUser inserts a new user record.
func (s *Store) PutUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Name, u.PasswordHash, u.ImageRef, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	); err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	for i, placeID := range u.PlaceIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_places (user_id, place_id, position) VALUES (?, ?, ?)",
			u.ID, placeID, i+1,
		); err != nil {
			return fmt.Errorf("put user place: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}
	return nil
}

// GetUser fetches a user record by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	return s.getUserBy(ctx, "id", userID)
}

// GetUserByEmail fetches a user record by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(value) == "" {
		return user.User{}, fmt.Errorf("%s is required", column)
	}

	u, err := scanUser(s.sqlDB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}

	placeIDs, err := s.userPlaceIDs(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}
	u.PlaceIDs = placeIDs
	return u, nil
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]user.User, 0)
	index := make(map[string]int)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.PlaceIDs = []string{}
		index[u.ID] = len(users)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	_ = rows.Close()

	placeRows, err := s.sqlDB.QueryContext(ctx, "SELECT user_id, place_id FROM user_places ORDER BY user_id, position")
	if err != nil {
		return nil, fmt.Errorf("list user places: %w", err)
	}
	defer placeRows.Close()
	for placeRows.Next() {
		var userID, placeID string
		if err := placeRows.Scan(&userID, &placeID); err != nil {
			return nil, fmt.Errorf("scan user place: %w", err)
		}
		if i, ok := index[userID]; ok {
			users[i].PlaceIDs = append(users[i].PlaceIDs, placeID)
		}
	}
	if err := placeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user places: %w", err)
	}
	return users, nil
}

func (s *Store) userPlaceIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT place_id FROM user_places WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("list user places: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var placeID string
		if err := rows.Scan(&placeID); err != nil {
			return nil, fmt.Errorf("scan user place: %w", err)
		}
		ids = append(ids, placeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user places: %w", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u         user.User
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.ImageRef, &createdAt, &updatedAt); err != nil {
		return user.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
