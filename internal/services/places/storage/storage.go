// Package storage defines the persistence contracts for users and places.
//
// A user's place set and a place's creator are written together through
// Transactor so that neither reference is ever visible without the other.
package storage

import (
	"context"

	"github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/user"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates a unique key (user email, record id) is taken.
var ErrAlreadyExists = errors.New(errors.CodeAlreadyExists, "record already exists")

// UserStore persists user records.
type UserStore interface {
	// PutUser inserts a new user. A duplicate email returns ErrAlreadyExists.
	PutUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// PlaceStore reads places and applies single-document updates.
type PlaceStore interface {
	GetPlace(ctx context.Context, placeID string) (place.Place, error)
	// ListPlacesByUser returns the places in the user's place set, in the
	// order they were added.
	ListPlacesByUser(ctx context.Context, userID string) ([]place.Place, error)
	// UpdatePlace replaces title, description and updated time.
	UpdatePlace(ctx context.Context, p place.Place) error
}

// Tx is the set of writes that must commit together.
type Tx interface {
	InsertPlace(ctx context.Context, p place.Place) error
	// AddUserPlace appends placeID to the user's place set. A missing user
	// returns ErrNotFound.
	AddUserPlace(ctx context.Context, userID, placeID string) error
	// DeletePlace removes the place. A missing place returns ErrNotFound.
	DeletePlace(ctx context.Context, placeID string) error
	// RemoveUserPlace drops placeID from the user's place set. A missing
	// user returns ErrNotFound.
	RemoveUserPlace(ctx context.Context, userID, placeID string) error
}

// Transactor runs fn inside one atomic transaction. Any error returned by fn
// rolls back every write made through its Tx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the full persistence surface of the places service.
type Store interface {
	UserStore
	PlaceStore
	Transactor
	Close() error
}
