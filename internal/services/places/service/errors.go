package service

import (
	"errors"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/services/places/storage"
)

var (
	ErrPlaceNotFound      = apperrors.New(apperrors.CodeNotFound, "Could not find place for the id.")
	ErrUserPlacesNotFound = apperrors.New(apperrors.CodeNotFound, "Could not find places of the entered user.")
	ErrUserNotFound       = apperrors.New(apperrors.CodeNotFound, "Could not find user for provided id.")
	ErrNotAllowedToEdit   = apperrors.New(apperrors.CodeForbidden, "You are not allowed to edit this place.")
	ErrNotAllowedToDelete = apperrors.New(apperrors.CodeForbidden, "You are not allowed to delete this place.")
	ErrUserExists         = apperrors.New(apperrors.CodeAlreadyExists, "User already exists. Login instead.")
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "Invalid credentials. Try again.")
)

// persistenceError reports a store failure with a client-safe message.
func persistenceError(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodePersistence, message, cause)
}

// mapStoreError keeps not-found as notFound and turns anything else into a
// persistence error.
func mapStoreError(err error, notFound error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound
	}
	return persistenceError(message, err)
}
