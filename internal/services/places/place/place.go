// Package place provides the geocoded place model and its invariants.
package place

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/id"
)

// MinDescriptionLength is the shortest description accepted for a place.
const MinDescriptionLength = 5

var (
	// ErrEmptyTitle indicates a missing title.
	ErrEmptyTitle = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "title"})
	// ErrShortDescription indicates a description below MinDescriptionLength.
	ErrShortDescription = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "description"})
	// ErrEmptyAddress indicates a missing address.
	ErrEmptyAddress = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "address"})
	// ErrMissingImage indicates a create request without a stored image.
	ErrMissingImage = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "image"})
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a geocoded point of interest owned by exactly one user.
type Place struct {
	ID          string
	Title       string
	Description string
	Address     string
	Location    Coordinates
	ImageRef    string
	// CreatorID is set at creation and never changes.
	CreatorID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy is the single identity comparison used to authorize mutations.
func (p Place) IsOwnedBy(userID string) bool {
	userID = strings.TrimSpace(userID)
	return userID != "" && strings.TrimSpace(p.CreatorID) == userID
}

// CreatePlaceInput describes a new place before geocoding.
type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	ImageRef    string
}

// UpdatePlaceInput describes the mutable fields of a place.
type UpdatePlaceInput struct {
	Title       string
	Description string
}

// NormalizeCreatePlaceInput trims and validates create input.
func NormalizeCreatePlaceInput(input CreatePlaceInput) (CreatePlaceInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Address = strings.TrimSpace(input.Address)
	input.ImageRef = strings.TrimSpace(input.ImageRef)
	if err := ValidateDetails(input); err != nil {
		return CreatePlaceInput{}, err
	}
	if input.ImageRef == "" {
		return CreatePlaceInput{}, ErrMissingImage
	}
	return input, nil
}

// NormalizeUpdatePlaceInput trims and validates update input.
func NormalizeUpdatePlaceInput(input UpdatePlaceInput) (UpdatePlaceInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateText(input.Title, input.Description); err != nil {
		return UpdatePlaceInput{}, err
	}
	return input, nil
}

// ValidateDetails checks the text fields of a create request without
// requiring an image, so uploads can be deferred until the text is valid.
func ValidateDetails(input CreatePlaceInput) error {
	if err := validateText(strings.TrimSpace(input.Title), strings.TrimSpace(input.Description)); err != nil {
		return err
	}
	if strings.TrimSpace(input.Address) == "" {
		return ErrEmptyAddress
	}
	return nil
}

func validateText(title, description string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return ErrShortDescription
	}
	return nil
}

// CreatePlace builds a new place owned by creatorID from normalized input
// and resolved coordinates.
func CreatePlace(input CreatePlaceInput, location Coordinates, creatorID string, now func() time.Time, idGenerator func() (string, error)) (Place, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return Place{}, fmt.Errorf("creator id is required")
	}
	normalized, err := NormalizeCreatePlaceInput(input)
	if err != nil {
		return Place{}, err
	}
	placeID, err := idGenerator()
	if err != nil {
		return Place{}, fmt.Errorf("generate place id: %w", err)
	}
	createdAt := now().UTC()
	return Place{
		ID:          placeID,
		Title:       normalized.Title,
		Description: normalized.Description,
		Address:     normalized.Address,
		Location:    location,
		ImageRef:    normalized.ImageRef,
		CreatorID:   creatorID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// Apply returns p with the update applied at the given time.
func (p Place) Apply(update UpdatePlaceInput, at time.Time) Place {
	p.Title = update.Title
	p.Description = update.Description
	p.UpdatedAt = at.UTC()
	return p
}
