package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/logging"
	"github.com/louisbranch/places/internal/services/places/geocode"
	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/storage"
)

const tracerName = "places.service"

// ImageReleaser deletes stored images that are no longer referenced.
type ImageReleaser interface {
	Delete(ctx context.Context, ref string) error
}

// PlaceService creates, updates, deletes and reads places.
type PlaceService struct {
	store    storage.Store
	geocoder geocode.Geocoder
	images   ImageReleaser
	settings settings
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewPlaceService builds a place service. images may be nil.
func NewPlaceService(store storage.Store, geocoder geocode.Geocoder, images ImageReleaser, opts ...Option) (*PlaceService, error) {
	if store == nil {
		return nil, fmt.Errorf("place store is required")
	}
	if geocoder == nil {
		return nil, fmt.Errorf("geocoder is required")
	}
	s := applyOptions(opts)
	return &PlaceService{
		store:    store,
		geocoder: geocoder,
		images:   images,
		settings: s,
		logger:   logging.OrDiscard(s.logger),
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// GetPlace returns one place.
func (s *PlaceService) GetPlace(ctx context.Context, placeID string) (place.Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return place.Place{}, ErrPlaceNotFound
	}
	p, err := s.store.GetPlace(ctx, placeID)
	if err != nil {
		return place.Place{}, mapStoreError(err, ErrPlaceNotFound, "Something went wrong, could not find a place.")
	}
	return p, nil
}

// ListPlacesByUser returns the places in the user's place set. A missing
// user or an empty set are both not found.
func (s *PlaceService) ListPlacesByUser(ctx context.Context, userID string) ([]place.Place, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserPlacesNotFound
	}
	places, err := s.store.ListPlacesByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, ErrUserPlacesNotFound, "Fetching places failed, please try again later.")
	}
	if len(places) == 0 {
		return nil, ErrUserPlacesNotFound
	}
	return places, nil
}

// CreatePlace geocodes the address and stores a place owned by
// actingUserID. The place and the user's place set are written in one
// transaction.
func (s *PlaceService) CreatePlace(ctx context.Context, input place.CreatePlaceInput, actingUserID string) (created place.Place, err error) {
	ctx, span := s.tracer.Start(ctx, "PlaceService.CreatePlace", trace.WithAttributes(attribute.String("user.id", actingUserID)))
	defer func() { endSpan(span, err) }()

	normalized, err := place.NormalizeCreatePlaceInput(input)
	if err != nil {
		return place.Place{}, err
	}

	location, err := s.geocoder.Resolve(ctx, normalized.Address)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeGeocodeFailed) {
			return place.Place{}, err
		}
		return place.Place{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.", err)
	}

	creator, err := s.store.GetUser(ctx, actingUserID)
	if err != nil {
		return place.Place{}, mapStoreError(err, ErrUserNotFound, "Creating place failed, please try again.")
	}

	created, err = place.CreatePlace(normalized, location, creator.ID, s.settings.clock, s.settings.idGenerator)
	if err != nil {
		return place.Place{}, persistenceError("Creating place failed, please try again.", err)
	}
	span.SetAttributes(attribute.String("place.id", created.ID))

	err = s.withinTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertPlace(ctx, created); err != nil {
			return err
		}
		return tx.AddUserPlace(ctx, created.CreatorID, created.ID)
	})
	if err != nil {
		return place.Place{}, mapStoreError(err, ErrUserNotFound, "Creating place failed, please try again.")
	}
	return created, nil
}

// UpdatePlace changes the title and description of a place owned by
// actingUserID.
func (s *PlaceService) UpdatePlace(ctx context.Context, placeID string, input place.UpdatePlaceInput, actingUserID string) (updated place.Place, err error) {
	ctx, span := s.tracer.Start(ctx, "PlaceService.UpdatePlace", trace.WithAttributes(
		attribute.String("place.id", placeID),
		attribute.String("user.id", actingUserID),
	))
	defer func() { endSpan(span, err) }()

	normalized, err := place.NormalizeUpdatePlaceInput(input)
	if err != nil {
		return place.Place{}, err
	}
	current, err := s.GetPlace(ctx, placeID)
	if err != nil {
		return place.Place{}, err
	}
	if !current.IsOwnedBy(actingUserID) {
		return place.Place{}, ErrNotAllowedToEdit
	}

	updated = current.Apply(normalized, s.settings.clock())
	if err := s.store.UpdatePlace(ctx, updated); err != nil {
		return place.Place{}, mapStoreError(err, ErrPlaceNotFound, "Something went wrong, could not update place.")
	}
	return updated, nil
}

// DeletePlace removes a place owned by actingUserID together with its entry
// in the user's place set, then releases the place image.
func (s *PlaceService) DeletePlace(ctx context.Context, placeID string, actingUserID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "PlaceService.DeletePlace", trace.WithAttributes(
		attribute.String("place.id", placeID),
		attribute.String("user.id", actingUserID),
	))
	defer func() { endSpan(span, err) }()

	current, err := s.GetPlace(ctx, placeID)
	if err != nil {
		return err
	}
	if !current.IsOwnedBy(actingUserID) {
		return ErrNotAllowedToDelete
	}

	err = s.withinTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.DeletePlace(ctx, current.ID); err != nil {
			return err
		}
		return tx.RemoveUserPlace(ctx, current.CreatorID, current.ID)
	})
	if err != nil {
		return mapStoreError(err, ErrPlaceNotFound, "Something went wrong, could not delete place.")
	}

	s.releaseImage(ctx, current.ImageRef)
	return nil
}

func (s *PlaceService) releaseImage(ctx context.Context, ref string) {
	if s.images == nil || strings.TrimSpace(ref) == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.WarnContext(ctx, "release image", "image", ref, "error", err)
	}
}

// withinTransaction detaches the transaction from request cancellation and
// bounds it with the configured timeout.
func (s *PlaceService) withinTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.txTimeout)
	defer cancel()
	if err := s.store.WithinTransaction(txCtx, fn); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("transaction timed out after %s: %w", s.settings.txTimeout, err)
		}
		return err
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
