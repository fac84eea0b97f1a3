package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/places/internal/platform/httpx"
	"github.com/louisbranch/places/internal/platform/id"
	"github.com/louisbranch/places/internal/platform/requestctx"
	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/service"
)

// placeIDParam returns the {pid} path value, or false when it cannot name a
// stored place.
func placeIDParam(r *http.Request) (string, bool) {
	placeID := chi.URLParam(r, "pid")
	return placeID, id.Valid(placeID)
}

type placeResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Address     string            `json:"address"`
	Location    place.Coordinates `json:"location"`
	Image       string            `json:"image"`
	Creator     string            `json:"creator"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toPlaceResponse(p place.Place) placeResponse {
	return placeResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Location:    p.Location,
		Image:       p.ImageRef,
		Creator:     p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *handler) getPlace(w http.ResponseWriter, r *http.Request) {
	placeID, ok := placeIDParam(r)
	if !ok {
		h.writeError(w, r, service.ErrPlaceNotFound)
		return
	}
	p, err := h.places.GetPlace(r.Context(), placeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"place": toPlaceResponse(p)})
}

func (h *handler) listUserPlaces(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uid")
	if !id.Valid(userID) {
		h.writeError(w, r, service.ErrUserPlacesNotFound)
		return
	}
	places, err := h.places.ListPlacesByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]placeResponse, 0, len(places))
	for _, p := range places {
		out = append(out, toPlaceResponse(p))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"places": out})
}

func (h *handler) createPlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := requestctx.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, ErrAuthRequired)
		return
	}
	form, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input := place.CreatePlaceInput{
		Title:       form["title"],
		Description: form["description"],
		Address:     form["address"],
	}
	if err := place.ValidateDetails(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	imageRef, err := h.saveImage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if imageRef == "" {
		h.writeError(w, r, place.ErrMissingImage)
		return
	}
	input.ImageRef = imageRef

	created, err := h.places.CreatePlace(r.Context(), input, identity.UserID)
	if err != nil {
		h.releaseImage(r, imageRef)
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"place": toPlaceResponse(created)})
}

func (h *handler) updatePlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := requestctx.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, ErrAuthRequired)
		return
	}
	placeID, ok := placeIDParam(r)
	if !ok {
		h.writeError(w, r, service.ErrPlaceNotFound)
		return
	}
	form, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.places.UpdatePlace(r.Context(), placeID, place.UpdatePlaceInput{
		Title:       form["title"],
		Description: form["description"],
	}, identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"place": toPlaceResponse(updated)})
}

func (h *handler) deletePlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := requestctx.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, ErrAuthRequired)
		return
	}
	placeID, ok := placeIDParam(r)
	if !ok {
		h.writeError(w, r, service.ErrPlaceNotFound)
		return
	}
	if err := h.places.DeletePlace(r.Context(), placeID, identity.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteMessage(w, http.StatusOK, "Deleted place")
}
