package httpapi

import (
	"net/http"

	"github.com/louisbranch/places/internal/platform/httpx"
	"github.com/louisbranch/places/internal/services/places/service"
	"github.com/louisbranch/places/internal/services/places/user"
)

type userResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Image  string   `json:"image"`
	Places []string `json:"places"`
}

type authResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func toUserResponse(u user.User) userResponse {
	places := u.PlaceIDs
	if places == nil {
		places = []string{}
	}
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.ImageRef, Places: places}
}

func toAuthResponse(result service.AuthResult) authResponse {
	return authResponse{UserID: result.UserID, Email: result.Email, Token: result.Token}
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	form, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input := user.CreateUserInput{
		Name:     form["name"],
		Email:    form["email"],
		Password: form["password"],
	}
	if _, err := user.NormalizeCreateUserInput(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	imageRef, err := h.saveImage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ImageRef = imageRef

	result, err := h.accounts.Signup(r.Context(), input)
	if err != nil {
		h.releaseImage(r, imageRef)
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, toAuthResponse(result))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	form, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.accounts.Login(r.Context(), form["email"], form["password"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toAuthResponse(result))
}
