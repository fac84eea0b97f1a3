package httpapi

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/httpx"
	"github.com/louisbranch/places/internal/platform/logging"
	"github.com/louisbranch/places/internal/services/places/imagestore"
	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/service"
	"github.com/louisbranch/places/internal/services/places/user"
)

// UploadsPath is where stored images are served. Image refs are paths
// below it.
const UploadsPath = "/" + imagestore.DefaultPrefix + "/"

// AccountService is the account surface used by the handlers.
type AccountService interface {
	Signup(ctx context.Context, input user.CreateUserInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// PlaceService is the place surface used by the handlers.
type PlaceService interface {
	GetPlace(ctx context.Context, placeID string) (place.Place, error)
	ListPlacesByUser(ctx context.Context, userID string) ([]place.Place, error)
	CreatePlace(ctx context.Context, input place.CreatePlaceInput, actingUserID string) (place.Place, error)
	UpdatePlace(ctx context.Context, placeID string, input place.UpdatePlaceInput, actingUserID string) (place.Place, error)
	DeletePlace(ctx context.Context, placeID string, actingUserID string) error
}

// ImageStore stores uploads and releases them when a request fails.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Config wires the handler dependencies.
type Config struct {
	Accounts AccountService
	Places   PlaceService
	Images   ImageStore
	Tokens   TokenVerifier
	// UploadDir is served read-only under UploadsPath when set.
	UploadDir string
	Logger    *slog.Logger
}

type handler struct {
	accounts AccountService
	places   PlaceService
	images   ImageStore
	logger   *slog.Logger
}

// NewHandler builds the API router.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if cfg.Places == nil {
		return nil, fmt.Errorf("place service is required")
	}
	if cfg.Images == nil {
		return nil, fmt.Errorf("image store is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token verifier is required")
	}
	logger := logging.OrDiscard(cfg.Logger)
	h := &handler{
		accounts: cfg.Accounts,
		places:   cfg.Places,
		images:   cfg.Images,
		logger:   logger,
	}

	r := chi.NewRouter()
	if dir := strings.TrimSpace(cfg.UploadDir); dir != "" {
		r.Handle(UploadsPath+"*", http.StripPrefix(UploadsPath, staticFiles(os.DirFS(dir))))
	}

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
	})

	r.Route("/api/places", func(r chi.Router) {
		r.Get("/{pid}", h.getPlace)
		r.Get("/user/{uid}", h.listUserPlaces)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(cfg.Tokens))
			r.Post("/", h.createPlace)
			r.Patch("/{pid}", h.updatePlace)
			r.Delete("/{pid}", h.deletePlace)
		})
	})

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)
	return httpx.Chain(r,
		httpx.RequestID(),
		httpx.AccessLog(logger),
		httpx.RecoverPanic(logger),
		httpx.CORS(),
	), nil
}

func routeNotFound(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteMessage(w, http.StatusNotFound, "Could not find route.")
}

// staticFiles serves files from fsys without directory listings.
func staticFiles(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			routeNotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// writeError writes err and logs server-side failures.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status := apperrors.HTTPStatus(err); status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get(httpx.RequestIDHeader),
			"error", err,
		)
	}
	httpx.WriteError(w, err)
}

// releaseImage deletes an upload stored for a request that failed.
func (h *handler) releaseImage(r *http.Request, ref string) {
	if ref == "" {
		return
	}
	if err := h.images.Delete(context.WithoutCancel(r.Context()), ref); err != nil {
		h.logger.WarnContext(r.Context(), "release image", "image", ref, "error", err)
	}
}

// saveImage stores the request's image upload, returning "" when none was
// sent.
func (h *handler) saveImage(r *http.Request) (string, error) {
	file, ok, err := imageFile(r)
	if err != nil || !ok {
		return "", err
	}
	defer file.Close()
	return h.images.Save(r.Context(), file)
}
