// Package server wires the places runtime, its HTTP API and the optional
// gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/louisbranch/places/internal/platform/grpc"
	"github.com/louisbranch/places/internal/platform/logging"
	"github.com/louisbranch/places/internal/platform/timeouts"
	httpapi "github.com/louisbranch/places/internal/services/places/api/http"
	"github.com/louisbranch/places/internal/services/places/geocode"
	"github.com/louisbranch/places/internal/services/places/imagestore"
	"github.com/louisbranch/places/internal/services/places/service"
	"github.com/louisbranch/places/internal/services/places/storage"
	placesmongo "github.com/louisbranch/places/internal/services/places/storage/mongo"
	placessqlite "github.com/louisbranch/places/internal/services/places/storage/sqlite"
	"github.com/louisbranch/places/internal/services/places/token"
)

// HealthService is the gRPC health service name reported as SERVING.
const HealthService = "places.v1.PlacesService"

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config describes one places process.
type Config struct {
	HTTPAddr string
	// HealthAddr enables the gRPC health server when set.
	HealthAddr    string
	Store         string
	DBPath        string
	MongoURI      string
	MongoDatabase string
	UploadDir     string
	Geocoder      geocode.Options
	Token         token.Config
	Logger        *slog.Logger
}

// Server hosts the places HTTP API and its storage lifecycle.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	store          storage.Store
	logger         *slog.Logger
}

// New opens storage, builds the services and binds the listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrDiscard(cfg.Logger)

	tokens, err := token.NewService(cfg.Token)
	if err != nil {
		return nil, err
	}
	geocoder, err := geocode.New(cfg.Geocoder)
	if err != nil {
		return nil, err
	}
	images, err := imagestore.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	handler, err := newHandler(store, tokens, geocoder, images, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}

	srv := &Server{
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		store:  store,
		logger: logger,
	}

	if addr := strings.TrimSpace(cfg.HealthAddr); addr != "" {
		healthListener, err := net.Listen("tcp", addr)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("listen on health addr %s: %w", addr, err)
		}
		srv.healthListener = healthListener
		srv.grpcServer, srv.health = platformgrpc.NewHealthServer(HealthService)
	}
	return srv, nil
}

func newHandler(store storage.Store, tokens *token.Service, geocoder geocode.Geocoder, images *imagestore.DiskStore, logger *slog.Logger) (http.Handler, error) {
	places, err := service.NewPlaceService(store, geocoder, images, service.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	accounts, err := service.NewAccountService(store, tokens, service.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return httpapi.NewHandler(httpapi.Config{
		Accounts:  accounts,
		Places:    places,
		Images:    images,
		Tokens:    tokens,
		UploadDir: images.Dir(),
		Logger:    logger,
	})
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run creates and serves a places server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs the HTTP API, and the health server when configured, until the
// context ends or either server fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("places HTTP server listening", "addr", s.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	grpcErr := make(chan error, 1)
	if s.grpcServer != nil {
		s.logger.Info("places health server listening", "addr", s.HealthAddr())
		go func() {
			grpcErr <- s.grpcServer.Serve(s.healthListener)
		}()
	}

	shutdownHTTP := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
	shutdownGRPC := func() {
		if s.grpcServer == nil {
			return
		}
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}

	select {
	case <-ctx.Done():
		shutdownGRPC()
		if err := shutdownHTTP(); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	case err := <-httpErr:
		shutdownGRPC()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-grpcErr:
		_ = shutdownHTTP()
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC health: %w", err)
	}
}

// Close releases listeners and storage.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.healthListener != nil {
		_ = s.healthListener.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("close places store", "error", err)
		}
		s.store = nil
	}
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "", StoreSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = filepath.Join("data", "places.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := placessqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open places sqlite store: %w", err)
		}
		return store, nil
	case StoreMongo:
		store, err := placesmongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open places mongo store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
