// Package places parses places service flags and launches the service.
package places

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	entrypoint "github.com/louisbranch/places/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/places/internal/platform/grpc"
	server "github.com/louisbranch/places/internal/services/places/app"
	"github.com/louisbranch/places/internal/services/places/geocode"
	"github.com/louisbranch/places/internal/services/places/token"
)

// Config holds places command configuration.
type Config struct {
	HTTPAddr      string `env:"PLACES_HTTP_ADDR"      envDefault:":5000"`
	HealthAddr    string `env:"PLACES_HEALTH_ADDR"`
	Store         string `env:"PLACES_STORE"          envDefault:"sqlite"`
	DBPath        string `env:"PLACES_DB_PATH"        envDefault:"data/places.db"`
	MongoURI      string `env:"PLACES_MONGO_URI"`
	MongoDatabase string `env:"PLACES_MONGO_DATABASE" envDefault:"places"`
	UploadDir     string `env:"PLACES_UPLOAD_DIR"     envDefault:"uploads/images"`
	Geocoder      string `env:"PLACES_GEOCODER"       envDefault:"static"`
	GoogleAPIKey  string `env:"PLACES_GOOGLE_API_KEY"`
	LogLevel      string `env:"PLACES_LOG_LEVEL"      envDefault:"info"`
	// HealthCheck checks a running server's health address and exits.
	HealthCheck   bool
}

// healthCheckTimeout bounds a -healthcheck run.
const healthCheckTimeout = 5 * time.Second

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address (disabled when empty)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Storage backend: sqlite or mongo")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection URI")
	fs.StringVar(&cfg.MongoDatabase, "mongo-database", cfg.MongoDatabase, "MongoDB database name")
	fs.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "Directory for uploaded images")
	fs.StringVar(&cfg.Geocoder, "geocoder", cfg.Geocoder, "Geocoder provider: static or google")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "Check the health address of a running server and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the places HTTP API service.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	tokenCfg, err := token.LoadConfigFromEnv(time.Now)
	if err != nil {
		return err
	}
	serverCfg := server.Config{
		HTTPAddr:      cfg.HTTPAddr,
		HealthAddr:    cfg.HealthAddr,
		Store:         cfg.Store,
		DBPath:        cfg.DBPath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		UploadDir:     cfg.UploadDir,
		Geocoder: geocode.Options{
			Provider:     cfg.Geocoder,
			GoogleAPIKey: cfg.GoogleAPIKey,
		},
		Token:  tokenCfg,
		Logger: logger,
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServicePlaces, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return server.Run(ctx, serverCfg)
	})
}

// CheckHealth reports whether the server behind cfg.HealthAddr is SERVING.
func CheckHealth(ctx context.Context, cfg Config, logger *slog.Logger) error {
	addr := strings.TrimSpace(cfg.HealthAddr)
	if addr == "" {
		return errors.New("health addr is required for -healthcheck")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial health server: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return platformgrpc.WaitForHealth(ctx, conn, server.HealthService, logger)
}
