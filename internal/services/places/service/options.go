package service

import (
	"log/slog"
	"time"

	"github.com/louisbranch/places/internal/platform/timeouts"
	"github.com/louisbranch/places/internal/services/places/user"
)

type settings struct {
	logger      *slog.Logger
	clock       func() time.Time
	idGenerator func() (string, error)
	txTimeout   time.Duration
	hasher      user.Hasher
}

func defaultSettings() settings {
	return settings{
		clock:     time.Now,
		txTimeout: timeouts.Transaction,
	}
}

// Option configures a service.
type Option func(*settings)

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(generator func() (string, error)) Option {
	return func(s *settings) { s.idGenerator = generator }
}

// WithTransactionTimeout bounds how long a transaction may run.
func WithTransactionTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.txTimeout = timeout
		}
	}
}

// WithHasher overrides password hashing for signups.
func WithHasher(hasher user.Hasher) Option {
	return func(s *settings) { s.hasher = hasher }
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
