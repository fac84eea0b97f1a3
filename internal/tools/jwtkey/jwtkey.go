// Package jwtkey generates signing keys for PLACES_JWT_KEY.
package jwtkey

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// EnvName is the variable the places service reads its signing key from.
const EnvName = "PLACES_JWT_KEY"

// MinBytes matches the HS256 digest size.
const MinBytes = 32

// Supported key encodings.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// Config holds configuration for signing key generation.
type Config struct {
	Bytes    int
	Encoding string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: MinBytes, Encoding: EncodingHex}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes, at least 32")
	fs.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "key encoding: hex or base64")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates a key and writes it to out as an env assignment.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes < MinBytes {
		return fmt.Errorf("bytes must be at least %d", MinBytes)
	}
	if out == nil {
		return errors.New("output is required")
	}
	encode, err := encoder(cfg.Encoding)
	if err != nil {
		return err
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s=%s\n", EnvName, encode(buf))
	return err
}

func encoder(name string) (func([]byte) string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingHex:
		return hex.EncodeToString, nil
	case EncodingBase64:
		return base64.RawURLEncoding.EncodeToString, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}
