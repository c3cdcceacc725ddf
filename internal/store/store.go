// Package store persists candidate records and personalization profiles.
// Every driver stores whole JSON documents: records by opaque id, profiles
// by email.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
)

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	DefaultDir    = "data"
	DefaultPrefix = "talentscout"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrNoConsent = errors.New("record has no consent")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store is implemented by every driver.
type Store interface {
	SaveRecord(ctx context.Context, id string, rec *candidate.Record) error
	LoadRecord(ctx context.Context, id string) (*candidate.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context) ([]string, error)

	SaveProfile(ctx context.Context, email string, p *candidate.Profile) error
	LoadProfile(ctx context.Context, email string) (*candidate.Profile, error)

	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver   string `mapstructure:"driver"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis-url"`
	Prefix   string `mapstructure:"prefix"`
	DSN      string `mapstructure:"dsn"`
}

// Open builds the configured driver. An empty driver selects "file".
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("store", driverName(cfg.Driver)))

	switch driverName(cfg.Driver) {
	case DriverFile:
		return NewFileStore(cfg.Dir, logger)
	case DriverRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.Prefix, logger)
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func driverName(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "" {
		return DriverFile
	}
	return d
}

// SaveConsented saves rec under id only when the candidate gave consent.
func SaveConsented(ctx context.Context, s Store, id string, rec *candidate.Record) error {
	if rec == nil || !rec.Consent {
		return ErrNoConsent
	}
	return s.SaveRecord(ctx, id, rec)
}

func checkID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// profileKey canonicalizes an email for profile lookups.
func profileKey(email string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || !strings.Contains(key, "@") {
		return "", fmt.Errorf("%w: email %q", ErrInvalidID, email)
	}
	return key, nil
}
