package knackpy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	AppID             string       // Knack application ID (required)
	APIKey            string       // Knack REST API key; omit for public views only
	BaseURL           string       // API base URL (default: https://api.knack.com/v1)
	LoaderURL         string       // metadata loader base URL (default: https://loader.knack.com/v1)
	UserAgent         string       // optional custom user agent
	MaxRetries        int          // maximum number of retries (default: 3)
	RetryDelay        int          // seconds between retries, scaled per attempt (default: 1)
	Timeout           int          // request timeout in seconds (default: 30)
	RequestsPerSecond int          // client-side rate limit on API calls (default: 10)
	Timezone          string       // IANA or Knack common name; overrides the metadata timezone
	Metadata          *Application // pre-fetched metadata; skips the loader call
	Logger            *slog.Logger // defaults to slog.Default()
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.knack.com/v1",
		LoaderURL:         "https://loader.knack.com/v1",
		UserAgent:         "knackpy-go/1.0",
		MaxRetries:        3,
		RetryDelay:        1,
		Timeout:           30,
		RequestsPerSecond: 10,
	}
}

// App is a client for one Knack application. It is built once from the app's
// metadata and holds the resolved timezone, field definitions, containers, and
// the per-container record cache. An App instance is intended for a single
// logical owner; the record cache itself is mutex-guarded.
type App struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	metadata   *Application
	timezone   *time.Location
	fieldDefs  []FieldDef
	containers []*Container
	cache      *recordCache
}

// New creates an App client. Unless Config.Metadata is supplied, the app's
// metadata is fetched from the loader endpoint. The app timezone is resolved
// once, from Config.Timezone when set, otherwise from the metadata settings,
// and reused for every timestamp conversion.
func New(ctx context.Context, config *Config) (*App, error) {
	if config == nil || config.AppID == "" {
		return nil, errors.New("config.AppID is required")
	}

	// Apply defaults
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.LoaderURL == "" {
		config.LoaderURL = defaults.LoaderURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestsPerSecond),
		logger:  logger,
		cache:   newRecordCache(),
	}

	if config.APIKey == "" {
		logger.Warn("no API key supplied: only public views will be accessible")
	}

	metadata := config.Metadata
	if metadata == nil {
		var err error
		metadata, err = app.getMetadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch app metadata: %w", err)
		}
	}
	app.metadata = metadata

	tzinfo := config.Timezone
	if tzinfo == "" {
		tzinfo = metadata.Settings.Timezone
	}
	timezone, err := ResolveTimezone(tzinfo)
	if err != nil {
		return nil, err
	}
	app.timezone = timezone

	app.fieldDefs = fieldDefsFromMetadata(metadata)
	app.containers = generateContainers(metadata)

	logger.Debug("app initialized",
		slog.String("app", metadata.Name),
		slog.String("timezone", timezone.String()),
		slog.Int("containers", len(app.containers)),
	)

	return app, nil
}

// String implements fmt.Stringer.
func (a *App) String() string {
	return fmt.Sprintf("<App [%s]>", a.metadata.Name)
}

// Metadata returns the application metadata the client was built from.
func (a *App) Metadata() *Application {
	return a.metadata
}

// Timezone returns the timezone resolved at construction.
func (a *App) Timezone() *time.Location {
	return a.timezone
}

// Info summarizes the application.
func (a *App) Info() AppInfo {
	return AppInfo{
		Objects: len(a.metadata.Objects),
		Scenes:  len(a.metadata.Scenes),
		Records: a.metadata.Counts.TotalEntries,
		Size:    humanizeBytes(a.metadata.Counts.AssetSize),
	}
}

// retryableRequest wraps requests with retry logic. Only errors that may
// succeed later are retried (network failures, 429, 5xx); other transport
// errors propagate immediately.
func (a *App) retryableRequest(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var transportErr *TransportError
		if errors.As(err, &transportErr) && !transportErr.retryable() {
			return err
		}

		if attempt < a.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(a.config.RetryDelay*(attempt+1)) * time.Second):
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", a.config.MaxRetries, lastErr)
}
