package knackpy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NotNil(t, config)
	assert.Equal(t, "https://api.knack.com/v1", config.BaseURL)
	assert.Equal(t, "https://loader.knack.com/v1", config.LoaderURL)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1, config.RetryDelay)
	assert.Equal(t, 30, config.Timeout)
	assert.Equal(t, 10, config.RequestsPerSecond)
}

func TestNew_RequiresAppID(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	_, err = New(context.Background(), &Config{APIKey: "key-without-app-id"})
	assert.Error(t, err)
}

func TestNew_FetchesMetadataFromLoader(t *testing.T) {
	var loaderCalls int32
	loader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loaderCalls, 1)
		assert.Equal(t, "/applications/abc123xyz456", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"application": testMetadata()})
	}))
	defer loader.Close()

	app, err := New(context.Background(), &Config{
		AppID:     "abc123xyz456",
		APIKey:    "test-key",
		LoaderURL: loader.URL,
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&loaderCalls))
	assert.Equal(t, "Test App", app.Metadata().Name)
	assert.Equal(t, "America/New_York", app.Timezone().String())
	assert.Equal(t, "<App [Test App]>", app.String())
}

func TestNew_MetadataSuppliedSkipsLoader(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	assert.Equal(t, "Test App", app.Metadata().Name)
}

func TestNew_TimezoneOverride(t *testing.T) {
	app, err := New(context.Background(), &Config{
		AppID:    "abc123xyz456",
		Metadata: testMetadata(),
		Timezone: "US/Central",
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, "US/Central", app.Timezone().String())
}

func TestNew_UnresolvableMetadataTimezone(t *testing.T) {
	metadata := testMetadata()
	metadata.Settings.Timezone = "Not A Zone"

	_, err := New(context.Background(), &Config{
		AppID:    "abc123xyz456",
		Metadata: metadata,
		Logger:   testLogger(),
	})
	var tzErr *UnknownTimezoneError
	require.ErrorAs(t, err, &tzErr)
	assert.Equal(t, "Not A Zone", tzErr.Input)
}

func TestInfo(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	info := app.Info()
	assert.Equal(t, 2, info.Objects)
	assert.Equal(t, 1, info.Scenes)
	assert.Equal(t, 1250, info.Records)
	assert.Equal(t, "1.5 MiB", info.Size)
}

func TestRetryableRequest(t *testing.T) {
	t.Run("NonRetryableFailsFast", func(t *testing.T) {
		app := newTestApp(t, "http://unused.invalid")

		attempts := 0
		err := app.retryableRequest(context.Background(), func() error {
			attempts++
			return &TransportError{Status: 404, URL: "http://unused.invalid"}
		})

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, 404, transportErr.Status)
		assert.Equal(t, 1, attempts)
	})

	t.Run("RetryableIsRetried", func(t *testing.T) {
		app, err := New(context.Background(), &Config{
			AppID:      "abc123xyz456",
			Metadata:   testMetadata(),
			MaxRetries: 1,
			Logger:     testLogger(),
		})
		require.NoError(t, err)

		attempts := 0
		err = app.retryableRequest(context.Background(), func() error {
			attempts++
			if attempts == 1 {
				return &TransportError{Status: 503, URL: "http://unused.invalid"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})
}

func TestErrorTypes(t *testing.T) {
	t.Run("UnknownTimezoneError", func(t *testing.T) {
		err := &UnknownTimezoneError{Input: "Not A Zone"}
		assert.Contains(t, err.Error(), `"Not A Zone"`)
		assert.Contains(t, err.Error(), "IANA")
	})

	t.Run("AmbiguousIdentifierError", func(t *testing.T) {
		err := &AmbiguousIdentifierError{Identifier: "Orders", Matches: 2}
		assert.Equal(t, `2 containers match "Orders": use an object or view key instead`, err.Error())
	})

	t.Run("UnknownContainerError", func(t *testing.T) {
		err := &UnknownContainerError{Identifier: "object_99"}
		assert.Contains(t, err.Error(), `unknown container "object_99"`)
	})

	t.Run("MissingIdentifierError", func(t *testing.T) {
		assert.Contains(t, (&MissingIdentifierError{}).Error(), "no cached data")
		assert.Contains(t, (&MissingIdentifierError{Cached: 2}).Error(), "2 containers are cached")
	})

	t.Run("UnknownFieldError", func(t *testing.T) {
		err := &UnknownFieldError{Field: "field_99", ObjKey: "object_1"}
		assert.Equal(t, `field not found: "field_99" on object "object_1"`, err.Error())
	})

	t.Run("DownloadError", func(t *testing.T) {
		err := &DownloadError{URL: "https://api.knack.com/asset/1", Status: 403}
		assert.Equal(t, "download failed (status 403): https://api.knack.com/asset/1", err.Error())
	})
}

// testMetadata builds the fixture app used across the test suite: two objects
// (one with a file field) and one scene with two views. The "Orders" view name
// deliberately collides with the Orders object's display name.
func testMetadata() *Application {
	return &Application{
		ID:   "abc123xyz456",
		Name: "Test App",
		Settings: Settings{
			Timezone: "Eastern Time (US & Canada)",
		},
		Objects: []MetaObject{
			{
				Key:  "object_1",
				Name: "Orders",
				Fields: []MetaField{
					{Key: "field_1", Name: "Order Name", Type: "short_text", Required: true},
					{Key: "field_2", Name: "Reference", Type: "short_text"},
					{Key: "field_3", Name: "Created", Type: "date_time"},
					{Key: "field_4", Name: "Customer", Type: "connection"},
					{Key: "field_17", Name: "Attachment", Type: "file"},
				},
			},
			{
				Key:  "object_2",
				Name: "Customers",
				Fields: []MetaField{
					{Key: "field_20", Name: "Customer Name", Type: "short_text"},
				},
			},
		},
		Scenes: []MetaScene{
			{
				Key:  "scene_1",
				Name: "Dashboard",
				Views: []MetaView{
					{Key: "view_1", Name: "All Orders", Type: "table"},
					{Key: "view_2", Name: "Orders", Type: "table"},
				},
			},
		},
		Counts: MetadataCounts{
			TotalEntries: 1250,
			AssetSize:    1572864,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp builds an App against a mock records server, with metadata
// supplied so construction makes no loader call.
func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	app, err := New(context.Background(), &Config{
		AppID:    "abc123xyz456",
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Metadata: testMetadata(),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return app
}

// writeRecordsPage encodes a single-page records envelope.
func writeRecordsPage(w http.ResponseWriter, records []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records":       records,
		"total_pages":   1,
		"total_records": len(records),
	})
}
