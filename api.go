package knackpy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// recordsPerPage is the maximum page size the Knack API serves.
const recordsPerPage = 1000

// metadataResponse is the envelope returned by the loader endpoint.
type metadataResponse struct {
	Application Application `json:"application"`
}

// recordsResponse is the envelope returned by the records endpoints.
type recordsResponse struct {
	Records      []RawRecord `json:"records"`
	TotalPages   int         `json:"total_pages"`
	TotalRecords int         `json:"total_records"`
}

// newRequest builds an API request with Knack auth headers. Requests without
// an API key send the literal "knack", which grants access to public views
// only.
func (a *App) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	apiKey := a.config.APIKey
	if apiKey == "" {
		apiKey = "knack"
	}
	req.Header.Set("X-Knack-Application-Id", a.config.AppID)
	req.Header.Set("X-Knack-REST-API-Key", apiKey)
	req.Header.Set("User-Agent", a.config.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do waits on the rate limiter, performs the request, and converts any
// non-success status into a *TransportError. The caller owns the body on
// success.
func (a *App) do(req *http.Request) (*http.Response, error) {
	if err := a.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &TransportError{
			Status: resp.StatusCode,
			URL:    req.URL.String(),
			Body:   string(body),
		}
	}
	return resp, nil
}

// getMetadata fetches the application metadata document from the loader
// endpoint. The loader requires no authentication.
func (a *App) getMetadata(ctx context.Context) (*Application, error) {
	metadataURL := fmt.Sprintf("%s/applications/%s", a.config.LoaderURL, a.config.AppID)

	var metadata *Application
	err := a.retryableRequest(ctx, func() error {
		req, err := a.newRequest(ctx, http.MethodGet, metadataURL)
		if err != nil {
			return err
		}
		resp, err := a.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var envelope metadataResponse
		if err := readJSON(resp.Body, &envelope); err != nil {
			return fmt.Errorf("failed to parse metadata response: %w", err)
		}
		metadata = &envelope.Application
		return nil
	})

	return metadata, err
}

// recordsURL builds the records route for a container: object-backed
// containers read from the objects endpoint, view-backed ones from their
// scene's view endpoint.
func (a *App) recordsURL(c *Container) string {
	if c.ObjKey != "" {
		return fmt.Sprintf("%s/objects/%s/records", a.config.BaseURL, c.ObjKey)
	}
	return fmt.Sprintf("%s/pages/%s/views/%s/records", a.config.BaseURL, c.SceneKey, c.ViewKey)
}

// fetchRecords retrieves the raw record batch for a container, paging through
// the API until every page is read or recordLimit records have been collected.
// recordLimit <= 0 means unlimited.
func (a *App) fetchRecords(ctx context.Context, c *Container, filters *Filters, recordLimit int) ([]RawRecord, error) {
	baseURL := a.recordsURL(c)

	var filterParam string
	if filters != nil {
		encoded, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		filterParam = string(encoded)
	}

	var records []RawRecord
	for page := 1; ; page++ {
		query := url.Values{
			"page":          {strconv.Itoa(page)},
			"rows_per_page": {strconv.Itoa(recordsPerPage)},
		}
		if filterParam != "" {
			query.Set("filters", filterParam)
		}
		pageURL := baseURL + "?" + query.Encode()

		var envelope recordsResponse
		err := a.retryableRequest(ctx, func() error {
			req, err := a.newRequest(ctx, http.MethodGet, pageURL)
			if err != nil {
				return err
			}
			resp, err := a.do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			envelope = recordsResponse{}
			if err := readJSON(resp.Body, &envelope); err != nil {
				return fmt.Errorf("failed to parse records response: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		records = append(records, envelope.Records...)

		a.logger.Debug("fetched records page",
			slog.String("container", c.Key()),
			slog.Int("page", page),
			slog.Int("records", len(records)),
		)

		if recordLimit > 0 && len(records) >= recordLimit {
			return records[:recordLimit], nil
		}
		if page >= envelope.TotalPages || len(envelope.Records) == 0 {
			return records, nil
		}
	}
}

// fetchBytes downloads the payload at rawURL. Asset URLs are pre-signed by
// Knack, so no auth headers are attached. An optional progress function
// receives running byte counts.
func (a *App) fetchBytes(ctx context.Context, rawURL string, progressFn func(bytesWritten, totalBytes int64)) ([]byte, error) {
	var payload []byte
	err := a.retryableRequest(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", a.config.UserAgent)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(resp.Body)
			return &TransportError{
				Status: resp.StatusCode,
				URL:    rawURL,
				Body:   string(body),
			}
		}

		var reader io.Reader = resp.Body
		if progressFn != nil {
			reader = &progressReader{
				reader:     resp.Body,
				total:      resp.ContentLength,
				progressFn: progressFn,
			}
		}

		payload, err = io.ReadAll(reader)
		return err
	})

	return payload, err
}
