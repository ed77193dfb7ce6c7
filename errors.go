package knackpy

import "fmt"

// UnknownTimezoneError indicates a timezone string that matches neither an
// IANA database name nor a known Knack common name.
type UnknownTimezoneError struct {
	Input string
}

func (e *UnknownTimezoneError) Error() string {
	return fmt.Sprintf("unknown timezone %q: expected an IANA timezone database name, see https://en.wikipedia.org/wiki/List_of_tz_database_time_zones", e.Input)
}

// AmbiguousIdentifierError indicates an identifier matching more than one
// container.
type AmbiguousIdentifierError struct {
	Identifier string
	Matches    int
}

func (e *AmbiguousIdentifierError) Error() string {
	return fmt.Sprintf("%d containers match %q: use an object or view key instead", e.Matches, e.Identifier)
}

// UnknownContainerError indicates an identifier matching no container.
type UnknownContainerError struct {
	Identifier string
}

func (e *UnknownContainerError) Error() string {
	return fmt.Sprintf("unknown container %q: inspect App.Containers() for available containers", e.Identifier)
}

// MissingIdentifierError indicates that no identifier was supplied and the
// record cache does not disambiguate to exactly one container.
type MissingIdentifierError struct {
	Cached int
}

func (e *MissingIdentifierError) Error() string {
	if e.Cached == 0 {
		return "missing container identifier and no cached data to infer one from"
	}
	return fmt.Sprintf("missing container identifier: %d containers are cached", e.Cached)
}

// UnknownFieldError indicates a field key or name that does not resolve to a
// field definition on the target object.
type UnknownFieldError struct {
	Field  string
	ObjKey string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field not found: %q on object %q", e.Field, e.ObjKey)
}

// TransportError represents a non-success response from the Knack API.
type TransportError struct {
	Status int
	URL    string
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.Status, e.URL, e.Body)
}

// retryable reports whether the request may succeed on a later attempt.
func (e *TransportError) retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// DownloadError represents a failed attachment transfer. It aborts the
// remaining download batch; files written before the failure stay on disk.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed (status %d): %s", e.Status, e.URL)
}
