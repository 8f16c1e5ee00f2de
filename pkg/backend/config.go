package backend

import (
	"net/url"
	"strings"
)

// Configuration for backend endpoints.
// This file is the SINGLE SOURCE OF TRUTH for record URLs.

const (
	// DefaultBaseURL is where `lendops dev-backend` listens by default.
	DefaultBaseURL = "http://127.0.0.1:8787"

	// APIPrefix is prepended to every record path.
	APIPrefix = "/v1"

	// RequestIDHeader carries a per-request id for log correlation.
	RequestIDHeader = "X-Request-ID"
)

// RecordPath returns the path of one record: /v1/{resource}/{recordID}.
func RecordPath(resource, recordID string) string {
	return APIPrefix + "/" + url.PathEscape(resource) + "/" + url.PathEscape(recordID)
}

// RecordURL joins base and RecordPath.
func RecordURL(base, resource, recordID string) string {
	return strings.TrimRight(base, "/") + RecordPath(resource, recordID)
}
