// Package problem builds RFC 9457 problem documents. Every error response
// in the display system uses the one Document shape, validation rejections
// and internal failures alike, so clients can share a single error handler
// and branch on Status for retry behavior.
package problem

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/glowsign/display-app/internal/message"
)

// ContentType is the media type for problem documents.
const ContentType = "application/problem+json"

// Problem type URIs. The URI identifies the error kind; clients match on it
// rather than on the human-readable title.
const (
	TypeInvalidMessage      = "https://glowsign.dev/problems/invalid-display-message"
	TypeRegistryUnavailable = "https://glowsign.dev/problems/icon-registry-unavailable"
	TypeInvalidRequest      = "https://glowsign.dev/problems/invalid-request"
	TypeRateLimited         = "https://glowsign.dev/problems/rate-limited"
	TypeInternal            = "https://glowsign.dev/problems/internal"
)

// Document is an RFC 9457 problem details document with a violations
// extension member. Violations is populated only for validation failures;
// internal failures carry the same document shape without it.
type Document struct {
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	Status     int                 `json:"status"`
	Detail     string              `json:"detail"`
	Instance   string              `json:"instance"`
	Violations []message.Violation `json:"violations,omitempty"`
}

// FromResult maps a rejected validation result to a 400 problem document.
// The violations are carried through in message order. instance identifies
// the failed request (e.g. "urn:uuid:...").
func FromResult(result message.Result, instance string) *Document {
	n := len(result.Violations)
	noun := "violations"
	if n == 1 {
		noun = "violation"
	}
	return &Document{
		Type:       TypeInvalidMessage,
		Title:      "Invalid display message",
		Status:     http.StatusBadRequest,
		Detail:     fmt.Sprintf("message failed validation with %d %s", n, noun),
		Instance:   instance,
		Violations: result.Violations,
	}
}

// RegistryUnavailable maps an icon source outage (with no usable cached
// snapshot) to a 500 problem document. The condition is not caller-
// recoverable; a retry after backoff is appropriate.
func RegistryUnavailable(instance string) *Document {
	return &Document{
		Type:     TypeRegistryUnavailable,
		Title:    "Icon registry unavailable",
		Status:   http.StatusInternalServerError,
		Detail:   "the icon source is unreachable and no cached snapshot exists",
		Instance: instance,
	}
}

// InvalidRequest maps a malformed request (bad JSON, missing body) to a
// 400 problem document.
func InvalidRequest(detail, instance string) *Document {
	return &Document{
		Type:     TypeInvalidRequest,
		Title:    "Invalid request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	}
}

// RateLimited maps a throttled submission to a 429 problem document.
func RateLimited(instance string) *Document {
	return &Document{
		Type:     TypeRateLimited,
		Title:    "Too many display submissions",
		Status:   http.StatusTooManyRequests,
		Detail:   "display submission rate limit exceeded, retry shortly",
		Instance: instance,
	}
}

// Internal maps an unexpected server-side failure to a 500 problem
// document.
func Internal(detail, instance string) *Document {
	return &Document{
		Type:     TypeInternal,
		Title:    "Internal error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	}
}

// Write serializes the document to w with its status code and the
// problem+json content type.
func (d *Document) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		log.Printf("[problem] encode response: %v", err)
	}
}
