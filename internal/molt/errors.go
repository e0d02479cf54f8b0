package molt

import (
	"fmt"
	"net/http"
	"strconv"
)

// APIError is a non-2xx response from the molt-md API. The server answered;
// it just said no. Error() renders the status into agent-readable guidance.
type APIError struct {
	Status int
	Method string
	Path   string
	Detail string
}

func (e *APIError) Error() string {
	return classify(e.Status, e.Detail, e.Method)
}

// TransportError reports that the server could not be reached or produced an
// unreadable response: connection refused, timeout, DNS failure, malformed
// body. Kept distinct from APIError so callers can tell "the server rejected
// the request" apart from "the server never answered".
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// mutating reports whether the verb changes server state. The write-key
// guidance on 403 applies only to these.
func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// classify maps an HTTP failure to diagnostic text an agent can act on.
// Verb-sensitive only for 403. Detail from the server's error body is
// appended in parentheses when present.
func classify(status int, detail, method string) string {
	var msg string
	switch status {
	case http.StatusBadRequest:
		msg = "Bad request: the server rejected the request parameters"
	case http.StatusForbidden:
		if mutating(method) {
			msg = "Permission denied: this operation requires a write key. Supply the item's write key and try again"
		} else {
			msg = "Permission denied: the key is invalid or not authorized for this item"
		}
	case http.StatusNotFound:
		msg = "Not found: the document or workspace does not exist, or is not reachable through the configured workspace"
	case http.StatusConflict:
		msg = "Version conflict: the content changed since it was last read. Re-read it to get the current version, then retry"
	case http.StatusRequestEntityTooLarge:
		msg = "Content too large: documents are limited to 5 MB"
	case http.StatusTooManyRequests:
		msg = "Rate limited: too many requests. Wait a moment before retrying"
	default:
		msg = "Unexpected HTTP " + strconv.Itoa(status) + " response from the molt-md API"
	}
	if detail != "" {
		msg += " (" + detail + ")"
	}
	return msg
}
