package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoToken is returned by protected calls made without a session token.
	ErrNoToken = errors.New("no session token")
	// ErrEmptyPDF is returned when PDF generation succeeds with no bytes.
	ErrEmptyPDF = errors.New("the backend returned an empty PDF")
	// ErrPDFTooLarge is returned when a generated PDF exceeds the size cap.
	ErrPDFTooLarge = errors.New("the generated PDF is too large")
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	// FromBackend is set when Message came from the backend's {"error": ...} body.
	FromBackend bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsAuthRejected reports whether err means the session is not usable: the
// backend answered 401/403, or there was no token to send.
func IsAuthRejected(err error) bool {
	return errors.Is(err, ErrNoToken) ||
		IsStatus(err, http.StatusUnauthorized) ||
		IsStatus(err, http.StatusForbidden)
}

// UserMessage returns the text to show a user for err: the backend's own
// error message when it sent one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.FromBackend {
		return httpErr.Message
	}
	return fallback
}

// Reason returns a short description of err for notifications: the HTTP
// message for backend errors, the sentinel text for this package's own
// errors, the full error text otherwise.
func Reason(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	for _, e := range []error{ErrEmptyPDF, ErrPDFTooLarge, ErrNoToken} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return err.Error()
}
