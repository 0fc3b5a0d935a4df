package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidResponse     = errors.New("invalid response from parsing service")
	ErrPollTimeout         = errors.New("gave up waiting: attempt budget exhausted")
	ErrPollCanceled        = errors.New("polling canceled")
	ErrEnvironmentMismatch = errors.New("cached data does not match the current environment")
	ErrAdminTokenMissing   = errors.New("admin mode is enabled but no admin token is stored")
	ErrAdminTokenExpired   = errors.New("admin token has expired")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// TransportError reports that no HTTP response was received (network, DNS, connection reset).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response. Detail carries the server's `detail` message when present.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parsing service error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("parsing service error (status %d %s)", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// SubmissionError wraps the cause of a failed submission. Submissions are never retried.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	var httpErr *HTTPError
	if errors.As(e.Err, &httpErr) {
		if httpErr.Detail != "" {
			return "submission failed: " + httpErr.Detail
		}
		return fmt.Sprintf("submission failed: status %d", httpErr.Status)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
