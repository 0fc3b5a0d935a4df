package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/middleware"
	"docdesk/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response for work that continues in the background.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Errors from the parsing service are reported as gateway errors; their detail is passed on.
func MapDomainError(err error) (status int, code, msg string) {
	var (
		subErr  *domain.SubmissionError
		httpErr *domain.HTTPError
		netErr  *domain.TransportError
	)
	switch {
	case errors.As(err, &subErr):
		return http.StatusBadGateway, "SUBMISSION_FAILED", subErr.Error()
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, jpeg, png, csv, xlsx, xls, json"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, domain.ErrAdminTokenMissing):
		return http.StatusUnauthorized, "ADMIN_TOKEN_MISSING", "admin mode is enabled but no admin token is stored"
	case errors.Is(err, domain.ErrAdminTokenExpired):
		return http.StatusUnauthorized, "ADMIN_TOKEN_EXPIRED", "admin token has expired"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout, "POLL_TIMEOUT", "gave up waiting for the parsing service"
	case errors.Is(err, domain.ErrPollCanceled):
		return http.StatusConflict, "POLL_CANCELED", "polling was stopped"
	case errors.Is(err, domain.ErrInvalidResponse):
		return http.StatusBadGateway, "INVALID_UPSTREAM_RESPONSE", "the parsing service returned an unreadable response"
	case errors.As(err, &httpErr):
		switch httpErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return http.StatusBadGateway, "UPSTREAM_REJECTED_CREDENTIAL", httpErr.Error()
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED", httpErr.Error()
		}
		return http.StatusBadGateway, "UPSTREAM_ERROR", httpErr.Error()
	case errors.As(err, &netErr):
		return http.StatusBadGateway, "UPSTREAM_UNREACHABLE", "the parsing service could not be reached"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// ErrorMessage is the user-facing message for err, as carried in view model error flags.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	_, _, msg := MapDomainError(err)
	if msg == "an internal error occurred" {
		return err.Error()
	}
	return msg
}

// clientContext extracts the per-request client context.
// Returns false if it is missing (error response already written).
func clientContext(c *gin.Context) (*service.ClientContext, bool) {
	cc, ok := middleware.GetClientContext(c)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "client context missing")
		return nil, false
	}
	return cc, true
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get(middleware.ContextKeyRequestID)
		log.Printf("[%s] %s: %v", requestID, code, err)
	}
	RespondError(c, status, code, msg)
}
