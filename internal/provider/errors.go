package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// APIError is the uniform failure channel for a send: protocol-level errors
// carry the platform (code, subcode); network-level failures carry only a
// cause and classify as Transient. Callers never see a raw transport fault.
type APIError struct {
	HTTPStatus int
	Code       int
	Subcode    *int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "api error")

	if e.Code > 0 {
		code := fmt.Sprintf("code=%d", e.Code)
		if e.Subcode != nil {
			code = fmt.Sprintf("code=%d subcode=%d", e.Code, *e.Subcode)
		}
		parts = append(parts, code)
	}
	if e.HTTPStatus > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.HTTPStatus))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Classification derives the retry bucket. Coded errors go through the
// Classify table; codeless errors fall back to the HTTP status, and pure
// network-level failures (no status at all) are Transient.
func (e *APIError) Classification() Classification {
	if e == nil {
		return DeveloperFixable
	}
	if e.Code != 0 {
		return Classify(e.Code, e.Subcode)
	}
	if e.HTTPStatus == 0 || isTransientHTTPStatus(e.HTTPStatus) {
		return Transient
	}
	return DeveloperFixable
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

// IsRetryable reports whether the retry controller may attempt err again.
// Context cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Classification().Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
