// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package clierr provides error classification and user-friendly error formatting for the CLI.
// It helps distinguish between different error types and provides actionable hints.
package clierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/monadic/lendops/pkg/backend"
	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/submit"
)

// Common error types for CLI output.
const (
	TypeNotFound   = "not_found"  // Record or route not found
	TypeForbidden  = "forbidden"  // Missing or rejected credentials
	TypeNetwork    = "network"    // Connection/network errors
	TypeRejected   = "rejected"   // Backend refused the payload
	TypePending    = "pending"    // Section already submitting
	TypeInternal   = "internal"   // Internal/unexpected errors
	TypeValidation = "validation" // Input validation errors
)

func statusCode(err error) int {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsValidation checks if the error came from the submission gate.
func IsValidation(err error) bool {
	var verr *submit.ValidationError
	return errors.As(err, &verr)
}

// IsForbidden checks if the backend refused the credentials.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "unauthorized")
}

// IsNotFound checks if the error indicates a missing record.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusNotFound
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "does not match route")
}

// IsRejected checks if the backend refused the payload itself.
func IsRejected(err error) bool {
	code := statusCode(err)
	return code >= 400 && code < 500 && code != http.StatusUnauthorized &&
		code != http.StatusForbidden && code != http.StatusNotFound
}

// IsNetworkError checks if the error is a connection/network error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "context deadline exceeded")
}

// ClassifyError determines the type of error for appropriate handling.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return TypeValidation
	}
	if errors.Is(err, submit.ErrInFlight) || errors.Is(err, form.ErrLocked) {
		return TypePending
	}
	if IsForbidden(err) {
		return TypeForbidden
	}
	if IsNotFound(err) {
		return TypeNotFound
	}
	if IsRejected(err) {
		return TypeRejected
	}
	if IsNetworkError(err) {
		return TypeNetwork
	}
	return TypeInternal
}

// Pretty formats an error with a user-friendly message and actionable hints.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	errType := ClassifyError(err)
	baseMsg := err.Error()

	switch errType {
	case TypeValidation:
		var verr *submit.ValidationError
		errors.As(err, &verr)
		var b strings.Builder
		fmt.Fprintf(&b, "Section %s cannot be submitted yet:\n", verr.Tab)
		for _, fe := range verr.Errs {
			fmt.Fprintf(&b, "  - %s: %s\n", fe.Field, fe.ErrorBody())
		}
		b.WriteString("\nHint: Fix the highlighted fields and submit again.")
		return b.String()

	case TypePending:
		return fmt.Sprintf("Busy: %s\n\nHint: Wait for the pending submission to finish.", baseMsg)

	case TypeForbidden:
		return fmt.Sprintf("Access denied: %s\n\nHint: Check your API token:\n"+
			"  - Set LENDOPS_TOKEN or token in lendops.yml\n"+
			"  - Or store it in %s", baseMsg, backend.DefaultAuthPath())

	case TypeNotFound:
		return fmt.Sprintf("Not found: %s\n\nHint: Check the record id in --location, e.g. /nbfc/<id>/bre", baseMsg)

	case TypeRejected:
		return fmt.Sprintf("Rejected by backend: %s\n\nHint: The values were kept; correct them and submit again.", baseMsg)

	case TypeNetwork:
		return fmt.Sprintf("Connection error: %s\n\nHint: Check backend connectivity:\n"+
			"  - lendops config show to verify backend.url\n"+
			"  - lendops dev-backend to run a local backend", baseMsg)

	default:
		return fmt.Sprintf("Error: %s", baseMsg)
	}
}

// Short is a single-line message for transient notifications.
func Short(err error) string {
	if err == nil {
		return ""
	}
	switch ClassifyError(err) {
	case TypeValidation:
		var verr *submit.ValidationError
		errors.As(err, &verr)
		return fmt.Sprintf("%d field(s) need attention", len(verr.Errs))
	case TypePending:
		return "Submission already in progress"
	case TypeForbidden:
		return "Access denied, check your token"
	case TypeNotFound:
		return "Record not found"
	case TypeRejected:
		var se *backend.StatusError
		errors.As(err, &se)
		return fmt.Sprintf("Rejected (%d): %s", se.Code, firstLine(se.Body))
	case TypeNetwork:
		return "Backend unreachable"
	default:
		return firstLine(Unwrap(err).Error())
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

// WrapWithHint wraps an error with an additional hint message.
func WrapWithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\n\nHint: %s", err, hint)
}

// NothingFound returns a user-friendly message when a listing has no results.
// This is different from an error - it's a valid "empty" result.
func NothingFound(what string) string {
	return fmt.Sprintf("No %s found matching your criteria.\n\n"+
		"This might mean:\n"+
		"  - The id is misspelled (see lendops schema list)\n"+
		"  - Your filter is too restrictive", what)
}

// Unwrap returns the underlying error, stripping any wrapper.
func Unwrap(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
