// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package clierr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/monadic/lendops/pkg/backend"
	"github.com/monadic/lendops/pkg/submit"
)

func status(code int, body string) error {
	return fmt.Errorf("submit income: %w", &backend.StatusError{Method: "PATCH", URL: "http://x/v1/bre-config/1", Code: code, Body: body})
}

func validationErr() error {
	return &submit.ValidationError{
		Tab: "income",
		Errs: field.ErrorList{
			field.Required(field.NewPath("income_rules").Key("income").Child("value"), "Income is mandatory"),
		},
	}
}

func TestIsForbidden(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "401 from backend",
			err:      status(401, ""),
			expected: true,
		},
		{
			name:     "403 from backend",
			err:      status(403, "nope"),
			expected: true,
		},
		{
			name:     "422 from backend",
			err:      status(422, "forbidden value"),
			expected: false,
		},
		{
			name:     "error with access denied",
			err:      errors.New("access denied to record"),
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsForbidden(tt.err)
			if got != tt.expected {
				t.Errorf("IsForbidden() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:8787: connection refused"),
			expected: true,
		},
		{
			name:     "wrapped deadline",
			err:      fmt.Errorf("PATCH x: %w", context.DeadlineExceeded),
			expected: true,
		},
		{
			name:     "i/o timeout",
			err:      errors.New("read tcp 192.168.1.1:443: i/o timeout"),
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNetworkError(tt.err)
			if got != tt.expected {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"validation", validationErr(), TypeValidation},
		{"in flight", fmt.Errorf("x: %w", submit.ErrInFlight), TypePending},
		{"forbidden", status(403, ""), TypeForbidden},
		{"not found", status(404, ""), TypeNotFound},
		{"rejected", status(422, `{"error":"bad"}`), TypeRejected},
		{"conflict", status(409, ""), TypeRejected},
		{"server error", status(500, "boom"), TypeInternal},
		{"network error", errors.New("connection refused"), TypeNetwork},
		{"internal error", errors.New("unexpected error"), TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got != tt.expected {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantContain string
	}{
		{
			name:        "nil error",
			err:         nil,
			wantContain: "",
		},
		{
			name:        "validation lists fields",
			err:         validationErr(),
			wantContain: "income_rules[income].value",
		},
		{
			name:        "forbidden error includes token hint",
			err:         status(401, ""),
			wantContain: "LENDOPS_TOKEN",
		},
		{
			name:        "rejected keeps values",
			err:         status(422, "bad"),
			wantContain: "values were kept",
		},
		{
			name:        "network error includes connectivity hint",
			err:         errors.New("connection refused"),
			wantContain: "backend connectivity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pretty(tt.err)
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("Pretty() = %q, want to contain %q", got, tt.wantContain)
			}
		})
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{validationErr(), "1 field(s) need attention"},
		{status(422, "income_rules: bad value\nmore"), "Rejected (422): income_rules: bad value"},
		{errors.New("dial tcp: connection refused"), "Backend unreachable"},
		{fmt.Errorf("outer: %w", errors.New("inner")), "inner"},
	}
	for _, tt := range tests {
		if got := Short(tt.err); got != tt.want {
			t.Errorf("Short(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWrapWithHint(t *testing.T) {
	base := errors.New("base")
	err := WrapWithHint(base, "try again")
	if !errors.Is(err, base) {
		t.Errorf("WrapWithHint() lost the wrapped error")
	}
	if !strings.Contains(err.Error(), "Hint: try again") {
		t.Errorf("WrapWithHint() = %q", err.Error())
	}
	if WrapWithHint(nil, "x") != nil {
		t.Errorf("WrapWithHint(nil) should be nil")
	}
}

func TestNothingFound(t *testing.T) {
	result := NothingFound("wizards")
	if !strings.Contains(result, "wizards") {
		t.Errorf("NothingFound() should contain resource name")
	}
	if !strings.HasPrefix(result, "No ") {
		t.Errorf("NothingFound() should start with 'No '")
	}
}
