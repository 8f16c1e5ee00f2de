// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package wizard

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Location is the navigable address of the current screen.
type Location interface {
	Path() string
	Fragment() string
	SetFragment(fragment string)
}

// URLLocation is an in-process location with a back stack.
type URLLocation struct {
	mu      sync.Mutex
	current url.URL
	history []url.URL
}

// ParseLocation parses a location such as "/nbfc/42/bre#banking".
func ParseLocation(raw string) (*URLLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", raw, err)
	}
	return &URLLocation{current: *u}, nil
}

// Path returns the location path.
func (l *URLLocation) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Path
}

// Fragment returns the fragment without '#'.
func (l *URLLocation) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Fragment
}

// SetFragment records the current location in history and moves to the
// same path with a new fragment. Writing the fragment already shown is a no-op.
func (l *URLLocation) SetFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fragment = TabFromFragment(fragment)
	if l.current.Fragment == fragment {
		return
	}
	l.history = append(l.history, l.current)
	l.current.Fragment = fragment
}

// Back returns to the previous location. It reports false when there is
// no history left.
func (l *URLLocation) Back() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) == 0 {
		return false
	}
	l.current = l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]
	return true
}

// Depth returns the number of history entries.
func (l *URLLocation) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// String renders the location.
func (l *URLLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.String()
}

// RecordID extracts the {id} segment of route from path, e.g. route
// "/nbfc/{id}/bre" and path "/nbfc/42/bre" give "42".
func RecordID(route, path string) (string, error) {
	want := strings.Split(strings.Trim(route, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return "", fmt.Errorf("location %q does not match route %q", path, route)
	}

	id := ""
	for i, seg := range want {
		if seg == "{id}" {
			id = got[i]
			continue
		}
		if seg != got[i] {
			return "", fmt.Errorf("location %q does not match route %q", path, route)
		}
	}
	if id == "" {
		return "", fmt.Errorf("location %q carries no record id", path)
	}
	return id, nil
}

// RoutePath fills the {id} segment of route.
func RoutePath(route, id string) string {
	return strings.Replace(route, "{id}", url.PathEscape(id), 1)
}
