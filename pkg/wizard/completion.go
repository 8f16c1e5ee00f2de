// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package wizard

import (
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Completion is the session-wide set of submitted tabs. Create one at
// application start with NewCompletion and hand it to every controller and
// pipeline; it only grows and is never persisted, so a restart begins empty.
type Completion struct {
	mu   sync.RWMutex
	tabs sets.Set[string]
}

// NewCompletion returns an empty completion set.
func NewCompletion() *Completion {
	return &Completion{tabs: sets.New[string]()}
}

// MarkSubmitted records tab as submitted. It returns true the first time.
func (c *Completion) MarkSubmitted(tab string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tabs.Has(tab) {
		return false
	}
	c.tabs.Insert(tab)
	return true
}

// IsSubmitted reports whether tab has been submitted this session.
func (c *Completion) IsSubmitted(tab string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tabs.Has(tab)
}

// Snapshot returns the submitted tabs sorted.
func (c *Completion) Snapshot() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sets.List(c.tabs)
}
