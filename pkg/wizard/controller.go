// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package wizard

import (
	"github.com/monadic/lendops/pkg/schema"
)

// Controller owns the active tab of one wizard screen and keeps it in step
// with a Location.
type Controller struct {
	wizard     *schema.Wizard
	loc        Location
	completion *Completion
	state      State
}

// NewController mounts w at loc. The active tab comes from the location
// fragment; nothing is written back on mount.
func NewController(w *schema.Wizard, loc Location, completion *Completion) *Controller {
	if completion == nil {
		completion = NewCompletion()
	}
	return &Controller{
		wizard:     w,
		loc:        loc,
		completion: completion,
		state:      Initial(w, loc.Fragment()),
	}
}

// Wizard returns the wizard definition.
func (c *Controller) Wizard() *schema.Wizard { return c.wizard }

// Location returns the bound location.
func (c *Controller) Location() Location { return c.loc }

// Completion returns the session completion set.
func (c *Controller) Completion() *Completion { return c.completion }

// Active returns the active tab id.
func (c *Controller) Active() string { return c.state.Active }

// Section returns the active section.
func (c *Controller) Section() *schema.Section {
	return c.wizard.Section(c.state.Active)
}

// Indicator reports whether tab shows its completion mark.
func (c *Controller) Indicator(tab string) bool {
	return c.completion.IsSubmitted(tab)
}

// Select makes tab active and writes it to the location.
// Returns false for a tab the wizard does not have.
func (c *Controller) Select(tab string) bool {
	if !c.wizard.HasTab(tab) {
		return false
	}
	c.apply(SelectTab{Tab: tab})
	return true
}

// Navigated re-reads the location after an external change. The location
// is not written, so history navigation cannot loop.
func (c *Controller) Navigated() {
	c.apply(Navigated{Fragment: c.loc.Fragment()})
}

// Advance records tab as submitted and then moves to its next tab.
// It returns true when the active tab changed.
func (c *Controller) Advance(tab string) bool {
	c.completion.MarkSubmitted(tab)
	before := c.state
	c.apply(Submitted{Tab: tab})
	return c.state != before
}

// SelectOffset moves delta tabs left or right, wrapping around.
func (c *Controller) SelectOffset(delta int) {
	tabs := c.wizard.Tabs()
	if len(tabs) == 0 {
		return
	}
	cur := 0
	for i, t := range tabs {
		if t == c.state.Active {
			cur = i
			break
		}
	}
	next := ((cur+delta)%len(tabs) + len(tabs)) % len(tabs)
	c.Select(tabs[next])
}

func (c *Controller) apply(e Event) {
	next, eff := Transition(c.wizard, c.state, e)
	c.state = next
	if eff.WriteFragment {
		c.loc.SetFragment(next.Active)
	}
}
