// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package wizard tracks which section of a configuration wizard is active
// and which sections have been submitted this session. The active tab is
// an explicit state machine; the location fragment is only where that
// state is serialized.
package wizard

import (
	"strings"

	"github.com/monadic/lendops/pkg/schema"
)

// State is the wizard position.
type State struct {
	Active string
}

// Event drives a transition.
type Event interface {
	event()
}

// SelectTab is the user picking a tab.
type SelectTab struct {
	Tab string
}

// Navigated is an external location change such as going back in history.
type Navigated struct {
	Fragment string
}

// Submitted is a section's submission succeeding.
type Submitted struct {
	Tab string
}

func (SelectTab) event() {}
func (Navigated) event() {}
func (Submitted) event() {}

// Effect tells the caller what to do after a transition.
type Effect struct {
	// WriteFragment asks for the new active tab to be written to the location.
	WriteFragment bool
}

// TabFromFragment strips the leading '#' of a location fragment.
func TabFromFragment(fragment string) string {
	return strings.TrimPrefix(strings.TrimSpace(fragment), "#")
}

// Resolve maps a fragment to a tab of w, falling back to the default tab
// when the fragment is absent or names no section.
func Resolve(w *schema.Wizard, fragment string) string {
	tab := TabFromFragment(fragment)
	if w.HasTab(tab) {
		return tab
	}
	return w.DefaultTab()
}

// Initial returns the state for a wizard mounted at fragment.
func Initial(w *schema.Wizard, fragment string) State {
	return State{Active: Resolve(w, fragment)}
}

// Transition is the pure wizard transition function.
//
// A submission only advances when its tab is still the active one: a late
// success for a section the user already left must not pull them back.
// A section without a next tab stays where it is.
func Transition(w *schema.Wizard, s State, e Event) (State, Effect) {
	switch e := e.(type) {
	case SelectTab:
		if !w.HasTab(e.Tab) {
			return s, Effect{}
		}
		return State{Active: e.Tab}, Effect{WriteFragment: true}

	case Navigated:
		return State{Active: Resolve(w, e.Fragment)}, Effect{}

	case Submitted:
		sec := w.Section(e.Tab)
		if sec == nil || s.Active != e.Tab {
			return s, Effect{}
		}
		next := sec.NextTabID
		if next == "" || !w.HasTab(next) {
			next = e.Tab
		}
		return State{Active: next}, Effect{WriteFragment: true}
	}
	return s, Effect{}
}
