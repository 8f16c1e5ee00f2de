// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package schema is the static registry of configurable wizard sections.
// Each wizard is an ordered list of sections, each section an ordered list
// of parameter descriptors. Definitions are author-owned and immutable at
// runtime.
package schema

// ValueKind selects the input behaviour of a parameter.
type ValueKind string

const (
	KindMoney    ValueKind = "money"
	KindPercent  ValueKind = "percent"
	KindDropdown ValueKind = "dropdown"
	KindText     ValueKind = "text"
	KindNumber   ValueKind = "number"
)

// AllKinds lists every kind the registry files may reference.
var AllKinds = []ValueKind{KindMoney, KindPercent, KindDropdown, KindText, KindNumber}

// Option is one selectable dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ParameterDescriptor defines one configurable field.
type ParameterDescriptor struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Kind      ValueKind `json:"kind,omitempty"`
	Options   []Option  `json:"options,omitempty"`
	Multi     bool      `json:"multi,omitempty"`
	Mandatory bool      `json:"mandatory,omitempty"`
}

// ValueKind returns the descriptor's kind; an omitted kind means number.
func (d ParameterDescriptor) ValueKind() ValueKind {
	if d.Kind == "" {
		return KindNumber
	}
	return d.Kind
}

// HasOption reports whether v is one of the descriptor's option values.
func (d ParameterDescriptor) HasOption(v string) bool {
	for _, o := range d.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// OptionValues returns the option values in schema order.
func (d ParameterDescriptor) OptionValues() []string {
	values := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		values = append(values, o.Value)
	}
	return values
}

// OptionLabel returns the label for value v, or v itself when unknown.
func (d ParameterDescriptor) OptionLabel(v string) string {
	for _, o := range d.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// MandatoryColumn controls how a section exposes the per-row mandatory flag.
type MandatoryColumn string

const (
	// MandatoryEditable shows the column and lets the user toggle it.
	MandatoryEditable MandatoryColumn = "editable"
	// MandatoryFixed shows the descriptor default read-only.
	MandatoryFixed MandatoryColumn = "fixed"
	// MandatoryHidden hides the column; every row is mandatory.
	MandatoryHidden MandatoryColumn = "hidden"
)

// Section is one tab of a wizard.
type Section struct {
	TabID           string                `json:"tab"`
	Title           string                `json:"title"`
	Subtitle        string                `json:"subtitle,omitempty"`
	BackendKey      string                `json:"backend_key"`
	Weightage       bool                  `json:"weightage,omitempty"`
	MandatoryColumn MandatoryColumn       `json:"mandatory_column,omitempty"`
	NextTabID       string                `json:"next,omitempty"`
	Descriptors     []ParameterDescriptor `json:"parameters"`
}

// AllMandatory reports whether every row of the section is mandatory by convention.
func (s *Section) AllMandatory() bool {
	return s.MandatoryColumn == MandatoryHidden
}

// MandatoryEditable reports whether rows may toggle their mandatory flag.
func (s *Section) MandatoryEditable() bool {
	return s.MandatoryColumn == "" || s.MandatoryColumn == MandatoryEditable
}

// Descriptor returns the descriptor with the given key.
func (s *Section) Descriptor(key string) (ParameterDescriptor, bool) {
	for _, d := range s.Descriptors {
		if d.Key == key {
			return d, true
		}
	}
	return ParameterDescriptor{}, false
}

// Wizard is a multi-step configuration flow bound to one backend resource.
type Wizard struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Route    string    `json:"route"`
	Resource string    `json:"resource"`
	Sections []Section `json:"sections"`
}

// Section returns the section for tabID. The returned pointer is stable for
// the lifetime of the wizard and is what the form engine uses as identity.
func (w *Wizard) Section(tabID string) *Section {
	for i := range w.Sections {
		if w.Sections[i].TabID == tabID {
			return &w.Sections[i]
		}
	}
	return nil
}

// HasTab reports whether tabID names a section of this wizard.
func (w *Wizard) HasTab(tabID string) bool {
	return w.Section(tabID) != nil
}

// DefaultTab is the first section's tab. It is what an absent or
// unrecognised location fragment resolves to.
func (w *Wizard) DefaultTab() string {
	if len(w.Sections) == 0 {
		return ""
	}
	return w.Sections[0].TabID
}

// Tabs returns tab ids in display order.
func (w *Wizard) Tabs() []string {
	tabs := make([]string, 0, len(w.Sections))
	for _, s := range w.Sections {
		tabs = append(tabs, s.TabID)
	}
	return tabs
}
