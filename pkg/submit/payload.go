// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package submit

import (
	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/schema"
)

// Entry is one parameter in an update body.
type Entry struct {
	Key         string   `json:"key"`
	Value       any      `json:"value"`
	IsMandatory bool     `json:"is_mandatory"`
	Weightage   *float64 `json:"weightage,omitempty"`
}

// Payload is a partial update body: the section's backend key mapped to
// its entries in descriptor order.
type Payload map[string][]Entry

// Entries returns the entries of the single section in p.
func (p Payload) Entries() []Entry {
	for _, entries := range p {
		return entries
	}
	return nil
}

// BuildPayload serializes rows of s. Weightage is only included when the
// section has a weightage column. Money travels as its digit string.
func BuildPayload(s *schema.Section, rows []form.Row) Payload {
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			Key:         r.Parameter,
			Value:       r.Value.Interface(),
			IsMandatory: r.Mandatory,
		}
		if s.Weightage {
			w := r.Weightage
			e.Weightage = &w
		}
		entries = append(entries, e)
	}
	return Payload{s.BackendKey: entries}
}
