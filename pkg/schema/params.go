// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package schema

import "strconv"

// ParamRef locates one parameter within the registry.
type ParamRef struct {
	Wizard     *Wizard
	Section    *Section
	Descriptor ParameterDescriptor
}

// ParamFields lists the names ParamRef.Field answers to.
var ParamFields = []string{"wizard", "resource", "tab", "section", "key", "name", "kind", "multi", "mandatory", "weightage"}

// Field returns a named attribute as a string for filtering.
func (p ParamRef) Field(name string) (string, bool) {
	switch name {
	case "wizard":
		return p.Wizard.ID, true
	case "resource":
		return p.Wizard.Resource, true
	case "tab":
		return p.Section.TabID, true
	case "section":
		return p.Section.BackendKey, true
	case "key":
		return p.Descriptor.Key, true
	case "name":
		return p.Descriptor.Name, true
	case "kind":
		return string(p.Descriptor.ValueKind()), true
	case "multi":
		return strconv.FormatBool(p.Descriptor.Multi), true
	case "mandatory":
		return strconv.FormatBool(p.Descriptor.Mandatory || p.Section.AllMandatory()), true
	case "weightage":
		return strconv.FormatBool(p.Section.Weightage), true
	}
	return "", false
}

// Params returns every parameter of every wizard in load and display order.
func (r *Registry) Params() []ParamRef {
	var out []ParamRef
	for _, w := range r.Wizards() {
		for i := range w.Sections {
			sec := &w.Sections[i]
			for _, d := range sec.Descriptors {
				out = append(out, ParamRef{Wizard: w, Section: sec, Descriptor: d})
			}
		}
	}
	return out
}
