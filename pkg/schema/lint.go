// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package schema

import (
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Lint inspects a wizard definition for authoring defects. It is meant for
// tests and the schema command; the form engine does not guard against a
// misconfigured registry at runtime.
func Lint(w *Wizard) field.ErrorList {
	var errs field.ErrorList
	root := field.NewPath(w.ID)

	if w.Route == "" {
		errs = append(errs, field.Required(root.Child("route"), "wizard needs a route"))
	}
	if w.Resource == "" {
		errs = append(errs, field.Required(root.Child("resource"), "wizard needs a backend resource"))
	}
	if len(w.Sections) == 0 {
		errs = append(errs, field.Required(root.Child("sections"), "wizard has no sections"))
	}

	tabs := sets.New[string]()
	backendKeys := sets.New[string]()
	for i, s := range w.Sections {
		sp := root.Child("sections").Index(i)
		if s.TabID == "" {
			errs = append(errs, field.Required(sp.Child("tab"), ""))
		} else if tabs.Has(s.TabID) {
			errs = append(errs, field.Duplicate(sp.Child("tab"), s.TabID))
		}
		tabs.Insert(s.TabID)

		if s.BackendKey == "" {
			errs = append(errs, field.Required(sp.Child("backend_key"), ""))
		} else if backendKeys.Has(s.BackendKey) {
			errs = append(errs, field.Duplicate(sp.Child("backend_key"), s.BackendKey))
		}
		backendKeys.Insert(s.BackendKey)

		switch s.MandatoryColumn {
		case "", MandatoryEditable, MandatoryFixed, MandatoryHidden:
		default:
			errs = append(errs, field.NotSupported(sp.Child("mandatory_column"), s.MandatoryColumn,
				[]MandatoryColumn{MandatoryEditable, MandatoryFixed, MandatoryHidden}))
		}

		if len(s.Descriptors) == 0 {
			errs = append(errs, field.Required(sp.Child("parameters"), "section has no parameters"))
		}
		errs = append(errs, lintDescriptors(sp.Child("parameters"), s.Descriptors)...)
	}

	for i, s := range w.Sections {
		if s.NextTabID != "" && !tabs.Has(s.NextTabID) {
			errs = append(errs, field.NotFound(root.Child("sections").Index(i).Child("next"), s.NextTabID))
		}
	}
	return errs
}

func lintDescriptors(path *field.Path, descriptors []ParameterDescriptor) field.ErrorList {
	var errs field.ErrorList
	keys := sets.New[string]()
	for i, d := range descriptors {
		dp := path.Index(i)
		if d.Key == "" {
			errs = append(errs, field.Required(dp.Child("key"), ""))
		} else if keys.Has(d.Key) {
			errs = append(errs, field.Duplicate(dp.Child("key"), d.Key))
		}
		keys.Insert(d.Key)

		if d.Name == "" {
			errs = append(errs, field.Required(dp.Child("name"), ""))
		}

		kind := d.ValueKind()
		known := false
		for _, k := range AllKinds {
			if k == kind {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, field.NotSupported(dp.Child("kind"), kind, AllKinds))
			continue
		}

		if kind == KindDropdown {
			if len(d.Options) == 0 {
				errs = append(errs, field.Required(dp.Child("options"), "dropdown needs an option set"))
			}
			values := sets.New[string]()
			for j, o := range d.Options {
				if values.Has(o.Value) {
					errs = append(errs, field.Duplicate(dp.Child("options").Index(j).Child("value"), o.Value))
				}
				values.Insert(o.Value)
			}
		} else {
			if len(d.Options) > 0 {
				errs = append(errs, field.Forbidden(dp.Child("options"), "only dropdown parameters carry options"))
			}
			if d.Multi {
				errs = append(errs, field.Forbidden(dp.Child("multi"), "only dropdown parameters may be multi-select"))
			}
		}
	}
	return errs
}
