// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/monadic/lendops/pkg/numfmt"
	"github.com/monadic/lendops/pkg/schema"
)

// Kind is the input behaviour for one schema.ValueKind.
type Kind interface {
	// Shape is the value shape this kind stores for d.
	Shape(d schema.ParameterDescriptor) Shape

	// Parse turns raw keyboard input into a value of the right shape.
	Parse(d schema.ParameterDescriptor, raw string) (Value, error)

	// Validate checks a stored, non-empty value against d.
	Validate(path *field.Path, d schema.ParameterDescriptor, v Value) field.ErrorList

	// Render formats a value for display.
	Render(d schema.ParameterDescriptor, v Value) string
}

// Registry maps value kinds to their behaviour.
type Registry struct {
	mu    sync.RWMutex
	kinds map[schema.ValueKind]Kind
}

// NewRegistry creates an empty kind registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[schema.ValueKind]Kind)}
}

// Register adds or replaces the behaviour for vk.
func (r *Registry) Register(vk schema.ValueKind, k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[vk] = k
}

// Lookup returns the behaviour for vk.
func (r *Registry) Lookup(vk schema.ValueKind) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[vk]
	return k, ok
}

// For returns the behaviour for a descriptor. Unregistered kinds fall back
// to plain numbers, matching the descriptor default.
func (r *Registry) For(d schema.ParameterDescriptor) Kind {
	if k, ok := r.Lookup(d.ValueKind()); ok {
		return k
	}
	return numberKind{}
}

// DefaultKinds returns a registry with every built-in kind.
func DefaultKinds() *Registry {
	r := NewRegistry()
	r.Register(schema.KindMoney, moneyKind{})
	r.Register(schema.KindPercent, percentKind{})
	r.Register(schema.KindDropdown, dropdownKind{})
	r.Register(schema.KindText, textKind{})
	r.Register(schema.KindNumber, numberKind{})
	return r
}

// moneyKind stores amounts as digit strings and displays them grouped.
type moneyKind struct{}

func (moneyKind) Shape(schema.ParameterDescriptor) Shape { return ShapeString }

func (moneyKind) Parse(_ schema.ParameterDescriptor, raw string) (Value, error) {
	digits := numfmt.StripNonDigits(raw)
	if digits == "" {
		return Empty(), nil
	}
	return String(digits), nil
}

func (moneyKind) Validate(path *field.Path, _ schema.ParameterDescriptor, v Value) field.ErrorList {
	s, _ := v.Str()
	if numfmt.StripNonDigits(s) != s {
		return field.ErrorList{field.Invalid(path, s, "amount must contain digits only")}
	}
	return nil
}

func (moneyKind) Render(_ schema.ParameterDescriptor, v Value) string {
	s, _ := v.Str()
	return numfmt.FormatRupees(s)
}

// percentKind clamps on entry, so out-of-range input never becomes an error.
type percentKind struct{}

func (percentKind) Shape(schema.ParameterDescriptor) Shape { return ShapeNumber }

func (percentKind) Parse(_ schema.ParameterDescriptor, raw string) (Value, error) {
	if strings.TrimSpace(raw) == "" {
		return Empty(), nil
	}
	return Number(numfmt.ParsePercentage(raw)), nil
}

func (percentKind) Validate(path *field.Path, _ schema.ParameterDescriptor, v Value) field.ErrorList {
	n, _ := v.Num()
	if n < 0 || n > 100 {
		return field.ErrorList{field.Invalid(path, n, "must be between 0 and 100")}
	}
	return nil
}

func (percentKind) Render(_ schema.ParameterDescriptor, v Value) string {
	n, ok := v.Num()
	if !ok {
		return ""
	}
	return numfmt.FormatPercent(n) + "%"
}

// dropdownKind covers single and multi select; Multi picks the shape.
type dropdownKind struct{}

func (dropdownKind) Shape(d schema.ParameterDescriptor) Shape {
	if d.Multi {
		return ShapeList
	}
	return ShapeString
}

func (dropdownKind) Parse(d schema.ParameterDescriptor, raw string) (Value, error) {
	if !d.Multi {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return Empty(), nil
		}
		if !d.HasOption(raw) {
			return Empty(), fmt.Errorf("%q is not one of %s", raw, strings.Join(d.OptionValues(), ", "))
		}
		return String(raw), nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !d.HasOption(part) {
			return Empty(), fmt.Errorf("%q is not one of %s", part, strings.Join(d.OptionValues(), ", "))
		}
		if !containsString(items, part) {
			items = append(items, part)
		}
	}
	return List(items...), nil
}

func (dropdownKind) Validate(path *field.Path, d schema.ParameterDescriptor, v Value) field.ErrorList {
	var errs field.ErrorList
	if s, ok := v.Str(); ok {
		if !d.HasOption(s) {
			errs = append(errs, field.NotSupported(path, s, d.OptionValues()))
		}
		return errs
	}
	for i, item := range v.Items() {
		if !d.HasOption(item) {
			errs = append(errs, field.NotSupported(path.Index(i), item, d.OptionValues()))
		}
	}
	return errs
}

func (dropdownKind) Render(d schema.ParameterDescriptor, v Value) string {
	if s, ok := v.Str(); ok {
		return d.OptionLabel(s)
	}
	items := v.Items()
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, d.OptionLabel(it))
	}
	return strings.Join(labels, ", ")
}

// textKind stores input verbatim.
type textKind struct{}

func (textKind) Shape(schema.ParameterDescriptor) Shape { return ShapeString }

func (textKind) Parse(_ schema.ParameterDescriptor, raw string) (Value, error) {
	if raw == "" {
		return Empty(), nil
	}
	return String(raw), nil
}

func (textKind) Validate(*field.Path, schema.ParameterDescriptor, Value) field.ErrorList {
	return nil
}

func (textKind) Render(_ schema.ParameterDescriptor, v Value) string {
	s, _ := v.Str()
	return s
}

// numberKind is the default kind.
type numberKind struct{}

func (numberKind) Shape(schema.ParameterDescriptor) Shape { return ShapeNumber }

func (numberKind) Parse(_ schema.ParameterDescriptor, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Empty(), nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Empty(), fmt.Errorf("%q is not a number", raw)
	}
	return Number(n), nil
}

func (numberKind) Validate(*field.Path, schema.ParameterDescriptor, Value) field.ErrorList {
	return nil
}

func (numberKind) Render(_ schema.ParameterDescriptor, v Value) string {
	n, ok := v.Num()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func containsString(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
