// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/numfmt"
	"github.com/monadic/lendops/pkg/schema"
)

// ValueSpec is one parameter in a values file. It is either a bare value
// (scalar or list) or a mapping with value, weightage and mandatory.
type ValueSpec struct {
	Value     *yaml.Node
	Weightage *float64
	Mandatory *bool
}

func (v *ValueSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		v.Value = node
		return nil
	}
	var full struct {
		Value     yaml.Node `yaml:"value"`
		Weightage *float64  `yaml:"weightage"`
		Mandatory *bool     `yaml:"mandatory"`
	}
	if err := node.Decode(&full); err != nil {
		return err
	}
	if full.Value.Kind != 0 {
		v.Value = &full.Value
	}
	v.Weightage = full.Weightage
	v.Mandatory = full.Mandatory
	return nil
}

// ValuesFile maps tab id to parameter key to value.
type ValuesFile map[string]map[string]ValueSpec

// LoadValuesFile reads a values file.
func LoadValuesFile(path string) (ValuesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	var vf ValuesFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse values %s: %w", path, err)
	}
	return vf, nil
}

// Check reports tabs and parameters that w does not define.
func (vf ValuesFile) Check(w *schema.Wizard) error {
	var errs []error
	for tab, params := range vf {
		sec := w.Section(tab)
		if sec == nil {
			errs = append(errs, fmt.Errorf("unknown section %q (have %v)", tab, w.Tabs()))
			continue
		}
		for key := range params {
			if _, ok := sec.Descriptor(key); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown parameter %q", tab, key))
			}
		}
	}
	return errors.Join(errs...)
}

// applyValues feeds one section's values into the engine the same way the
// TUI does: through the row's kind, with clamping and toggling.
func applyValues(e *form.Engine, params map[string]ValueSpec) error {
	var errs []error
	for key, vs := range params {
		i := e.Index(key)
		if i < 0 {
			errs = append(errs, fmt.Errorf("unknown parameter %q", key))
			continue
		}
		if vs.Value != nil {
			if err := applyValue(e, i, vs.Value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
		if vs.Weightage != nil {
			if err := e.SetWeightageValue(i, *vs.Weightage); err != nil {
				errs = append(errs, fmt.Errorf("%s weightage: %w", key, err))
			}
		}
		if vs.Mandatory != nil {
			if err := e.SetMandatory(i, *vs.Mandatory); err != nil {
				errs = append(errs, fmt.Errorf("%s mandatory: %w", key, err))
			}
		}
	}
	return errors.Join(errs...)
}

func applyValue(e *form.Engine, i int, node *yaml.Node) error {
	d := e.Descriptor(i)
	switch node.Kind {
	case yaml.SequenceNode:
		if d.ValueKind() != schema.KindDropdown || !d.Multi {
			return fmt.Errorf("a list is only valid for a multi-select dropdown")
		}
		for _, item := range node.Content {
			if err := e.Select(i, item.Value); err != nil {
				return err
			}
		}
		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return e.Assign(i, form.Empty())
		}
		switch {
		case d.ValueKind() == schema.KindDropdown && !d.Multi:
			return e.Select(i, node.Value)
		case d.ValueKind() == schema.KindMoney && !wholeRupees(node.Value):
			return fmt.Errorf("amount %q must be a whole number of rupees", node.Value)
		}
		return e.SetInput(i, node.Value)
	}
	return fmt.Errorf("unsupported value at line %d", node.Line)
}

// wholeRupees accepts digits with optional grouping commas.
func wholeRupees(v string) bool {
	digits := strings.ReplaceAll(v, ",", "")
	return digits != "" && numfmt.StripNonDigits(digits) == digits
}
