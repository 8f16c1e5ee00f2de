// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"sigs.k8s.io/yaml"
)

//go:embed wizards/*.yaml
var builtin embed.FS

// Registry holds wizard definitions keyed by id.
type Registry struct {
	wizards map[string]*Wizard
	order   []string
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded wizard definitions.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(builtin, "wizards")
	})
	return defaultReg, defaultErr
}

// Load reads every *.yaml file under dir in fsys as one wizard definition.
func Load(fsys fs.FS, dir string) (*Registry, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list wizard files: %w", err)
	}
	sort.Strings(matches)

	r := &Registry{wizards: make(map[string]*Wizard)}
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		w, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if err := r.Add(w); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return r, nil
}

// Parse decodes a single wizard definition.
func Parse(data []byte) (*Wizard, error) {
	var w Wizard
	if err := yaml.UnmarshalStrict(data, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, fmt.Errorf("wizard id is required")
	}
	return &w, nil
}

// Add registers w. Ids must be unique.
func (r *Registry) Add(w *Wizard) error {
	if _, ok := r.wizards[w.ID]; ok {
		return fmt.Errorf("duplicate wizard id %q", w.ID)
	}
	r.wizards[w.ID] = w
	r.order = append(r.order, w.ID)
	return nil
}

// Wizard returns the wizard with the given id.
func (r *Registry) Wizard(id string) (*Wizard, bool) {
	w, ok := r.wizards[id]
	return w, ok
}

// Wizards returns all wizards in load order.
func (r *Registry) Wizards() []*Wizard {
	out := make([]*Wizard, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.wizards[id])
	}
	return out
}

// IDs returns the registered wizard ids in load order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
