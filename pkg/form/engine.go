// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package form is the dynamic configuration table behind every wizard
// section. An Engine derives one editable row per parameter descriptor,
// routes edits through the kind registry and validates the row set before
// it may be submitted.
package form

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/monadic/lendops/pkg/numfmt"
	"github.com/monadic/lendops/pkg/schema"
)

var (
	// ErrLocked is returned for edits while a submission is pending.
	ErrLocked = errors.New("section is locked while a submission is pending")
	// ErrNoSection is returned when no section has been loaded.
	ErrNoSection = errors.New("no section loaded")
	// ErrNoWeightage is returned when the section has no weightage column.
	ErrNoWeightage = errors.New("section has no weightage column")
	// ErrMandatoryFixed is returned when the section does not allow toggling mandatory.
	ErrMandatoryFixed = errors.New("mandatory flag is fixed for this section")
	// ErrNotDropdown is returned by Select on a non-dropdown row.
	ErrNotDropdown = errors.New("parameter is not a dropdown")
)

// Row is the live, editable instance of one parameter descriptor.
type Row struct {
	Parameter string
	Value     Value
	Weightage float64
	Mandatory bool

	// Raw is the last text typed into the row; InputErr is set when Raw did
	// not parse for the row's kind and is cleared by the next good edit.
	Raw      string
	InputErr error
}

// Engine holds the rows of the section currently on screen.
type Engine struct {
	kinds   *Registry
	section *schema.Section
	rows    []Row
	locked  bool
}

// NewEngine creates an engine using kinds, or the default kinds when nil.
func NewEngine(kinds *Registry) *Engine {
	if kinds == nil {
		kinds = DefaultKinds()
	}
	return &Engine{kinds: kinds}
}

// Load binds the engine to s. When s is a different section than the one
// loaded, every in-progress row is discarded and rows are rebuilt from the
// descriptors. Loading the same section again keeps the rows. Returns true
// when a reset happened.
func (e *Engine) Load(s *schema.Section) bool {
	if s == e.section {
		return false
	}
	e.section = s
	e.locked = false
	e.rows = nil
	if s == nil {
		return true
	}

	e.rows = make([]Row, len(s.Descriptors))
	for i, d := range s.Descriptors {
		e.rows[i] = Row{
			Parameter: d.Key,
			Value:     Empty(),
			Mandatory: d.Mandatory || s.AllMandatory(),
		}
	}
	return true
}

// Section returns the loaded section.
func (e *Engine) Section() *schema.Section { return e.section }

// Kinds returns the kind registry in use.
func (e *Engine) Kinds() *Registry { return e.kinds }

// Len returns the number of rows.
func (e *Engine) Len() int { return len(e.rows) }

// Rows returns a copy of the rows in descriptor order.
func (e *Engine) Rows() []Row {
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Row returns row i.
func (e *Engine) Row(i int) (Row, bool) {
	if i < 0 || i >= len(e.rows) {
		return Row{}, false
	}
	return e.rows[i], true
}

// Descriptor returns the descriptor behind row i.
func (e *Engine) Descriptor(i int) schema.ParameterDescriptor {
	return e.section.Descriptors[i]
}

// Index returns the row index for a parameter key, or -1.
func (e *Engine) Index(key string) int {
	for i, r := range e.rows {
		if r.Parameter == key {
			return i
		}
	}
	return -1
}

// Lock disables edits, used while the section's submission is in flight.
func (e *Engine) Lock() { e.locked = true }

// Unlock re-enables edits.
func (e *Engine) Unlock() { e.locked = false }

// Locked reports whether edits are disabled.
func (e *Engine) Locked() bool { return e.locked }

func (e *Engine) editable(i int) error {
	if e.section == nil {
		return ErrNoSection
	}
	if i < 0 || i >= len(e.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", i, len(e.rows))
	}
	if e.locked {
		return ErrLocked
	}
	return nil
}

// SetInput applies raw keyboard input to row i through the row's kind.
// Input that does not parse leaves the row empty with InputErr set, so the
// validation gate reports it; the error is returned as well.
func (e *Engine) SetInput(i int, raw string) error {
	if err := e.editable(i); err != nil {
		return err
	}
	d := e.Descriptor(i)
	row := &e.rows[i]
	row.Raw = raw

	v, err := e.kinds.For(d).Parse(d, raw)
	if err != nil {
		row.Value = Empty()
		row.InputErr = err
		return err
	}
	row.Value = v
	row.InputErr = nil
	return nil
}

// Assign stores v in row i after checking that its shape matches the row's
// kind. Empty values are always accepted.
func (e *Engine) Assign(i int, v Value) error {
	if err := e.editable(i); err != nil {
		return err
	}
	d := e.Descriptor(i)
	if want := e.kinds.For(d).Shape(d); v.Shape() != ShapeEmpty && v.Shape() != want {
		return fmt.Errorf("%s expects a %s value, got %s", d.Key, want, v.Shape())
	}
	e.rows[i].Value = v
	e.rows[i].InputErr = nil
	return nil
}

// Select applies a dropdown choice to row i. A single select replaces the
// stored value; a multi select toggles option in the stored sequence,
// keeping the order in which options were picked.
func (e *Engine) Select(i int, option string) error {
	if err := e.editable(i); err != nil {
		return err
	}
	d := e.Descriptor(i)
	if d.ValueKind() != schema.KindDropdown {
		return ErrNotDropdown
	}
	if !d.HasOption(option) {
		return fmt.Errorf("%q is not an option of %s", option, d.Key)
	}

	row := &e.rows[i]
	row.InputErr = nil
	if !d.Multi {
		row.Value = String(option)
		return nil
	}

	current := row.Value.Items()
	next := make([]string, 0, len(current)+1)
	found := false
	for _, it := range current {
		if it == option {
			found = true
			continue
		}
		next = append(next, it)
	}
	if !found {
		next = append(next, option)
	}
	row.Value = List(next...)
	return nil
}

// SetWeightage applies raw input to row i's weightage, clamped to [0,100].
func (e *Engine) SetWeightage(i int, raw string) error {
	return e.setWeightage(i, numfmt.ParsePercentage(raw))
}

// SetWeightageValue stores n clamped to [0,100].
func (e *Engine) SetWeightageValue(i int, n float64) error {
	return e.setWeightage(i, numfmt.ClampPercentage(n))
}

func (e *Engine) setWeightage(i int, n float64) error {
	if err := e.editable(i); err != nil {
		return err
	}
	if !e.section.Weightage {
		return ErrNoWeightage
	}
	e.rows[i].Weightage = n
	return nil
}

// ToggleMandatory flips row i's mandatory flag when the section allows it.
func (e *Engine) ToggleMandatory(i int) error {
	if err := e.editable(i); err != nil {
		return err
	}
	if !e.section.MandatoryEditable() {
		return ErrMandatoryFixed
	}
	e.rows[i].Mandatory = !e.rows[i].Mandatory
	return nil
}

// SetMandatory sets row i's mandatory flag when the section allows it.
func (e *Engine) SetMandatory(i int, mandatory bool) error {
	if err := e.editable(i); err != nil {
		return err
	}
	if e.rows[i].Mandatory == mandatory {
		return nil
	}
	if !e.section.MandatoryEditable() {
		return ErrMandatoryFixed
	}
	e.rows[i].Mandatory = mandatory
	return nil
}

// Display renders row i's value for the table.
func (e *Engine) Display(i int) string {
	row, ok := e.Row(i)
	if !ok {
		return ""
	}
	if row.InputErr != nil {
		return row.Raw
	}
	d := e.Descriptor(i)
	return e.kinds.For(d).Render(d, row.Value)
}

// Validate runs the submission gate over every row. An empty list means the
// row set may be submitted.
func (e *Engine) Validate() field.ErrorList {
	if e.section == nil {
		return field.ErrorList{field.InternalError(field.NewPath("section"), ErrNoSection)}
	}
	var errs field.ErrorList
	for i := range e.rows {
		errs = append(errs, e.validateRow(i)...)
	}
	return errs
}

// FieldErrors groups validation messages by parameter key for inline display.
func (e *Engine) FieldErrors() map[string][]string {
	out := make(map[string][]string)
	if e.section == nil {
		return out
	}
	for i, r := range e.rows {
		for _, err := range e.validateRow(i) {
			out[r.Parameter] = append(out[r.Parameter], err.ErrorBody())
		}
	}
	return out
}

func (e *Engine) validateRow(i int) field.ErrorList {
	var errs field.ErrorList
	d := e.Descriptor(i)
	row := e.rows[i]
	path := field.NewPath(e.section.BackendKey).Key(row.Parameter)
	valuePath := path.Child("value")
	kind := e.kinds.For(d)

	if row.InputErr != nil {
		errs = append(errs, field.Invalid(valuePath, row.Raw, row.InputErr.Error()))
	} else if !row.Value.IsEmpty() {
		if want := kind.Shape(d); row.Value.Shape() != want {
			errs = append(errs, field.TypeInvalid(valuePath, row.Value.Interface(), "expected a "+want.String()))
		} else {
			errs = append(errs, kind.Validate(valuePath, d, row.Value)...)
		}
	}

	if row.Mandatory && row.InputErr == nil && row.Value.IsEmpty() {
		errs = append(errs, field.Required(valuePath, d.Name+" is mandatory"))
	}

	if e.section.Weightage && (row.Weightage < 0 || row.Weightage > 100) {
		errs = append(errs, field.Invalid(path.Child("weightage"), row.Weightage, "must be between 0 and 100"))
	}
	return errs
}
