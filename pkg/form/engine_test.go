// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/monadic/lendops/pkg/schema"
)

func testSection() *schema.Section {
	return &schema.Section{
		TabID:           "bureau",
		Title:           "Bureau",
		BackendKey:      "bureau_rules",
		Weightage:       true,
		MandatoryColumn: schema.MandatoryEditable,
		NextTabID:       "banking",
		Descriptors: []schema.ParameterDescriptor{
			{Key: "income", Name: "Income", Kind: schema.KindMoney, Mandatory: true},
			{Key: "foir", Name: "FOIR", Kind: schema.KindPercent},
			{Key: "one", Name: "One", Kind: schema.KindDropdown, Options: abOptions},
			{Key: "many", Name: "Many", Kind: schema.KindDropdown, Multi: true, Options: abOptions},
		},
	}
}

func otherSection() *schema.Section {
	return &schema.Section{
		TabID:           "banking",
		Title:           "Banking",
		BackendKey:      "banking_rules",
		MandatoryColumn: schema.MandatoryHidden,
		Descriptors: []schema.ParameterDescriptor{
			{Key: "note", Name: "Note", Kind: schema.KindText},
			{Key: "score", Name: "Score"},
		},
	}
}

func TestEngineRowsFollowSection(t *testing.T) {
	e := NewEngine(nil)
	first := testSection()

	assert.True(t, e.Load(first))
	assert.Equal(t, len(first.Descriptors), e.Len())
	for i, r := range e.Rows() {
		assert.Equal(t, first.Descriptors[i].Key, r.Parameter)
		assert.True(t, r.Value.IsEmpty(), "rows start empty")
		assert.Equal(t, 0.0, r.Weightage)
	}
	assert.True(t, e.Rows()[0].Mandatory)
	assert.False(t, e.Rows()[1].Mandatory)

	require.NoError(t, e.SetInput(0, "75000"))

	// same section identity keeps edits
	assert.False(t, e.Load(first))
	assert.Equal(t, "₹75,000", e.Display(0))

	// switching sections discards row state
	second := otherSection()
	assert.True(t, e.Load(second))
	assert.Equal(t, 2, e.Len())
	for _, r := range e.Rows() {
		assert.True(t, r.Value.IsEmpty())
		assert.True(t, r.Mandatory, "hidden mandatory column means every row is mandatory")
	}

	// coming back reinitialises rather than restoring
	assert.True(t, e.Load(first))
	assert.Equal(t, 4, e.Len())
	assert.True(t, e.Rows()[0].Value.IsEmpty())
}

func TestEngineMoneyScenario(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())

	require.NoError(t, e.SetInput(0, "75000"))
	row, _ := e.Row(0)
	s, ok := row.Value.Str()
	require.True(t, ok)
	assert.Equal(t, "75000", s)
	assert.Equal(t, "₹75,000", e.Display(0))

	// keystrokes with separators are stripped before storage
	require.NoError(t, e.SetInput(0, "1,00,0000"))
	row, _ = e.Row(0)
	s, _ = row.Value.Str()
	assert.Equal(t, "1000000", s)
	assert.Equal(t, "₹10,00,000", e.Display(0))
}

func TestEngineMultiSelectScenario(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())
	idx := e.Index("many")
	require.Equal(t, 3, idx)

	require.NoError(t, e.Select(idx, "A"))
	require.NoError(t, e.Select(idx, "B"))
	row, _ := e.Row(idx)
	assert.Equal(t, []string{"A", "B"}, row.Value.Items())

	require.NoError(t, e.Select(idx, "A"))
	row, _ = e.Row(idx)
	assert.Equal(t, []string{"B"}, row.Value.Items())

	assert.Error(t, e.Select(idx, "Z"))
}

func TestEngineSingleDropdownNeverHoldsList(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())
	idx := e.Index("one")

	for _, opt := range []string{"A", "B", "A", "B"} {
		require.NoError(t, e.Select(idx, opt))
		row, _ := e.Row(idx)
		assert.Equal(t, ShapeString, row.Value.Shape())
	}
	row, _ := e.Row(idx)
	s, _ := row.Value.Str()
	assert.Equal(t, "B", s)

	err := e.Assign(idx, List("A", "B"))
	assert.Error(t, err)
	row, _ = e.Row(idx)
	assert.Equal(t, ShapeString, row.Value.Shape())

	// comma input is not a valid single option
	assert.Error(t, e.SetInput(idx, "A,B"))
	row, _ = e.Row(idx)
	assert.NotEqual(t, ShapeList, row.Value.Shape())
}

func TestEngineWeightageClamps(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())

	require.NoError(t, e.SetWeightage(0, "150"))
	row, _ := e.Row(0)
	assert.Equal(t, 100.0, row.Weightage)

	require.NoError(t, e.SetWeightage(0, "-5"))
	row, _ = e.Row(0)
	assert.Equal(t, 0.0, row.Weightage)

	require.NoError(t, e.SetWeightageValue(0, 33.3))
	row, _ = e.Row(0)
	assert.Equal(t, 33.3, row.Weightage)

	e.Load(otherSection())
	assert.ErrorIs(t, e.SetWeightage(0, "10"), ErrNoWeightage)
}

func TestEnginePercentClamps(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())
	require.NoError(t, e.SetInput(1, "250"))
	row, _ := e.Row(1)
	n, _ := row.Value.Num()
	assert.Equal(t, 100.0, n)
	assert.Empty(t, e.FieldErrors()["foir"])
}

func TestEngineMandatoryToggle(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())
	require.NoError(t, e.ToggleMandatory(1))
	row, _ := e.Row(1)
	assert.True(t, row.Mandatory)

	e.Load(otherSection())
	assert.ErrorIs(t, e.ToggleMandatory(0), ErrMandatoryFixed)
	assert.NoError(t, e.SetMandatory(0, true), "setting the current value is a no-op")
}

func TestEngineValidationGate(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())

	errs := e.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, field.ErrorTypeRequired, errs[0].Type)
	assert.Equal(t, "bureau_rules[income].value", errs[0].Field)

	require.NoError(t, e.SetInput(0, "75000"))
	assert.Empty(t, e.Validate())

	// a mandatory multi select with no options picked blocks submission
	require.NoError(t, e.SetMandatory(3, true))
	assert.Len(t, e.Validate(), 1)
	require.NoError(t, e.Select(3, "A"))
	require.NoError(t, e.Select(3, "A"))
	assert.Len(t, e.Validate(), 1)
	require.NoError(t, e.Select(3, "B"))
	assert.Empty(t, e.Validate())
}

func TestEngineInputErrorsSurfaceInline(t *testing.T) {
	e := NewEngine(nil)
	e.Load(otherSection())

	err := e.SetInput(1, "seven")
	require.Error(t, err)
	assert.Equal(t, "seven", e.Display(1))

	fe := e.FieldErrors()
	require.Len(t, fe["score"], 1)
	assert.Contains(t, fe["score"][0], "not a number")

	errs := e.Validate()
	// note is mandatory and empty, score carries an input error
	assert.Len(t, errs, 2)

	require.NoError(t, e.SetInput(1, "7"))
	require.NoError(t, e.SetInput(0, "ok"))
	assert.Empty(t, e.Validate())
}

func TestEngineLock(t *testing.T) {
	e := NewEngine(nil)
	e.Load(testSection())
	e.Lock()
	assert.True(t, e.Locked())
	assert.ErrorIs(t, e.SetInput(0, "1"), ErrLocked)
	assert.ErrorIs(t, e.Select(2, "A"), ErrLocked)
	assert.ErrorIs(t, e.SetWeightage(0, "1"), ErrLocked)
	assert.ErrorIs(t, e.ToggleMandatory(0), ErrLocked)

	e.Unlock()
	assert.NoError(t, e.SetInput(0, "1"))

	// switching sections never leaves the new section locked
	e.Lock()
	e.Load(otherSection())
	assert.False(t, e.Locked())
}

func TestEngineWithoutSection(t *testing.T) {
	e := NewEngine(nil)
	assert.ErrorIs(t, e.SetInput(0, "1"), ErrNoSection)
	assert.Len(t, e.Validate(), 1)
	assert.Empty(t, e.FieldErrors())
	assert.Equal(t, 0, e.Len())
}

func TestEngineRowCountMatchesRegistry(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)

	e := NewEngine(nil)
	for _, w := range reg.Wizards() {
		for i := range w.Sections {
			s := &w.Sections[i]
			e.Load(s)
			assert.Equal(t, len(s.Descriptors), e.Len(), "%s/%s", w.ID, s.TabID)
		}
	}
}
