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

var (
	abOptions = []schema.Option{{Label: "Alpha", Value: "A"}, {Label: "Beta", Value: "B"}}

	moneyDesc  = schema.ParameterDescriptor{Key: "income", Name: "Income", Kind: schema.KindMoney}
	pctDesc    = schema.ParameterDescriptor{Key: "foir", Name: "FOIR", Kind: schema.KindPercent}
	singleDesc = schema.ParameterDescriptor{Key: "one", Name: "One", Kind: schema.KindDropdown, Options: abOptions}
	multiDesc  = schema.ParameterDescriptor{Key: "many", Name: "Many", Kind: schema.KindDropdown, Multi: true, Options: abOptions}
	textDesc   = schema.ParameterDescriptor{Key: "note", Name: "Note", Kind: schema.KindText}
	numDesc    = schema.ParameterDescriptor{Key: "score", Name: "Score"}
)

func TestKindParse(t *testing.T) {
	kinds := DefaultKinds()

	tests := []struct {
		name    string
		desc    schema.ParameterDescriptor
		raw     string
		want    Value
		wantErr bool
	}{
		{name: "money strips separators", desc: moneyDesc, raw: "75,000", want: String("75000")},
		{name: "money strips symbol", desc: moneyDesc, raw: "₹1,00,000", want: String("100000")},
		{name: "money empty", desc: moneyDesc, raw: "abc", want: Empty()},
		{name: "percent in range", desc: pctDesc, raw: "45.5", want: Number(45.5)},
		{name: "percent above", desc: pctDesc, raw: "150", want: Number(100)},
		{name: "percent below", desc: pctDesc, raw: "-5", want: Number(0)},
		{name: "percent garbage", desc: pctDesc, raw: "x", want: Number(0)},
		{name: "percent blank", desc: pctDesc, raw: " ", want: Empty()},
		{name: "single option", desc: singleDesc, raw: "B", want: String("B")},
		{name: "single unknown", desc: singleDesc, raw: "C", want: Empty(), wantErr: true},
		{name: "multi list", desc: multiDesc, raw: "A, B, A", want: List("A", "B")},
		{name: "multi unknown", desc: multiDesc, raw: "A,Z", want: Empty(), wantErr: true},
		{name: "multi empty", desc: multiDesc, raw: "", want: List()},
		{name: "text verbatim", desc: textDesc, raw: "  spaced  ", want: String("  spaced  ")},
		{name: "number", desc: numDesc, raw: "700", want: Number(700)},
		{name: "number invalid", desc: numDesc, raw: "seven", want: Empty(), wantErr: true},
		{name: "number nan", desc: numDesc, raw: "NaN", want: Empty(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kinds.For(tt.desc).Parse(tt.desc, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, tt.want.Equal(got), "want %#v got %#v", tt.want, got)
		})
	}
}

func TestKindShape(t *testing.T) {
	kinds := DefaultKinds()
	assert.Equal(t, ShapeString, kinds.For(moneyDesc).Shape(moneyDesc))
	assert.Equal(t, ShapeNumber, kinds.For(pctDesc).Shape(pctDesc))
	assert.Equal(t, ShapeString, kinds.For(singleDesc).Shape(singleDesc))
	assert.Equal(t, ShapeList, kinds.For(multiDesc).Shape(multiDesc))
	assert.Equal(t, ShapeString, kinds.For(textDesc).Shape(textDesc))
	assert.Equal(t, ShapeNumber, kinds.For(numDesc).Shape(numDesc))
}

func TestKindRender(t *testing.T) {
	kinds := DefaultKinds()
	assert.Equal(t, "₹75,000", kinds.For(moneyDesc).Render(moneyDesc, String("75000")))
	assert.Equal(t, "12.5%", kinds.For(pctDesc).Render(pctDesc, Number(12.5)))
	assert.Equal(t, "Beta", kinds.For(singleDesc).Render(singleDesc, String("B")))
	assert.Equal(t, "Alpha, Beta", kinds.For(multiDesc).Render(multiDesc, List("A", "B")))
	assert.Equal(t, "700", kinds.For(numDesc).Render(numDesc, Number(700)))
	assert.Equal(t, "", kinds.For(numDesc).Render(numDesc, Empty()))
}

func TestDropdownValidate(t *testing.T) {
	kinds := DefaultKinds()
	path := field.NewPath("rows")

	assert.Empty(t, kinds.For(singleDesc).Validate(path, singleDesc, String("A")))
	errs := kinds.For(singleDesc).Validate(path, singleDesc, String("Z"))
	require.Len(t, errs, 1)
	assert.Equal(t, field.ErrorTypeNotSupported, errs[0].Type)

	errs = kinds.For(multiDesc).Validate(path, multiDesc, List("A", "Z"))
	require.Len(t, errs, 1)
	assert.Equal(t, "rows[1]", errs[0].Field)
}

type yesNoKind struct{}

func (yesNoKind) Shape(schema.ParameterDescriptor) Shape { return ShapeString }
func (yesNoKind) Parse(_ schema.ParameterDescriptor, raw string) (Value, error) {
	if raw == "y" {
		return String("yes"), nil
	}
	return String("no"), nil
}
func (yesNoKind) Validate(*field.Path, schema.ParameterDescriptor, Value) field.ErrorList { return nil }
func (yesNoKind) Render(_ schema.ParameterDescriptor, v Value) string {
	s, _ := v.Str()
	return s
}

func TestRegistryRegisterNewKind(t *testing.T) {
	kinds := DefaultKinds()
	kinds.Register("toggle", yesNoKind{})

	d := schema.ParameterDescriptor{Key: "flag", Name: "Flag", Kind: "toggle"}
	v, err := kinds.For(d).Parse(d, "y")
	require.NoError(t, err)
	assert.True(t, String("yes").Equal(v))

	// unregistered kinds fall back to numbers
	unknown := schema.ParameterDescriptor{Key: "x", Name: "X", Kind: "slider"}
	assert.Equal(t, ShapeNumber, kinds.For(unknown).Shape(unknown))
}

func TestValueAccessors(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.True(t, String("  ").IsEmpty())
	assert.True(t, List().IsEmpty())
	assert.False(t, Number(0).IsEmpty())

	n, ok := Number(3).Num()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	_, ok = String("x").Num()
	assert.False(t, ok)

	items := []string{"A"}
	v := List(items...)
	items[0] = "mutated"
	assert.Equal(t, []string{"A"}, v.Items())

	assert.Nil(t, Empty().Interface())
	assert.Equal(t, []string{"A"}, v.Interface())
	assert.False(t, String("1").Equal(Number(1)))
}
