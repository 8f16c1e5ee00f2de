// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fields map[string]string

func (f fields) Field(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
		wantOps []Operator
	}{
		{name: "empty", input: "", wantLen: 0},
		{name: "simple", input: "kind=money", wantLen: 1},
		{name: "and", input: "kind=money AND wizard=bre", wantLen: 2, wantOps: []Operator{OpAnd}},
		{name: "lowercase or", input: "kind=money or kind=percent", wantLen: 2, wantOps: []Operator{OpOr}},
		{name: "not equal", input: "tab!=income", wantLen: 1},
		{name: "regex", input: "key~=^max_", wantLen: 1},
		{name: "in list", input: "kind=money,percent", wantLen: 1},
		{name: "leading operator", input: "AND kind=money", wantErr: true},
		{name: "trailing operator", input: "kind=money OR", wantErr: true},
		{name: "double operator", input: "kind=money AND OR tab=x", wantErr: true},
		{name: "no comparator", input: "money", wantErr: true},
		{name: "bad regex", input: "key~=[", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, q.Conditions, tt.wantLen)
			if tt.wantOps != nil {
				assert.Equal(t, tt.wantOps, q.Operators)
			}
		})
	}
}

func TestParseJoinsWordsIntoOneCondition(t *testing.T) {
	// Values may contain spaces; only AND/OR split conditions.
	q, err := Parse("name=Minimum monthly income")
	require.NoError(t, err)
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "Minimum monthly income", q.Conditions[0].Value)
}

func TestMatches(t *testing.T) {
	entry := fields{
		"wizard":    "bre",
		"tab":       "income",
		"key":       "max_foir",
		"kind":      "percent",
		"mandatory": "false",
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"kind=percent", true},
		{"KIND=Percent", true},
		{"kind=money", false},
		{"kind!=money", true},
		{"kind=money,percent", true},
		{"key~=^max_", true},
		{"key~=^min_", false},
		{"key=max_*", true},
		{"tab=inc*", true},
		{"wizard=bre AND mandatory=true", false},
		{"kind=money OR kind=percent", true},
		{"kind=money OR tab=income AND mandatory=false", true},
		{"subtitle=x", false},
		{"subtitle!=x", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Matches(entry))
		})
	}
}

func TestStringAndFields(t *testing.T) {
	q, err := Parse("kind=money,percent or tab!=income and kind~=^m")
	require.NoError(t, err)
	assert.Equal(t, "kind=money,percent OR tab!=income AND kind~=^m", q.String())
	assert.Equal(t, []string{"kind", "tab"}, q.Fields())
}
