// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package query implements the small filter language used to search wizard
// parameters.
//
//	field=value           exact match, case-insensitive; * is a wildcard
//	field!=value          not equal
//	field~=pattern        regular expression
//	field=a,b,c           any of the listed values
//
// Conditions are joined with AND (the default when omitted) or OR and are
// evaluated left to right without precedence.
//
//	kind=money
//	wizard=bre AND mandatory=true
//	kind=percent OR kind=money
//	key~=^max_ AND tab!=income
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Operator joins two conditions.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Comparator says how a condition compares a field.
type Comparator string

const (
	CmpEqual    Comparator = "="
	CmpNotEqual Comparator = "!="
	CmpRegex    Comparator = "~="
	CmpIn       Comparator = "IN"
)

// Condition is one field comparison.
type Condition struct {
	Field      string
	Comparator Comparator
	Value      string
	Values     []string
	pattern    *regexp.Regexp
}

// Query is a parsed filter. Operators[i] joins Conditions[i] and Conditions[i+1].
type Query struct {
	Conditions []Condition
	Operators  []Operator
}

// Fielder exposes named string fields to a query.
type Fielder interface {
	Field(name string) (string, bool)
}

// Parse parses input. An empty input matches everything.
func Parse(input string) (*Query, error) {
	q := &Query{}
	var words []string
	flush := func() error {
		if len(words) == 0 {
			return nil
		}
		cond, err := parseCondition(strings.Join(words, " "))
		words = words[:0]
		if err != nil {
			return err
		}
		if len(q.Conditions) > len(q.Operators) {
			q.Operators = append(q.Operators, OpAnd)
		}
		q.Conditions = append(q.Conditions, cond)
		return nil
	}

	for _, w := range strings.Fields(input) {
		op := Operator(strings.ToUpper(w))
		if op != OpAnd && op != OpOr {
			words = append(words, w)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if len(q.Conditions) == 0 || len(q.Operators) == len(q.Conditions) {
			return nil, fmt.Errorf("%s must follow a condition", op)
		}
		q.Operators = append(q.Operators, op)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(q.Operators) >= len(q.Conditions) && len(q.Conditions) > 0 {
		return nil, fmt.Errorf("query ends with %s", q.Operators[len(q.Operators)-1])
	}
	return q, nil
}

func parseCondition(s string) (Condition, error) {
	for _, cmp := range []Comparator{CmpRegex, CmpNotEqual, CmpEqual} {
		idx := strings.Index(s, string(cmp))
		if idx <= 0 {
			continue
		}
		c := Condition{
			Field:      strings.ToLower(strings.TrimSpace(s[:idx])),
			Comparator: cmp,
			Value:      strings.TrimSpace(s[idx+len(cmp):]),
		}
		switch {
		case cmp == CmpRegex:
			re, err := regexp.Compile(c.Value)
			if err != nil {
				return Condition{}, fmt.Errorf("invalid pattern %q: %w", c.Value, err)
			}
			c.pattern = re
		case cmp == CmpEqual && strings.Contains(c.Value, ","):
			c.Comparator = CmpIn
			for _, v := range strings.Split(c.Value, ",") {
				c.Values = append(c.Values, strings.TrimSpace(v))
			}
			c.Value = ""
		case cmp == CmpEqual && strings.Contains(c.Value, "*"):
			c.pattern = regexp.MustCompile("(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(c.Value), `\*`, ".*") + "$")
		}
		return c, nil
	}
	return Condition{}, fmt.Errorf("invalid condition %q (expected field=value)", s)
}

// Matches evaluates q against f.
func (q *Query) Matches(f Fielder) bool {
	if len(q.Conditions) == 0 {
		return true
	}
	result := q.Conditions[0].Matches(f)
	for i, op := range q.Operators {
		next := q.Conditions[i+1].Matches(f)
		if op == OpOr {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

// Matches evaluates a single condition. A missing field only satisfies !=.
func (c Condition) Matches(f Fielder) bool {
	value, ok := f.Field(c.Field)
	if !ok {
		return c.Comparator == CmpNotEqual
	}
	switch c.Comparator {
	case CmpNotEqual:
		return !strings.EqualFold(value, c.Value)
	case CmpRegex:
		return c.pattern.MatchString(value)
	case CmpIn:
		for _, v := range c.Values {
			if strings.EqualFold(value, v) {
				return true
			}
		}
		return false
	}
	if c.pattern != nil {
		return c.pattern.MatchString(value)
	}
	return strings.EqualFold(value, c.Value)
}

// Fields returns the field names q refers to, in order of appearance.
func (q *Query) Fields() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range q.Conditions {
		if !seen[c.Field] {
			seen[c.Field] = true
			out = append(out, c.Field)
		}
	}
	return out
}

func (q *Query) String() string {
	parts := make([]string, 0, 2*len(q.Conditions))
	for i, c := range q.Conditions {
		if i > 0 {
			parts = append(parts, string(q.Operators[i-1]))
		}
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

func (c Condition) String() string {
	if c.Comparator == CmpIn {
		return c.Field + "=" + strings.Join(c.Values, ",")
	}
	return c.Field + string(c.Comparator) + c.Value
}
