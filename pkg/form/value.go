// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package form

import (
	"strconv"
	"strings"
)

// Shape is the runtime form of a row value.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeNumber
	ShapeString
	ShapeList
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeNumber:
		return "number"
	case ShapeString:
		return "string"
	case ShapeList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged row value. Only one of the payload fields is meaningful,
// selected by shape; values are built with Number, String and List.
type Value struct {
	shape Shape
	num   float64
	str   string
	list  []string
}

// Empty is the value of a row nobody has filled in yet.
func Empty() Value { return Value{} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{shape: ShapeNumber, num: n} }

// String builds a string value.
func String(s string) Value { return Value{shape: ShapeString, str: s} }

// List builds a sequence-of-strings value. The items are copied.
func List(items ...string) Value {
	return Value{shape: ShapeList, list: append([]string{}, items...)}
}

// Shape returns the value's tag.
func (v Value) Shape() Shape { return v.shape }

// IsEmpty reports whether the value carries nothing a mandatory row would accept.
func (v Value) IsEmpty() bool {
	switch v.shape {
	case ShapeNumber:
		return false
	case ShapeString:
		return strings.TrimSpace(v.str) == ""
	case ShapeList:
		return len(v.list) == 0
	default:
		return true
	}
}

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) {
	return v.num, v.shape == ShapeNumber
}

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	return v.str, v.shape == ShapeString
}

// Items returns a copy of the list payload.
func (v Value) Items() []string {
	if v.shape != ShapeList {
		return nil
	}
	return append([]string{}, v.list...)
}

// Contains reports whether a list value holds item.
func (v Value) Contains(item string) bool {
	for _, it := range v.list {
		if it == item {
			return true
		}
	}
	return false
}

// Interface returns the value as a plain Go value for encoding:
// nil, float64, string or []string.
func (v Value) Interface() any {
	switch v.shape {
	case ShapeNumber:
		return v.num
	case ShapeString:
		return v.str
	case ShapeList:
		return v.Items()
	default:
		return nil
	}
}

// Equal compares two values by shape and payload.
func (v Value) Equal(o Value) bool {
	if v.shape != o.shape {
		return false
	}
	switch v.shape {
	case ShapeNumber:
		return v.num == o.num
	case ShapeString:
		return v.str == o.str
	case ShapeList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

// GoString is used by %#v and keeps test failures readable.
func (v Value) GoString() string {
	switch v.shape {
	case ShapeNumber:
		return "Number(" + strconv.FormatFloat(v.num, 'f', -1, 64) + ")"
	case ShapeString:
		return "String(" + strconv.Quote(v.str) + ")"
	case ShapeList:
		return "List(" + strings.Join(v.list, ",") + ")"
	default:
		return "Empty()"
	}
}
