// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package numfmt holds the numeric display helpers shared by every
// configuration section: lakh/crore digit grouping for amounts and
// percentage clamping for rate and weightage inputs.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// Separator is the grouping separator used by FormatGroupedDigits.
const Separator = ","

// RupeeSymbol prefixes amounts rendered by FormatRupees.
const RupeeSymbol = "₹"

// StripNonDigits returns s with every rune outside 0-9 removed.
func StripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatGroupedDigits renders a digit string with 2-3-2-3 grouping:
// the last three digits form one group and every earlier group holds two.
// "12345678" becomes "1,23,45,678". Non-digit input is stripped first.
func FormatGroupedDigits(raw string) string {
	digits := StripNonDigits(raw)
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	groups := make([]string, 0, len(head)/2+2)
	for len(head) > 2 {
		groups = append(groups, head[len(head)-2:])
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append(groups, head)
	}

	// groups were collected right to left
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return strings.Join(groups, Separator) + Separator + tail
}

// FormatRupees renders an amount for display, e.g. "₹75,000".
// An empty amount renders as an empty string.
func FormatRupees(raw string) string {
	grouped := FormatGroupedDigits(raw)
	if grouped == "" {
		return ""
	}
	return RupeeSymbol + grouped
}

// ClampPercentage bounds n to [0,100]. NaN maps to 0.
func ClampPercentage(n float64) float64 {
	switch {
	case math.IsNaN(n), n < 0:
		return 0
	case n > 100:
		return 100
	default:
		return n
	}
}

// ParsePercentage converts raw keyboard input into a clamped percentage.
// Input that does not parse is treated as NaN and therefore clamps to 0,
// so out-of-range or garbage keystrokes are corrected rather than rejected.
func ParsePercentage(raw string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return ClampPercentage(n)
}

// FormatPercent renders n without trailing zeros ("12.5", "100").
func FormatPercent(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
