// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/monadic/lendops/pkg/schema"
)

// completeWizards returns the built-in wizard ids
func completeWizards(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reg, err := schema.Default()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(reg.IDs(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeTabs returns the tabs of the wizard named in args[0]
func completeTabs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reg, err := schema.Default()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	w, ok := reg.Wizard(args[0])
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(w.Tabs(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// filterPrefix filters strings by prefix (case-insensitive)
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var filtered []string
	lowerPrefix := strings.ToLower(prefix)
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
