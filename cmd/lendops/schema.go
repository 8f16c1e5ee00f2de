// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/monadic/lendops/internal/clierr"
	"github.com/monadic/lendops/pkg/query"
	"github.com/monadic/lendops/pkg/schema"
)

var (
	schemaJSON  bool
	schemaWhere string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect wizard definitions",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in wizards",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := schema.Default()
		if err != nil {
			return err
		}
		return printWizardList(cmd.OutOrStdout(), reg.Wizards())
	},
}

var schemaShowCmd = &cobra.Command{
	Use:               "show <wizard> [section]",
	Short:             "Show the sections and parameters of a wizard",
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completeWizardThenTab,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWizard(args[:1])
		if err != nil {
			return err
		}
		if schemaJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(w)
		}
		tab := ""
		if len(args) == 2 {
			tab = args[1]
			if !w.HasTab(tab) {
				return errors.New(clierr.NothingFound(fmt.Sprintf("section %q in %s", tab, w.ID)))
			}
		}
		printWizard(cmd.OutOrStdout(), w, tab)
		return nil
	},
}

var schemaParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Search parameters across all wizards",
	Long: `List parameters of every built-in wizard, optionally filtered.

Fields: wizard, resource, tab, section, key, name, kind, multi, mandatory, weightage

Examples:
  lendops schema params --where "kind=money"
  lendops schema params --where "wizard=bre AND mandatory=true"
  lendops schema params --where "key~=^max_ OR kind=percent"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := query.Parse(schemaWhere)
		if err != nil {
			return clierr.WrapWithHint(err, "fields: "+strings.Join(schema.ParamFields, ", "))
		}
		for _, f := range q.Fields() {
			if !containsField(f) {
				return clierr.WrapWithHint(fmt.Errorf("unknown field %q", f), "fields: "+strings.Join(schema.ParamFields, ", "))
			}
		}
		reg, err := schema.Default()
		if err != nil {
			return err
		}
		var matched []schema.ParamRef
		for _, p := range reg.Params() {
			if q.Matches(p) {
				matched = append(matched, p)
			}
		}
		printParams(cmd.OutOrStdout(), matched)
		return nil
	},
}

var schemaLintCmd = &cobra.Command{
	Use:   "lint <file.yaml>...",
	Short: "Check wizard definition files for mistakes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			w, err := schema.Parse(data)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", configureErrorStyle.Render("✗"), path, err)
				failed++
				continue
			}
			errs := schema.Lint(w)
			if len(errs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", configureSuccessStyle.Render("✓"), path)
				continue
			}
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", configureErrorStyle.Render("✗"), path)
			for _, fe := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", fe.Error())
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed lint", failed, len(args))
		}
		return nil
	},
}

func init() {
	schemaShowCmd.Flags().BoolVar(&schemaJSON, "json", false, "Output as JSON")
	schemaParamsCmd.Flags().StringVar(&schemaWhere, "where", "", "Filter expression")
	schemaCmd.AddCommand(schemaListCmd, schemaShowCmd, schemaParamsCmd, schemaLintCmd)
	rootCmd.AddCommand(schemaCmd)
}

func completeWizardThenTab(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeWizards(cmd, args, toComplete)
	}
	return completeTabs(cmd, args, toComplete)
}

func printWizardList(out io.Writer, wizards []*schema.Wizard) error {
	if len(wizards) == 0 {
		fmt.Fprintln(out, clierr.NothingFound("wizards"))
		return nil
	}
	rows := make([][]string, 0, len(wizards))
	for _, w := range wizards {
		rows = append(rows, []string{w.ID, w.Title, w.Route, w.Resource, strings.Join(w.Tabs(), " → ")})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(configureBorderStyle).
		Headers("ID", "TITLE", "ROUTE", "RESOURCE", "SECTIONS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return configureHeaderStyle
			}
			return configureCellStyle
		})
	fmt.Fprintln(out, t.Render())
	return nil
}

func printWizard(out io.Writer, w *schema.Wizard, onlyTab string) {
	fmt.Fprintf(out, "%s  %s\n", configureTitleStyle.Render(w.Title), configureDimStyle.Render(w.Route+" → "+w.Resource))
	for _, sec := range w.Sections {
		if onlyTab != "" && sec.TabID != onlyTab {
			continue
		}
		fmt.Fprintf(out, "\n%s (%s → %s)\n", configureHeaderStyle.Render(sec.Title), sec.TabID, sec.BackendKey)
		if sec.Subtitle != "" {
			fmt.Fprintf(out, "  %s\n", configureDimStyle.Render(sec.Subtitle))
		}
		var flags []string
		if sec.Weightage {
			flags = append(flags, "weightage")
		}
		if sec.MandatoryColumn != "" {
			flags = append(flags, "mandatory:"+string(sec.MandatoryColumn))
		}
		if sec.NextTabID != "" {
			flags = append(flags, "next:"+sec.NextTabID)
		}
		if len(flags) > 0 {
			fmt.Fprintf(out, "  [%s]\n", strings.Join(flags, " "))
		}
		for _, d := range sec.Descriptors {
			mark := " "
			if d.Mandatory || sec.AllMandatory() {
				mark = "*"
			}
			line := fmt.Sprintf("  %s %-28s %-16s %s", mark, d.Key, kindLabel(d), d.Name)
			if len(d.Options) > 0 {
				line += configureDimStyle.Render(" {" + strings.Join(d.OptionValues(), ", ") + "}")
			}
			fmt.Fprintln(out, line)
		}
	}
}

func containsField(name string) bool {
	for _, f := range schema.ParamFields {
		if f == name {
			return true
		}
	}
	return false
}

func printParams(out io.Writer, params []schema.ParamRef) {
	if len(params) == 0 {
		fmt.Fprintln(out, clierr.NothingFound("parameters"))
		return
	}
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		mandatory, _ := p.Field("mandatory")
		rows = append(rows, []string{p.Wizard.ID, p.Section.TabID, p.Descriptor.Key, kindLabel(p.Descriptor), mandatory})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(configureBorderStyle).
		Headers("WIZARD", "TAB", "KEY", "KIND", "MANDATORY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return configureHeaderStyle
			}
			return configureCellStyle
		})
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d parameter(s)\n", len(params))
}
