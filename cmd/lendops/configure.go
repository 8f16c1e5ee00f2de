// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/monadic/lendops/internal/clierr"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/submit"
	"github.com/monadic/lendops/pkg/wizard"
)

var (
	configureLocation string
	configureRecord   string
)

var configureCmd = &cobra.Command{
	Use:   "configure [wizard]",
	Short: "Edit a record interactively, one section at a time",
	Long: `Open a configuration wizard in the terminal.

The record is taken from --location (the wizard route with an optional
#section fragment) or from --record. Each section is validated and saved on
its own; a saved section is marked with a check and the wizard moves on to
the next one.

Examples:
  lendops configure bre --record 42
  lendops configure product --location /nbfc/42/product#eligibility
`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeWizards,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWizard(args)
		if err != nil {
			return err
		}
		loc, recordID, err := resolveLocation(w, configureLocation, configureRecord)
		if err != nil {
			return err
		}
		return RunConfigure(w, loc, recordID)
	},
}

func init() {
	configureCmd.Flags().StringVar(&configureLocation, "location", "", "Location such as /nbfc/42/bre#banking")
	configureCmd.Flags().StringVar(&configureRecord, "record", "", "Record id (builds the location from the wizard route)")
	rootCmd.AddCommand(configureCmd)
}

// resolveLocation builds the wizard location and extracts its record id.
func resolveLocation(w *schema.Wizard, location, record string) (*wizard.URLLocation, string, error) {
	if location == "" {
		if record == "" {
			return nil, "", clierr.WrapWithHint(fmt.Errorf("no record given"),
				fmt.Sprintf("pass --record <id> or --location %s", w.Route))
		}
		location = wizard.RoutePath(w.Route, record)
	}
	loc, err := wizard.ParseLocation(location)
	if err != nil {
		return nil, "", err
	}
	recordID, err := wizard.RecordID(w.Route, loc.Path())
	if err != nil {
		return nil, "", err
	}
	return loc, recordID, nil
}

// RunConfigure runs the configure TUI until the user quits
func RunConfigure(w *schema.Wizard, loc *wizard.URLLocation, recordID string) error {
	client, err := cfg.Client()
	if err != nil {
		return err
	}

	log := openSessionLog("configure " + w.ID)
	log.Log("Wizard: %s (%s)", w.ID, w.Resource)
	log.Log("Backend: %s", client.BaseURL())

	pipeline := submit.NewPipeline(client.WithUserAgent("lendops/"+BuildTag), wizard.NewCompletion(), log)
	p := tea.NewProgram(NewConfigureModel(w, loc, recordID, pipeline, log), tea.WithAltScreen())
	_, err = p.Run()

	if path := log.Close(); path != "" {
		fmt.Printf("Session log: %s\n", path)
	}
	return err
}
