// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/submit"
	"github.com/monadic/lendops/pkg/wizard"
)

var (
	submitLocation string
	submitRecord   string
	submitValues   string
	submitDryRun   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit [wizard]",
	Short: "Submit sections from a YAML values file",
	Long: `Fill sections of a wizard from a values file and submit them in
wizard order, without the TUI. Every section goes through the same
validation gate as in 'lendops configure'; the first blocked or failed
section stops the run.

Values file:
  bureau:
    cibil_score: 720
    max_dpd_12m: "30"
  banking:
    avg_monthly_balance: {value: 25000, weightage: 20, mandatory: true}
    account_types: [savings, current]

Amounts are whole rupees: digits, optionally grouped with commas.
Negative or fractional amounts are rejected.

Examples:
  lendops submit bre --record 42 --values bre.yaml
  lendops submit bre --record 42 --values bre.yaml --dry-run
`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeWizards,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWizard(args)
		if err != nil {
			return err
		}
		loc, recordID, err := resolveLocation(w, submitLocation, submitRecord)
		if err != nil {
			return err
		}
		vf, err := LoadValuesFile(submitValues)
		if err != nil {
			return err
		}
		if err := vf.Check(w); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if submitDryRun {
			return dryRun(cmd.OutOrStdout(), w, vf)
		}

		client, err := cfg.Client()
		if err != nil {
			return err
		}
		log := openSessionLog("submit " + w.ID)
		defer func() {
			if path := log.Close(); path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Session log: %s\n", path)
			}
		}()

		pipeline := submit.NewPipeline(client.WithUserAgent("lendops/"+BuildTag), wizard.NewCompletion(), log)
		return runSubmit(ctx, cmd.OutOrStdout(), w, loc, recordID, vf, pipeline, log)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitLocation, "location", "", "Location such as /nbfc/42/bre")
	submitCmd.Flags().StringVar(&submitRecord, "record", "", "Record id")
	submitCmd.Flags().StringVarP(&submitValues, "values", "f", "", "YAML values file")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Validate and print payloads without sending")
	_ = submitCmd.MarkFlagRequired("values")
	rootCmd.AddCommand(submitCmd)
}

// runSubmit submits every section named in vf, in wizard order.
func runSubmit(ctx context.Context, out io.Writer, w *schema.Wizard, loc *wizard.URLLocation, recordID string, vf ValuesFile, pipeline *submit.Pipeline, log *SessionLogger) error {
	ctrl := wizard.NewController(w, loc, pipeline.Completion())
	engine := form.NewEngine(nil)

	for _, sec := range w.Sections {
		params, ok := vf[sec.TabID]
		if !ok {
			continue
		}
		ctrl.Select(sec.TabID)
		engine.Load(ctrl.Section())
		log.Section("SECTION " + sec.TabID)

		if err := applyValues(engine, params); err != nil {
			return fmt.Errorf("%s: %w", sec.TabID, err)
		}
		res, err := pipeline.Submit(ctx, submit.Request{Wizard: w, Engine: engine, RecordID: recordID})
		log.LogResult(sec.TabID, res, err)
		if err != nil {
			fmt.Fprintf(out, "%s %s\n", configureErrorStyle.Render("✗"), sec.Title)
			return err
		}
		ctrl.Advance(res.Tab)
		fmt.Fprintf(out, "%s %s (%d parameters)\n", configureSuccessStyle.Render("✓"), sec.Title, len(res.Payload.Entries()))
	}

	fmt.Fprintf(out, "\nSubmitted: %v\nLocation:  %s\n", pipeline.Completion().Snapshot(), loc.String())
	return nil
}

// dryRun validates every section in vf and prints the payloads.
func dryRun(out io.Writer, w *schema.Wizard, vf ValuesFile) error {
	engine := form.NewEngine(nil)
	payloads := make([]submit.Payload, 0, len(vf))
	for i := range w.Sections {
		sec := &w.Sections[i]
		params, ok := vf[sec.TabID]
		if !ok {
			continue
		}
		engine.Load(sec)
		if err := applyValues(engine, params); err != nil {
			return fmt.Errorf("%s: %w", sec.TabID, err)
		}
		if errs := engine.Validate(); len(errs) > 0 {
			return &submit.ValidationError{Tab: sec.TabID, Errs: errs}
		}
		payloads = append(payloads, submit.BuildPayload(sec, engine.Rows()))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payloads)
}
