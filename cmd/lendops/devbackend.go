// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/monadic/lendops/internal/devbackend"
	"github.com/monadic/lendops/pkg/schema"
)

var (
	devAddr   string
	devDB     string
	devToken  string
	devReject []string
)

var devBackendCmd = &cobra.Command{
	Use:   "dev-backend",
	Short: "Run a local record API backed by SQLite",
	Long: `Run a local stand-in for the lending backend.

It accepts the partial updates lendops sends, checks section and parameter
keys against the built-in wizards, and stores every section in SQLite.
Use --reject to force 422 responses for chosen sections and try the error
path.

Examples:
  lendops dev-backend
  lendops dev-backend --addr :9000 --reject income_rules
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, dbPath := devAddr, devDB
		if addr == "" {
			addr = cfg.DevAddr
		}
		if dbPath == "" {
			dbPath = cfg.DevDB
		}
		if dbPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return err
			}
		}

		store, err := devbackend.OpenStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		reg, err := schema.Default()
		if err != nil {
			return err
		}

		log := openSessionLog("dev-backend")
		defer log.Close()

		srv := &http.Server{
			Addr:              addr,
			Handler:           devbackend.NewServer(store, reg, devbackend.Options{Token: devToken, Reject: devReject, Log: log}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "dev-backend listening on http://%s (db %s)\n", addr, dbPath)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	devBackendCmd.Flags().StringVar(&devAddr, "addr", "", "Listen address (default from config: 127.0.0.1:8787)")
	devBackendCmd.Flags().StringVar(&devDB, "db", "", "SQLite file, or :memory:")
	devBackendCmd.Flags().StringVar(&devToken, "token", "", "Require this bearer token")
	devBackendCmd.Flags().StringSliceVar(&devReject, "reject", nil, "Section keys to answer with 422 (* for all)")
	rootCmd.AddCommand(devBackendCmd)
}
