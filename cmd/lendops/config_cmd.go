// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/monadic/lendops/internal/config"
)

var (
	configInitGlobal bool
	configInitForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage lendops configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Write lendops.yml with default settings.

By default the file goes to the current directory. With --global it goes to
$XDG_CONFIG_HOME/lendops/lendops.yml (or ~/.config/lendops/lendops.yml).
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ProjectPath()
		if configInitGlobal {
			path = config.GlobalPath()
		}
		if config.FileExists(path) && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		out := config.Defaults()
		out.BackendURL = cfg.BackendURL
		if err := config.Write(path, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Token != "" {
			shown.Token = "********"
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "Write the global config instead of ./lendops.yml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
