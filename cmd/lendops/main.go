// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Command lendops configures lending products, business rules and rate cards
// through schema-driven wizards.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monadic/lendops/internal/clierr"
	"github.com/monadic/lendops/internal/config"
	"github.com/monadic/lendops/pkg/schema"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var (
	cfg        *config.Config
	backendURL string
)

var rootCmd = &cobra.Command{
	Use:   "lendops",
	Short: "Configure lending products and rules",
	Long: `lendops - configure lending products and rules

lendops edits partner configuration through wizards. Each wizard is a
sequence of sections; each section is a table of parameters that is
validated and saved to the backend as one partial update.

  - configure   interactive wizard (TUI)
  - submit      apply a YAML values file without the TUI
  - schema      inspect the built-in wizard definitions
  - config      write or show lendops.yml settings
  - dev-backend local record API for trying things out

Environment Variables:
  LENDOPS_BACKEND_URL     Record API base URL (default: http://127.0.0.1:8787)
  LENDOPS_TOKEN           Bearer token (default: read from ~/.lendops/auth.json)
  LENDOPS_LOG_DIR         Session log directory (default: .lendops/logs)
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return clierr.WrapWithHint(err, "fix or remove "+config.ProjectPath()+" and "+config.GlobalPath())
		}
		if backendURL != "" {
			loaded.BackendURL = backendURL
		}
		cfg = loaded
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, clierr.Pretty(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Record API base URL (overrides config)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lendops version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	// Add completion command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for lendops.

Bash:
  $ source <(lendops completion bash)

Zsh:
  $ lendops completion zsh > "${fpath[1]}/_lendops"

Fish:
  $ lendops completion fish | source

PowerShell:
  PS> lendops completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

// loadWizard resolves a wizard id from the registry, falling back to the
// configured default.
func loadWizard(args []string) (*schema.Wizard, error) {
	reg, err := schema.Default()
	if err != nil {
		return nil, err
	}
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else if cfg != nil {
		id = cfg.Wizard
	}
	if id == "" {
		return nil, clierr.WrapWithHint(fmt.Errorf("no wizard given"), "pass one of: "+strings.Join(reg.IDs(), ", "))
	}
	w, ok := reg.Wizard(id)
	if !ok {
		return nil, clierr.WrapWithHint(fmt.Errorf("wizard %q not found", id), "pass one of: "+strings.Join(reg.IDs(), ", "))
	}
	return w, nil
}
