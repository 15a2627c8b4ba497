package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kerf/internal/interp"
	"kerf/internal/interp/vivado"
	"kerf/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "kerf [flags] <logfile>...",
	Short: "Triage EDA tool build logs",
	Long: `Kerf segments EDA tool logs into logical messages, filters them for
display, and reconciles them against a waiver list for CI pass/fail
verdicts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTriage,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRegistry builds the per-invocation interpreter registry with the
// bundled interpreters. There is no global registry.
func newRegistry() *interp.Registry {
	r := interp.NewRegistry()
	r.Register(vivado.New())
	return r
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// resolveColor combines the --color flag with the config default.
func resolveColor(mode string, configDefault bool) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return configDefault && isTerminal(os.Stdout)
	}
}
