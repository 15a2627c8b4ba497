package main

import (
	"os"

	"github.com/spf13/cobra"

	"kerf/internal/message"
	"kerf/internal/report"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the registered log interpreters",
	Args:  cobra.NoArgs,
	RunE:  runPlugins,
}

func runPlugins(cmd *cobra.Command, args []string) error {
	registry := newRegistry()

	rows := [][]string{{"NAME", "VERSION", "DESCRIPTION"}}
	for _, name := range registry.Names() {
		ipr, _ := registry.Get(name)
		rows = append(rows, []string{ipr.Name(), ipr.Version(), ipr.Description()})
	}

	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	printer := report.NewPrinter(os.Stdout, resolveColor(colorMode, true), message.SeveritySet{})
	printer.Table(rows)
	return nil
}
