package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"igproxy/pkg/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
		p.Panel("igproxy", []ui.Field{
			{Label: "Version", Value: version},
			{Label: "Commit", Value: gitCommit},
			{Label: "Built", Value: buildDate},
			{Label: "Go", Value: runtime.Version()},
			{Label: "OS/Arch", Value: runtime.GOOS + "/" + runtime.GOARCH},
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
