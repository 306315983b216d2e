package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "pledg",
		Short:         "Bitcoin-backed loan calculator API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML config file")

	root.AddCommand(serveCommand())
	root.AddCommand(calcCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := Command()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
