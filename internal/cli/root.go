package cli

import (
	"github.com/spf13/cobra"
)

var Version = "dev"

// NewRootCmd builds the compliance command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "compliance",
		Version:       Version,
		Short:         "Check test reports against regulatory compliance documents",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to config.yaml (optional, defaults apply when empty)")
	root.PersistentFlags().String("log-level", "", "override log.level")

	root.AddCommand(newCheckCmd())
	return root
}

// Execute is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}
