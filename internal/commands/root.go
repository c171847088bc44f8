package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuntumseroja/techdocgen"
	"github.com/kuntumseroja/techdocgen/pkg/output"
)

var (
	verbose bool
)

// RootCmd is the root command for techdocgen
var RootCmd = &cobra.Command{
	Use:   "techdocgen",
	Short: "techdocgen - dependency and integration topology mapper",
	Long: `techdocgen maps file-level dependencies and messaging topology across
.NET, Java, PHP and JavaScript/TypeScript codebases.

It reports dependency cycles, orphaned and highly coupled files, the
RabbitMQ/MassTransit integration graph and whether .NET and Node.js
messaging code coexist.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		output.SetVerbose(verbose)
	},
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed analysis information")

	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "techdocgen v%s\n", techdocgen.Version)
		},
	})
}
