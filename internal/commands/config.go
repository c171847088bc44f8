package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kuntumseroja/techdocgen/pkg/config"
	"github.com/kuntumseroja/techdocgen/pkg/output"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage techdocgen.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a techdocgen.yaml with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, config.FileName)

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	output.Success("Created " + path)
	return nil
}
