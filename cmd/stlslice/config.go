package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !configForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Written to %s\n", path)
}
