package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/internal/config"
	"github.com/philipparndt/stlslice/internal/logging"
	"github.com/philipparndt/stlslice/pkg/crosssection"
	"github.com/philipparndt/stlslice/version"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "stlslice",
	Short: "Show where an STL mesh cuts through a stack of DICOM slices",
	Long: `stlslice loads a surface mesh and a stack of DICOM images and draws the
outline of the mesh on the selected slice. It serves an interactive viewer
and offers commands to inspect stacks and export outlines or cropped meshes.`,
	Version: version.GetFullVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config file and builds the logger, exiting on failure
func setup() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	crosssection.SetLogger(logger)
	return cfg, logger
}
