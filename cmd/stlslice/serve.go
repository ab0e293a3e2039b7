package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/internal/server"
	"github.com/philipparndt/stlslice/internal/session"
	"github.com/philipparndt/stlslice/pkg/dicomimage"
	"github.com/philipparndt/stlslice/pkg/watcher"
)

var (
	serveMesh   string
	serveSlices string
	serveAddr   string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive slice viewer",
	Long: `Load a mesh and a directory of DICOM slices and serve a browser viewer with a
slice slider, the outline overlay and a 3D preview. With --watch, DICOM files
written to the slice directory are added while serving and the mesh is
reloaded when it changes.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveMesh, "mesh", "m", "", "STL mesh to show")
	serveCmd.Flags().StringVarP(&serveSlices, "slices", "s", "", "Directory of DICOM slices")
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Watch the mesh and slice directory for changes")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, logger := setup()

	flags := cmd.Flags()
	if flags.Changed("mesh") {
		cfg.Data.Mesh = serveMesh
	}
	if flags.Changed("slices") {
		cfg.Data.SliceDir = serveSlices
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if flags.Changed("watch") {
		cfg.Data.Watch = serveWatch
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(cfg, logger)
	if cfg.Data.Mesh != "" {
		if err := sess.LoadMesh(cfg.Data.Mesh); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
			os.Exit(1)
		}
	}
	if cfg.Data.SliceDir != "" {
		if _, err := sess.LoadSliceDir(cfg.Data.SliceDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading slices: %v\n", err)
			os.Exit(1)
		}
	}

	srv := server.New(sess, cfg, logger)

	if cfg.Data.Watch {
		fw, err := watcher.NewFileWatcher(cfg.Data.Debounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
			os.Exit(1)
		}
		defer fw.Close()
		fw.SetLogger(logger)

		if cfg.Data.SliceDir != "" {
			err := fw.WatchDir(cfg.Data.SliceDir, dicomimage.IsDicomFile, func(path string) {
				if err := sess.AddSliceFile(path); err != nil {
					if errors.Is(err, session.ErrKnownSlice) {
						logger.Debug("ignoring change to loaded slice", "path", path)
						return
					}
					logger.Warn("failed to add slice", "path", path, "error", err)
					return
				}
				logger.Info("slice added", "path", path)
				srv.Broadcast()
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error watching slices: %v\n", err)
				os.Exit(1)
			}
		}
		if cfg.Data.Mesh != "" {
			err := fw.Watch([]string{cfg.Data.Mesh}, func(path string) {
				if err := sess.LoadMesh(path); err != nil {
					logger.Warn("failed to reload mesh", "path", path, "error", err)
					return
				}
				srv.Broadcast()
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error watching mesh: %v\n", err)
				os.Exit(1)
			}
		}
		fw.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Viewer running at http://%s\n", cfg.Server.Addr)
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
