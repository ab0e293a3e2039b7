package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/internal/session"
)

var (
	sectionOut   string
	sectionCrop  bool
	sectionColor string
	sectionWidth float64
)

var sectionCmd = &cobra.Command{
	Use:   "section [mesh.stl] [slice.dcm]",
	Short: "Draw the outline of a mesh on a DICOM slice",
	Long:  "Intersect the mesh with the plane of a DICOM slice and write the slice with the outline drawn over it as PNG.",
	Args:  cobra.ExactArgs(2),
	Run:   runSection,
}

func init() {
	rootCmd.AddCommand(sectionCmd)

	sectionCmd.Flags().StringVarP(&sectionOut, "out", "o", "", "Output PNG (default <slice>_section.png)")
	sectionCmd.Flags().BoolVar(&sectionCrop, "crop", false, "Crop the mesh to the slab around the slice first")
	sectionCmd.Flags().StringVar(&sectionColor, "color", "", "Outline color as hex")
	sectionCmd.Flags().Float64Var(&sectionWidth, "line-width", 0, "Outline width in pixels")
}

func runSection(cmd *cobra.Command, args []string) {
	meshPath, slicePath := args[0], args[1]
	cfg, logger := setup()
	if sectionColor != "" {
		cfg.View.OverlayColor = sectionColor
	}
	if sectionWidth > 0 {
		cfg.View.LineWidth = sectionWidth
	}

	sess := session.New(cfg, logger)
	if err := sess.LoadMesh(meshPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
		os.Exit(1)
	}
	if err := sess.AddSliceFile(slicePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading slice: %v\n", err)
		os.Exit(1)
	}

	view, err := sess.Select(cfg.View.DefaultPercent, sectionCrop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting outline: %v\n", err)
		os.Exit(1)
	}

	out := sectionOut
	if out == "" {
		out = strings.TrimSuffix(slicePath, filepath.Ext(slicePath)) + "_section.png"
	}
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
		os.Exit(1)
	}
	if err := sess.OverlayPNG(f); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "Error writing overlay: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing overlay: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Slice: %s (depth %.3f mm)\n", view.Slice.Name, view.Slice.Depth)
	fmt.Printf("  Segments: %d\n", view.Stats.Segments)
	fmt.Printf("  Skipped triangles: %d\n", view.Stats.Skipped)
	fmt.Printf("  Contours: %d (%d closed)\n", view.Stats.Contours, view.Stats.Closed)
	fmt.Printf("  Outline length: %.1f px\n", view.Stats.Length)
	fmt.Printf("Written to %s\n", out)
}
