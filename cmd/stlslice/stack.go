package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/pkg/analysis"
	"github.com/philipparndt/stlslice/pkg/dicomimage"
	"github.com/philipparndt/stlslice/pkg/slicestack"
)

var stackTolerance float64

var stackCmd = &cobra.Command{
	Use:   "stack [dir]",
	Short: "List the DICOM slices of a directory by depth",
	Long:  "Load every DICOM file in a directory, list the slices in depth order and report the spacing between them.",
	Args:  cobra.ExactArgs(1),
	Run:   runStack,
}

func init() {
	rootCmd.AddCommand(stackCmd)

	stackCmd.Flags().Float64Var(&stackTolerance, "tolerance", 0.01, "Maximum spacing deviation in mm for a uniform stack")
}

func runStack(cmd *cobra.Command, args []string) {
	dir := args[0]

	images, err := dicomimage.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if len(images) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no DICOM slices found in %s\n", dir)
		os.Exit(1)
	}

	stack := slicestack.New()
	for _, img := range images {
		stack.Insert(img.Slice())
	}

	fmt.Printf("Slices in %s\n", dir)
	fmt.Println(strings.Repeat("=", len("Slices in ")+len(dir)))
	for i, s := range stack.All() {
		w, h := s.Bounds()
		fmt.Printf("  %4d  %10.3f mm  %4dx%-4d  %s\n", i, s.Depth, w, h, s.Name)
	}

	stats := analysis.AnalyzeStack(stack.Depths())
	fmt.Println()
	fmt.Println("Spacing:")
	fmt.Printf("  Slices: %d\n", stats.Count)
	fmt.Printf("  Depth range: %.3f to %.3f mm\n", stats.MinDepth, stats.MaxDepth)
	fmt.Printf("  Mean: %.4f mm (std dev %.4f)\n", stats.MeanSpacing, stats.StdDevSpacing)
	fmt.Printf("  Min/Max: %.4f / %.4f mm\n", stats.MinSpacing, stats.MaxSpacing)
	if stats.Duplicates > 0 {
		fmt.Printf("  Duplicate depths: %d\n", stats.Duplicates)
	}
	if stats.IsUniform(stackTolerance) {
		fmt.Println("  Uniform: yes")
	} else {
		fmt.Println("  Uniform: no")
	}
}
