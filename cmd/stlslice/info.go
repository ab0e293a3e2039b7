package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/pkg/analysis"
	"github.com/philipparndt/stlslice/pkg/stl"
)

var infoEdges int

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about an STL file",
	Long:  "Show dimensions, triangle count, surface area and edge statistics of a mesh.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().IntVarP(&infoEdges, "edges", "n", 0, "Also list the n longest and shortest edges")
}

func runInfo(cmd *cobra.Command, args []string) {
	filename := args[0]

	model, err := stl.Parse(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
		os.Exit(1)
	}

	result := analysis.AnalyzeModel(model)

	fmt.Println("STL File Information")
	fmt.Println("====================")
	if model.Name != "" {
		fmt.Printf("Name: %s\n", model.Name)
	}
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Model Statistics:")
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	fmt.Printf("  Degenerate: %d\n", result.DegenerateCount)
	fmt.Printf("  Edges: %d\n", result.EdgeCount)
	fmt.Printf("  Surface Area: %.3f mm²\n\n", result.SurfaceArea)

	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Printf("  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.3f mm\n", result.Dimensions.X)
	fmt.Printf("  Depth (Y): %.3f mm\n", result.Dimensions.Y)
	fmt.Printf("  Height (Z): %.3f mm\n", result.Dimensions.Z)
	fmt.Printf("  Diagonal: %.3f mm\n\n", result.BoundingBox.Diagonal())

	fmt.Println("Edge Lengths:")
	fmt.Printf("  Minimum: %.6f mm\n", result.MinEdgeLength)
	fmt.Printf("  Maximum: %.6f mm\n", result.MaxEdgeLength)
	fmt.Printf("  Average: %.6f mm\n", result.AvgEdgeLength)

	if infoEdges > 0 {
		printEdges("Longest Edges", analysis.FindLongestEdges(result, infoEdges))
		printEdges("Shortest Edges", analysis.FindShortestEdges(result, infoEdges))
	}
}

func printEdges(title string, edges []analysis.EdgeInfo) {
	fmt.Printf("\n%s:\n", title)
	for i, e := range edges {
		fmt.Printf("  %2d. %.6f mm  triangle %d  %s -> %s\n",
			i+1, e.Length, e.TriangleID, analysis.FormatVector(e.Start), analysis.FormatVector(e.End))
	}
}
