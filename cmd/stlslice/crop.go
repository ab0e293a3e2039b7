package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlslice/internal/session"
)

var (
	cropOut       string
	cropThickness float64
	cropASCII     bool
)

var cropCmd = &cobra.Command{
	Use:   "crop [mesh.stl] [slice.dcm]",
	Short: "Export the part of a mesh near a DICOM slice",
	Long:  "Clip the mesh to the slab around the plane of a DICOM slice and write the result as STL in the original coordinates.",
	Args:  cobra.ExactArgs(2),
	Run:   runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().StringVarP(&cropOut, "out", "o", "cropped.stl", "Output STL file")
	cropCmd.Flags().Float64VarP(&cropThickness, "thickness", "t", 0, "Slab thickness in mm (default from config)")
	cropCmd.Flags().BoolVar(&cropASCII, "ascii", false, "Write ASCII instead of binary STL")
}

func runCrop(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	if cropThickness > 0 {
		cfg.View.SlabThickness = cropThickness
	}

	sess := session.New(cfg, logger)
	if err := sess.LoadMesh(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
		os.Exit(1)
	}
	if err := sess.AddSliceFile(args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading slice: %v\n", err)
		os.Exit(1)
	}

	cropped, err := sess.CroppedMesh()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error cropping mesh: %v\n", err)
		os.Exit(1)
	}
	if err := cropped.WriteFile(cropOut, cropASCII); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing STL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Kept %d triangles in a %.2f mm slab\n", cropped.TriangleCount(), cfg.View.SlabThickness)
	fmt.Printf("Written to %s\n", cropOut)
}
