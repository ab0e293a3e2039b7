package dicomimage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/philipparndt/stlslice/pkg/slicestack"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNoPixelData is returned for datasets without a decodable image frame
var ErrNoPixelData = errors.New("no pixel data")

// Image is a decoded DICOM slice
type Image struct {
	Path     string
	Metadata Metadata
	Raster   *image.Gray
}

// Load parses a DICOM file and converts its first frame to 8-bit grey
func Load(path string) (*Image, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// unreadable optional tags fall back to defaults
	meta, _ := MetadataFromDataset(&ds)

	raster, err := RasterFromDataset(&ds, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Image{
		Path:     path,
		Metadata: meta,
		Raster:   raster,
	}, nil
}

// IsDicomFile reports whether path has a DICOM file extension
func IsDicomFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".dcm" || ext == ".dicom"
}

// LoadDir loads every DICOM file in dir, in file name order. Files that fail to
// decode are skipped; their errors are joined into the returned error while the
// images that did load are still returned.
func LoadDir(dir string) ([]*Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsDicomFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var images []*Image
	var errs []error
	for _, name := range names {
		img, err := Load(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		images = append(images, img)
	}

	return images, errors.Join(errs...)
}

// Slice wraps the image as a hidden stack slice named after its file
func (img *Image) Slice() *slicestack.Slice {
	return slicestack.NewSlice(
		filepath.Base(img.Path),
		img.Metadata.Depth(),
		img.Raster,
		img.Metadata.Placement(),
	)
}

// RasterFromDataset decodes the first frame of the pixel data element
func RasterFromDataset(ds *dicom.Dataset, meta Metadata) (*image.Gray, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, ErrNoPixelData
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || info.IntentionallySkipped || len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}

	frame, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return RasterFromImage(frame, meta), nil
}

// RasterFromImage maps a decoded frame to 8-bit grey. A positive window width
// in the metadata selects linear windowing around the window centre; otherwise
// the frame's own value range is stretched to 0..255.
func RasterFromImage(src image.Image, meta Metadata) *image.Gray {
	b := src.Bounds()
	samples := make([]float64, 0, b.Dx()*b.Dy())
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := rawSample(src, x, y)
			samples = append(samples, v)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if meta.WindowCenter != nil && meta.WindowWidth != nil && *meta.WindowWidth > 0 {
		lo = *meta.WindowCenter - *meta.WindowWidth/2
		hi = *meta.WindowCenter + *meta.WindowWidth/2
	}

	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	span := hi - lo
	for i, v := range samples {
		var g float64
		if span > 0 {
			g = (v - lo) / span * 255
		}
		out.Pix[i] = uint8(math.Round(math.Max(0, math.Min(255, g))))
	}
	return out
}

// rawSample returns the stored pixel value in the units the window tags use.
// 16-bit frames keep their raw value; compressed frames decode to 8-bit images
// and are read as 8-bit luma.
func rawSample(src image.Image, x, y int) float64 {
	switch img := src.(type) {
	case *image.Gray16:
		return float64(img.Gray16At(x, y).Y)
	case *image.Gray:
		return float64(img.GrayAt(x, y).Y)
	default:
		return float64(color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y)
	}
}
