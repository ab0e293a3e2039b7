// Package dicomimage decodes DICOM files into greyscale rasters and the few
// header fields needed to place them in 3D.
package dicomimage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/philipparndt/stlslice/pkg/slicestack"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	defaultSize    = 512
	defaultSpacing = 1.0
)

// Metadata holds the header fields this package understands. Numeric fields
// are nil when the tag is absent or unreadable.
type Metadata struct {
	Rows    *int
	Columns *int

	// PixelSpacing is the (row, column) spacing in mm: the distance between
	// adjacent rows and between adjacent columns.
	PixelSpacing *[2]float64

	ImagePositionPatient    *[3]float64
	ImageOrientationPatient *[6]float64

	InstanceNumber *int
	SliceLocation  *float64

	WindowCenter *float64
	WindowWidth  *float64

	Modality          string
	PatientName       string
	SeriesDescription string
}

// MetadataFromDataset reads the supported tags from a parsed dataset.
// Malformed values are treated as absent; the error reports the first of them.
func MetadataFromDataset(ds *dicom.Dataset) (Metadata, error) {
	var m Metadata
	var firstErr error
	note := func(t tag.Tag, err error) {
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tag %s: %w", t, err)
		}
	}

	if v, ok := intValue(ds, tag.Rows); ok {
		m.Rows = &v
	}
	if v, ok := intValue(ds, tag.Columns); ok {
		m.Columns = &v
	}

	if f, err := floats(ds, tag.PixelSpacing, 2); err == nil && f != nil {
		m.PixelSpacing = &[2]float64{f[0], f[1]}
	} else {
		note(tag.PixelSpacing, err)
	}
	if f, err := floats(ds, tag.ImagePositionPatient, 3); err == nil && f != nil {
		m.ImagePositionPatient = &[3]float64{f[0], f[1], f[2]}
	} else {
		note(tag.ImagePositionPatient, err)
	}
	if f, err := floats(ds, tag.ImageOrientationPatient, 6); err == nil && f != nil {
		m.ImageOrientationPatient = &[6]float64{f[0], f[1], f[2], f[3], f[4], f[5]}
	} else {
		note(tag.ImageOrientationPatient, err)
	}

	if v, ok := intValue(ds, tag.InstanceNumber); ok {
		m.InstanceNumber = &v
	}
	if f, err := floats(ds, tag.SliceLocation, 1); err == nil && f != nil {
		m.SliceLocation = &f[0]
	} else {
		note(tag.SliceLocation, err)
	}

	// window tags may carry several presets; the first one wins
	if f, err := floats(ds, tag.WindowCenter, 1); err == nil && f != nil {
		m.WindowCenter = &f[0]
	} else {
		note(tag.WindowCenter, err)
	}
	if f, err := floats(ds, tag.WindowWidth, 1); err == nil && f != nil {
		m.WindowWidth = &f[0]
	} else {
		note(tag.WindowWidth, err)
	}

	m.Modality = stringValue(ds, tag.Modality)
	m.PatientName = stringValue(ds, tag.PatientName)
	m.SeriesDescription = stringValue(ds, tag.SeriesDescription)

	return m, firstErr
}

func values(ds *dicom.Dataset, t tag.Tag) any {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil
	}
	return el.Value.GetValue()
}

func stringValue(ds *dicom.Dataset, t tag.Tag) string {
	s, ok := values(ds, t).([]string)
	if !ok || len(s) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(s, "\\"))
}

// intValue accepts binary integers (US, SL) as well as integer strings (IS)
func intValue(ds *dicom.Dataset, t tag.Tag) (int, bool) {
	switch v := values(ds, t).(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(v[0]))
			return n, err == nil
		}
	}
	return 0, false
}

// floats reads at least n numbers from a decimal string (DS) or float element.
// It returns nil without error when the tag is absent.
func floats(ds *dicom.Dataset, t tag.Tag, n int) ([]float64, error) {
	var out []float64
	switch v := values(ds, t).(type) {
	case nil:
		return nil, nil
	case []float64:
		out = v
	case []string:
		for _, s := range v {
			// some writers pack multiple values into one string
			for _, part := range strings.Split(s, "\\") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				f, err := strconv.ParseFloat(part, 64)
				if err != nil {
					return nil, err
				}
				out = append(out, f)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected value type %T", v)
	}

	if len(out) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(out))
	}
	for _, f := range out[:n] {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite value %v", f)
		}
	}
	return out, nil
}

// Depth is the raw z component of ImagePositionPatient, 0 when absent
func (m Metadata) Depth() float64 {
	if m.ImagePositionPatient == nil {
		return 0
	}
	return m.ImagePositionPatient[2]
}

// Size returns the raster size in pixels, defaulting to 512 for missing tags
func (m Metadata) Size() (columns, rows int) {
	columns, rows = defaultSize, defaultSize
	if m.Columns != nil && *m.Columns > 0 {
		columns = *m.Columns
	}
	if m.Rows != nil && *m.Rows > 0 {
		rows = *m.Rows
	}
	return columns, rows
}

// Spacing returns the (row, column) pixel spacing, defaulting to 1 mm
func (m Metadata) Spacing() (row, column float64) {
	row, column = defaultSpacing, defaultSpacing
	if m.PixelSpacing != nil {
		if m.PixelSpacing[0] > 0 {
			row = m.PixelSpacing[0]
		}
		if m.PixelSpacing[1] > 0 {
			column = m.PixelSpacing[1]
		}
	}
	return row, column
}

// PhysicalSize returns the raster extent in mm, truncated to whole millimetres
func (m Metadata) PhysicalSize() (width, height float64) {
	columns, rows := m.Size()
	rowSpacing, columnSpacing := m.Spacing()
	// PixelSpacing is (row, column); the width scales with the column spacing,
	// not with the first entry as the browser viewer did
	return math.Floor(float64(columns) * columnSpacing), math.Floor(float64(rows) * rowSpacing)
}

// Placement positions the raster in patient space. Missing position and
// orientation default to the origin and the x/y axes.
func (m Metadata) Placement() slicestack.Placement {
	width, height := m.PhysicalSize()

	var position r3.Vec
	if p := m.ImagePositionPatient; p != nil {
		position = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}

	row := r3.Vec{X: 1}
	col := r3.Vec{Y: 1}
	if o := m.ImageOrientationPatient; o != nil {
		row = r3.Vec{X: o[0], Y: o[1], Z: o[2]}
		col = r3.Vec{X: o[3], Y: o[4], Z: o[5]}
	}

	return slicestack.NewPlacement(position, row, col, width, height)
}
