// Package session holds the viewer state: the mesh, the slice stack, the crop
// option and the outline of the current slice.
package session

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"github.com/philipparndt/stlslice/internal/config"
	"github.com/philipparndt/stlslice/pkg/analysis"
	"github.com/philipparndt/stlslice/pkg/crosssection"
	"github.com/philipparndt/stlslice/pkg/dicomimage"
	"github.com/philipparndt/stlslice/pkg/geometry"
	"github.com/philipparndt/stlslice/pkg/overlay"
	"github.com/philipparndt/stlslice/pkg/slicestack"
	"github.com/philipparndt/stlslice/pkg/stl"
	"github.com/philipparndt/stlslice/pkg/viewer"
)

var (
	// ErrNoSlice is returned when no slice is selected
	ErrNoSlice = errors.New("no slice selected")

	// ErrNoMesh is returned by operations that need a mesh
	ErrNoMesh = errors.New("no mesh loaded")

	// ErrKnownSlice is returned when a slice file was already added. The stack
	// has no removal, so rewrites of a loaded file are not picked up.
	ErrKnownSlice = errors.New("slice file already loaded")
)

// contourTolerance is the endpoint distance in pixels below which segments chain
const contourTolerance = 1e-6

// View is the outline of the mesh on the current slice
type View struct {
	Slice *slicestack.Slice
	Index int
	Crop  bool

	// Mesh is the mesh in the slice frame, cropped when Crop is set
	Mesh    []geometry.Triangle
	Section crosssection.CrossSection
	Stats   analysis.SectionStats
}

// State is the JSON snapshot sent to browser clients
type State struct {
	SliceCount   int      `json:"sliceCount"`
	CurrentIndex int      `json:"currentIndex"`
	Depth        *float64 `json:"depth"`
	Name         string   `json:"name"`
	Percent      float64  `json:"percent"`
	Crop         bool     `json:"crop"`
	Mesh         string   `json:"mesh"`
	Triangles    int      `json:"triangles"`
	Segments     int      `json:"segments"`
	Contours     int      `json:"contours"`
	Skipped      int      `json:"skipped"`
	Revision     uint64   `json:"revision"`
}

// Session is safe for concurrent use
type Session struct {
	mu       sync.Mutex
	cfg      *config.Config
	logger   *slog.Logger
	mesh     *stl.Model
	stack    *slicestack.Stack
	files    map[string]struct{}
	percent  float64
	crop     bool
	revision uint64

	// view caches the outline until the mesh, stack or crop flag changes
	view *View
}

// New creates an empty session
func New(cfg *config.Config, logger *slog.Logger) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		logger:  logger,
		stack:   slicestack.New(),
		files:   make(map[string]struct{}),
		percent: cfg.View.DefaultPercent,
	}
}

// LoadMesh parses an STL file and makes it the displayed mesh
func (s *Session) LoadMesh(path string) error {
	model, err := stl.Parse(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mesh = model
	s.changed()
	s.logger.Info("mesh loaded", "path", path, "triangles", model.TriangleCount())
	return nil
}

// SetMesh replaces the mesh with an already decoded model
func (s *Session) SetMesh(model *stl.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mesh = model
	s.changed()
}

// AddSlice inserts a slice at its depth position. With show set the slice
// becomes the current one, otherwise the current slice stays selected.
func (s *Session) AddSlice(slice *slicestack.Slice, show bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSlice(slice, show)
}

func (s *Session) addSlice(slice *slicestack.Slice, show bool) int {
	var index int
	if show {
		index = s.stack.InsertAndSelect(slice)
	} else {
		index = s.stack.Insert(slice)
	}
	s.changed()
	s.logger.Debug("slice added", "name", slice.Name, "depth", slice.Depth, "index", index)
	return index
}

// AddImage inserts a decoded DICOM image. Each file is added once; a second
// image with the same path returns ErrKnownSlice.
func (s *Session) AddImage(img *dicomimage.Image, show bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fileKey(img.Path)
	if _, ok := s.files[key]; ok {
		return -1, fmt.Errorf("%s: %w", img.Path, ErrKnownSlice)
	}
	s.files[key] = struct{}{}
	return s.addSlice(img.Slice(), show), nil
}

// AddSliceFile decodes a DICOM file and shows it as the current slice
func (s *Session) AddSliceFile(path string) error {
	s.mu.Lock()
	_, known := s.files[fileKey(path)]
	s.mu.Unlock()
	if known {
		return fmt.Errorf("%s: %w", path, ErrKnownSlice)
	}

	img, err := dicomimage.Load(path)
	if err != nil {
		return err
	}
	_, err = s.AddImage(img, true)
	return err
}

func fileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// LoadSliceDir inserts every DICOM file of dir and selects the configured
// default percent. Files that fail to decode are logged and skipped.
func (s *Session) LoadSliceDir(dir string) (int, error) {
	images, err := dicomimage.LoadDir(dir)
	if err != nil {
		if len(images) == 0 {
			return 0, err
		}
		s.logger.Warn("some slices could not be loaded", "dir", dir, "error", err)
	}

	added := 0
	for _, img := range images {
		if _, err := s.AddImage(img, false); err != nil {
			s.logger.Debug("slice skipped", "path", img.Path, "error", err)
			continue
		}
		added++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack.SelectByPercent(s.percent)
	s.changed()
	s.logger.Info("slices loaded", "dir", dir, "count", added)
	return added, nil
}

// Select moves the slider to percent and sets the crop option
func (s *Session) Select(percent float64, crop bool) (View, error) {
	return s.Update(&percent, &crop)
}

// Update applies the fields that are set: percent moves the slider, crop sets
// the crop option. A nil field keeps the current slice or flag.
func (s *Session) Update(percent *float64, crop *bool) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.stack.CurrentIndex()
	index := before
	if percent != nil {
		index = s.stack.SelectByPercent(*percent)
		if !math.IsNaN(*percent) && s.stack.Len() > 0 {
			s.percent = math.Max(0, math.Min(100, *percent))
		}
	}

	dirty := index != before
	if crop != nil && *crop != s.crop {
		s.crop = *crop
		dirty = true
	}
	if dirty {
		s.changed()
	}
	return s.currentView()
}

// Current returns the view of the selected slice
func (s *Session) Current() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentView()
}

// changed invalidates the cached view; callers hold s.mu
func (s *Session) changed() {
	s.view = nil
	s.revision++
}

// currentView computes the outline if needed; callers hold s.mu
func (s *Session) currentView() (View, error) {
	if s.view != nil {
		return *s.view, nil
	}

	slice := s.stack.Current()
	if slice == nil {
		return View{}, ErrNoSlice
	}

	width, height := slice.Bounds()
	v := View{
		Slice:   slice,
		Index:   s.stack.CurrentIndex(),
		Crop:    s.crop,
		Section: crosssection.CrossSection{Width: width, Height: height, Segments: []crosssection.Segment{}},
	}

	if s.mesh != nil {
		v.Mesh = slice.Placement.ToLocalTriangles(s.mesh.Triangles)
		if s.crop {
			v.Mesh = crosssection.CropToSlab(v.Mesh, s.cfg.View.SlabThickness/2)
		}
		v.Section = crosssection.Extract(v.Mesh, width, height)
	}
	v.Stats = analysis.AnalyzeSection(v.Section, contourTolerance)

	s.logger.Debug("outline extracted",
		"slice", slice.Name,
		"index", v.Index,
		"crop", v.Crop,
		"segments", v.Stats.Segments,
		"skipped", v.Stats.Skipped,
	)

	s.view = &v
	return v, nil
}

// Snapshot describes the session for clients
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SliceCount:   s.stack.Len(),
		CurrentIndex: s.stack.CurrentIndex(),
		Percent:      s.percent,
		Crop:         s.crop,
		Revision:     s.revision,
	}
	if s.mesh != nil {
		st.Mesh = s.mesh.Label()
		st.Triangles = s.mesh.TriangleCount()
	}

	v, err := s.currentView()
	if err != nil {
		return st
	}
	depth := v.Slice.Depth
	st.Depth = &depth
	st.Name = v.Slice.Name
	st.Segments = v.Stats.Segments
	st.Contours = v.Stats.Contours
	st.Skipped = v.Stats.Skipped
	return st
}

// Depths returns the depths of all slices in stack order
func (s *Session) Depths() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Depths()
}

// OverlayPNG writes the current slice with the outline drawn over it
func (s *Session) OverlayPNG(w io.Writer) error {
	v, err := s.Current()
	if err != nil {
		return err
	}
	if v.Slice.Image == nil {
		return fmt.Errorf("slice %s has no raster", v.Slice.Name)
	}

	style := overlay.DefaultStyle()
	style.Color = s.cfg.View.OverlayColor
	style.LineWidth = s.cfg.View.LineWidth
	return overlay.EncodePNG(w, v.Slice.Image, v.Section, style)
}

// ScenePNG writes a 3D preview of the mesh, the slice card and the outline
func (s *Session) ScenePNG(w io.Writer, yaw, pitch float64) error {
	v, err := s.Current()
	if err != nil {
		return err
	}

	opts := viewer.DefaultRenderOptions()
	opts.Width = s.cfg.View.PreviewWidth
	opts.Height = s.cfg.View.PreviewHeight
	opts.Yaw, opts.Pitch = yaw, pitch

	scene := viewer.Scene{
		Mesh:    v.Slice.Placement.ToWorldTriangles(v.Mesh),
		Slice:   v.Slice,
		Section: &v.Section,
	}
	if err := png.Encode(w, viewer.Render(scene, opts)); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// CroppedMesh returns the slab of the mesh around the current slice in world
// coordinates
func (s *Session) CroppedMesh() (*stl.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mesh == nil {
		return nil, ErrNoMesh
	}
	slice := s.stack.Current()
	if slice == nil {
		return nil, ErrNoSlice
	}

	local := slice.Placement.ToLocalTriangles(s.mesh.Triangles)
	cropped := crosssection.CropToSlab(local, s.cfg.View.SlabThickness/2)
	return s.mesh.WithTriangles(slice.Placement.ToWorldTriangles(cropped)), nil
}
