package slicestack

import (
	"iter"
	"math"
)

// Stack is an ordered collection of slices with a single current selection.
//
// Slices are kept in non-decreasing depth order. Insertion is a linear scan;
// stacks hold tens of slices, and the scan fixes the order of equal depths.
// A Stack is not safe for concurrent use.
type Stack struct {
	slices  []*Slice
	current int
}

// New creates an empty stack with nothing selected
func New() *Stack {
	return &Stack{
		slices:  make([]*Slice, 0),
		current: -1,
	}
}

// Len returns the number of slices
func (s *Stack) Len() int {
	return len(s.slices)
}

// At returns the slice at index i, or nil when i is out of range
func (s *Stack) At(i int) *Slice {
	if i < 0 || i >= len(s.slices) {
		return nil
	}
	return s.slices[i]
}

// CurrentIndex returns the index of the current slice, -1 when none is selected
func (s *Stack) CurrentIndex() int {
	return s.current
}

// Current returns the selected slice or nil
func (s *Stack) Current() *Slice {
	return s.At(s.current)
}

// All iterates over the slices in depth order
func (s *Stack) All() iter.Seq2[int, *Slice] {
	return func(yield func(int, *Slice) bool) {
		for i, slice := range s.slices {
			if !yield(i, slice) {
				return
			}
		}
	}
}

// Depths returns the depth of every slice in stack order
func (s *Stack) Depths() []float64 {
	depths := make([]float64, len(s.slices))
	for i, slice := range s.slices {
		depths[i] = slice.Depth
	}
	return depths
}

// Insert adds a slice at its sorted position and returns the index it landed on.
//
// A slice whose depth equals existing depths goes after all of them. Visibility
// flags are left alone; the current index is shifted so that it keeps pointing at
// the same slice.
func (s *Stack) Insert(slice *Slice) int {
	n := len(s.slices)

	// Fast path: slices usually arrive in ascending order
	if n == 0 || slice.Depth >= s.slices[n-1].Depth {
		s.slices = append(s.slices, slice)
		return n
	}

	// TODO: binary search once stacks get large; it must keep placing ties last
	index := n
	for i, existing := range s.slices {
		if slice.Depth < existing.Depth {
			index = i
			break
		}
	}

	s.slices = append(s.slices, nil)
	copy(s.slices[index+1:], s.slices[index:])
	s.slices[index] = slice

	if s.current >= index {
		s.current++
	}
	return index
}

// InsertAndSelect inserts a slice and makes it the current, visible slice
func (s *Stack) InsertAndSelect(slice *Slice) int {
	if previous := s.Current(); previous != nil {
		previous.visible = false
	}
	index := s.Insert(slice)
	s.current = index
	slice.visible = true
	return index
}

// SelectByPercent selects a slice from a slider value in [0, 100].
//
// The mapping is inverted: 0 selects the deepest (last) slice and 100 the first.
// Values outside the range are clamped. On an empty stack, or for NaN, nothing
// changes. The resulting current index is returned.
func (s *Stack) SelectByPercent(value float64) int {
	n := len(s.slices)
	if n == 0 || math.IsNaN(value) {
		return s.current
	}
	value = math.Max(0, math.Min(100, value))

	index := int(math.Floor(((100 - value) / 100) * float64(n-1)))

	if previous := s.Current(); previous != nil {
		previous.visible = false
	}
	s.current = index
	s.slices[index].visible = true
	return index
}
