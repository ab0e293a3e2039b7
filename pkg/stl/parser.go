package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50
)

// Parse reads an STL file and returns a Model.
// ASCII and binary encodings are detected automatically.
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	model, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	model.Source = filename
	return model, nil
}

// ParseReader reads an STL mesh from r until EOF
func ParseReader(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return decode(data)
}

// decode picks the encoding. Some exporters write binary files whose header
// starts with "solid", so a size that matches the binary triangle count wins.
func decode(data []byte) (*Model, error) {
	if isBinary(data) {
		return parseBinary(bytes.NewReader(data))
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCII(bytes.NewReader(data))
	}
	return parseBinary(bytes.NewReader(data))
}

func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	return uint64(len(data)) == binaryHeaderSize+4+uint64(count)*binaryTriangleSize
}

// parseASCII parses an ASCII STL stream
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	model := NewModel("")

	var currentNormal geometry.Vector3
	var vertices []geometry.Vector3
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) >= 5 && fields[1] == "normal" {
				n, err := parseVector(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid normal: %w", lineNo, err)
				}
				currentNormal = n
			}

		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			p, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNo, err)
			}
			vertices = append(vertices, p)

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices", lineNo, len(vertices))
			}
			model.AddTriangle(geometry.NewTriangle(currentNormal, vertices[0], vertices[1], vertices[2]))
			vertices = vertices[:0]
			currentNormal = geometry.Vector3{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}

	return model, nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// binaryFacet mirrors the 50 byte record of the binary format
type binaryFacet struct {
	Normal     [3]float32
	Vertices   [3][3]float32
	Attributes uint16
}

// parseBinary parses a binary STL stream
func parseBinary(reader io.Reader) (*Model, error) {
	model := NewModel("")

	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Extract name from header (if present)
	model.Name = strings.TrimSpace(string(bytes.TrimRight(header, "\x00")))

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	model.Triangles = make([]geometry.Triangle, 0, min(triangleCount, 1<<20))
	for i := uint32(0); i < triangleCount; i++ {
		var facet binaryFacet
		if err := binary.Read(reader, binary.LittleEndian, &facet); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		model.AddTriangle(geometry.NewTriangle(
			fromFloat32(facet.Normal),
			fromFloat32(facet.Vertices[0]),
			fromFloat32(facet.Vertices[1]),
			fromFloat32(facet.Vertices[2]),
		))
	}

	return model, nil
}

func fromFloat32(v [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2]))
}

func toFloat32(v geometry.Vector3) [3]float32 {
	clamp := func(f float64) float32 {
		if math.IsNaN(f) {
			return 0
		}
		return float32(f)
	}
	return [3]float32{clamp(v.X), clamp(v.Y), clamp(v.Z)}
}
