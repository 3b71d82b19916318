// Package loaders reads mesh files used as scene geometry and item shapes.
package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// ErrUnsupportedFormat is returned for PLY encodings the loader cannot read
var ErrUnsupportedFormat = errors.New("unsupported PLY format")

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian" or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the mesh loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle), polygons fan-triangulated
}

// LoadPLY loads a PLY file and returns its vertices and triangles
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY decodes an ASCII or binary little-endian PLY stream
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReader(r)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var body plyValueReader
	switch header.Format {
	case "ascii":
		body = &asciiValueReader{scanner: newWordScanner(reader)}
	case "binary_little_endian":
		body = &binaryValueReader{reader: reader, order: binary.LittleEndian}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, header.Format)
	}

	data, err := readPLYBody(body, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data, nil
}

// parsePLYHeader parses the PLY header up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string
	first := true

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic, got %q", line)
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element definition: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				return nil, fmt.Errorf("unsupported element: %s", currentElement)
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	for _, axis := range []string{"x", "y", "z"} {
		if header.vertexPropIndex(axis) < 0 {
			return nil, fmt.Errorf("vertex property %s missing", axis)
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func (h *PLYHeader) vertexPropIndex(name string) int {
	for i, p := range h.VertexProps {
		if p.Name == name && !p.IsList {
			return i
		}
	}
	return -1
}

// readPLYBody reads vertex positions and face index lists, skipping all
// other properties
func readPLYBody(body plyValueReader, header *PLYHeader) (*PLYData, error) {
	data := &PLYData{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}
	ix, iy, iz := header.vertexPropIndex("x"), header.vertexPropIndex("y"), header.vertexPropIndex("z")

	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				if _, err := readList(body, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			v, err := body.value(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			values[j] = v
		}
		data.Vertices = append(data.Vertices, core.NewVec3(values[ix], values[iy], values[iz]))
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				if _, err := body.value(prop.Type); err != nil {
					return nil, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
				}
				continue
			}
			list, err := readList(body, prop)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			if prop.Name != "vertex_indices" && prop.Name != "vertex_index" {
				continue
			}
			if len(list) < 3 {
				return nil, fmt.Errorf("face %d has %d vertices", i, len(list))
			}
			for k := 1; k+1 < len(list); k++ {
				tri := [3]int{int(list[0]), int(list[k]), int(list[k+1])}
				for _, idx := range tri {
					if idx < 0 || idx >= header.VertexCount {
						return nil, fmt.Errorf("face %d index %d out of range", i, idx)
					}
				}
				data.Faces = append(data.Faces, tri[0], tri[1], tri[2])
			}
		}
	}

	return data, nil
}

func readList(body plyValueReader, prop PLYProperty) ([]float64, error) {
	n, err := body.value(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("list %s count: %w", prop.Name, err)
	}
	if n < 0 || n != math.Trunc(n) {
		return nil, fmt.Errorf("list %s has invalid count %v", prop.Name, n)
	}
	list := make([]float64, int(n))
	for i := range list {
		if list[i], err = body.value(prop.DataType); err != nil {
			return nil, fmt.Errorf("list %s item %d: %w", prop.Name, i, err)
		}
	}
	return list, nil
}

// plyValueReader yields successive scalar values of the body
type plyValueReader interface {
	value(dataType string) (float64, error)
}

type binaryValueReader struct {
	reader io.Reader
	order  binary.ByteOrder
}

func (b *binaryValueReader) value(dataType string) (float64, error) {
	switch dataType {
	case "float", "float32":
		var v float32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "double", "float64":
		var v float64
		err := binary.Read(b.reader, b.order, &v)
		return v, err
	case "int", "int32":
		var v int32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "char", "int8":
		var v int8
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	default:
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func newWordScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return s
}

func (a *asciiValueReader) value(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.scanner.Text())
	}
	return v, nil
}
