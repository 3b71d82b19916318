package scene

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/geometry"
	"github.com/df07/go-scatter-placer/pkg/loaders"
)

// File is the YAML form of a scene
type File struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Group       string      `yaml:"group"`
	View        *ViewSpec   `yaml:"view"`
	Shapes      []ShapeSpec `yaml:"shapes"`
}

// ViewSpec is the YAML form of a View
type ViewSpec struct {
	Eye    []float64 `yaml:"eye"`
	Target []float64 `yaml:"target"`
	Up     []float64 `yaml:"up"`
}

// ShapeSpec describes one piece of static geometry.
//
//	plane:     center, normal
//	quad:      center, u, v (half edges)
//	disc:      center, normal, radius
//	box:       center, size (full), rotation (degrees)
//	sphere:    center, radius
//	mesh:      path (PLY), center (offset), rotation, scale
//	heightmap: path (image), extent, height, center (offset)
type ShapeSpec struct {
	Type        string    `yaml:"type"`
	Center      []float64 `yaml:"center"`
	Normal      []float64 `yaml:"normal"`
	U           []float64 `yaml:"u"`
	V           []float64 `yaml:"v"`
	Size        []float64 `yaml:"size"`
	Rotation    []float64 `yaml:"rotation"`
	Radius      float64   `yaml:"radius"`
	SingleSided bool      `yaml:"single_sided"`
	Path        string    `yaml:"path"`
	Scale       float64   `yaml:"scale"`
	Extent      float64   `yaml:"extent"`
	Height      float64   `yaml:"height"`
}

// LoadFile reads a YAML scene file
func LoadFile(path string, proxies ProxyFactory, logger core.Logger) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}

	s, err := Parse(raw, filepath.Dir(path), proxies, logger)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = titleCase(base[:len(base)-len(filepath.Ext(base))])
	}
	return s, nil
}

// Parse builds a scene from YAML. Relative mesh and heightmap paths are
// resolved against baseDir.
func Parse(raw []byte, baseDir string, proxies ProxyFactory, logger core.Logger) (*Scene, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	s := New(proxies, logger)
	s.Name = file.Name

	if file.View != nil {
		view, err := file.View.build()
		if err != nil {
			return nil, fmt.Errorf("view: %w", err)
		}
		s.View = view
	}

	shapes := make([]geometry.Shape, 0, len(file.Shapes))
	for i, spec := range file.Shapes {
		shape, err := spec.build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, spec.Type, err)
		}
		shapes = append(shapes, shape)
	}
	s.AddShapes(shapes...)

	logger.Debugf("Parsed scene %q: %d shapes", s.Name, len(shapes))
	return s, nil
}

func (v *ViewSpec) build() (View, error) {
	eye, err := vec3(v.Eye, "eye", nil)
	if err != nil {
		return View{}, err
	}
	target, err := vec3(v.Target, "target", &core.Vec3{})
	if err != nil {
		return View{}, err
	}
	up, err := vec3(v.Up, "up", &core.Vec3{Z: -1})
	if err != nil {
		return View{}, err
	}
	return View{Eye: eye, Target: target, Up: up}, nil
}

func (spec ShapeSpec) build(baseDir string) (geometry.Shape, error) {
	origin := core.Vec3{}
	center, err := vec3(spec.Center, "center", &origin)
	if err != nil {
		return nil, err
	}
	rotation, err := vec3(spec.Rotation, "rotation", &origin)
	if err != nil {
		return nil, err
	}
	rotation = rotation.Multiply(math.Pi / 180)

	switch spec.Type {
	case "plane":
		normal, err := vec3(spec.Normal, "normal", &core.Vec3{Y: 1})
		if err != nil {
			return nil, err
		}
		p := geometry.NewPlane(center, normal)
		p.SingleSided = spec.SingleSided
		return p, nil

	case "quad":
		u, err := vec3(spec.U, "u", nil)
		if err != nil {
			return nil, err
		}
		v, err := vec3(spec.V, "v", nil)
		if err != nil {
			return nil, err
		}
		if u.Cross(v).LengthSquared() == 0 {
			return nil, fmt.Errorf("u and v must span a plane")
		}
		q := geometry.NewCenteredQuad(center, u, v)
		q.SingleSided = spec.SingleSided
		return q, nil

	case "disc":
		normal, err := vec3(spec.Normal, "normal", &core.Vec3{Y: 1})
		if err != nil {
			return nil, err
		}
		if spec.Radius <= 0 {
			return nil, fmt.Errorf("radius must be positive")
		}
		d := geometry.NewDisc(center, normal, spec.Radius)
		d.SingleSided = spec.SingleSided
		return d, nil

	case "box":
		size, err := vec3(spec.Size, "size", nil)
		if err != nil {
			return nil, err
		}
		return geometry.NewBox(center, size.Multiply(0.5), rotation), nil

	case "sphere":
		if spec.Radius <= 0 {
			return nil, fmt.Errorf("radius must be positive")
		}
		return geometry.NewSphere(center, spec.Radius), nil

	case "mesh":
		data, err := loaders.LoadPLY(resolve(baseDir, spec.Path))
		if err != nil {
			return nil, err
		}
		return geometry.NewTriangleMesh(data.Vertices, data.Faces, &geometry.TriangleMeshOptions{
			Scale:       spec.Scale,
			Rotation:    &rotation,
			Offset:      &center,
			SingleSided: spec.SingleSided,
		})

	case "heightmap":
		hm, err := loaders.LoadHeightmap(resolve(baseDir, spec.Path))
		if err != nil {
			return nil, err
		}
		if spec.Extent <= 0 {
			return nil, fmt.Errorf("extent must be positive")
		}
		vertices, faces, err := hm.Mesh(spec.Extent, spec.Height)
		if err != nil {
			return nil, err
		}
		return geometry.NewTriangleMesh(vertices, faces, &geometry.TriangleMeshOptions{Offset: &center})

	default:
		return nil, fmt.Errorf("unknown shape type %q", spec.Type)
	}
}

// vec3 converts a YAML triple; def is used when the field is absent, and a
// nil def makes the field required
func vec3(v []float64, field string, def *core.Vec3) (core.Vec3, error) {
	if len(v) == 0 {
		if def == nil {
			return core.Vec3{}, fmt.Errorf("%s is required", field)
		}
		return *def, nil
	}
	if len(v) != 3 {
		return core.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", field, len(v))
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
