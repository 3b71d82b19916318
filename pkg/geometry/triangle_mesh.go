package geometry

import (
	"fmt"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// TriangleMesh represents a collection of triangles with efficient ray intersection
// It uses an internal BVH for fast intersection tests
type TriangleMesh struct {
	triangles []Shape
	bvh       *BVH
	bbox      AABB
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Rotation    *core.Vec3 // Optional rotation to apply to vertices
	Center      *core.Vec3 // Optional center point for rotation
	Offset      *core.Vec3 // Optional translation applied after rotation
	Scale       float64    // Uniform scale applied first (0 means 1)
	SingleSided bool       // Cull back faces of every triangle
}

// NewTriangleMesh creates a new triangle mesh from vertices and face indices
// faces: array of triangle indices (each group of 3 indices forms a triangle)
// options: optional parameters (can be nil for basic mesh)
func NewTriangleMesh(vertices []core.Vec3, faces []int, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}

	workingVertices := vertices
	if options != nil {
		workingVertices = make([]core.Vec3, len(vertices))
		for i, vertex := range vertices {
			workingVertices[i] = options.transform(vertex)
		}
	}

	numTriangles := len(faces) / 3
	triangles := make([]Shape, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(workingVertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of bounds (%d vertices)", i, idx, len(workingVertices))
			}
		}

		triangle := NewTriangle(workingVertices[i0], workingVertices[i1], workingVertices[i2])
		if options != nil {
			triangle.SingleSided = options.SingleSided
		}
		triangles[i] = triangle
	}

	bvh := NewBVH(triangles)

	return &TriangleMesh{
		triangles: triangles,
		bvh:       bvh,
		bbox:      bvh.BoundingBox(),
	}, nil
}

func (o *TriangleMeshOptions) transform(vertex core.Vec3) core.Vec3 {
	if o.Scale != 0 {
		vertex = vertex.Multiply(o.Scale)
	}
	if o.Rotation != nil {
		if o.Center != nil {
			vertex = vertex.Subtract(*o.Center)
		}
		vertex = vertex.Rotate(*o.Rotation)
		if o.Center != nil {
			vertex = vertex.Add(*o.Center)
		}
	}
	if o.Offset != nil {
		vertex = vertex.Add(*o.Offset)
	}
	return vertex
}

// Hit tests if a ray intersects with any triangle in the mesh
func (tm *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	return tm.bvh.Hit(ray, tMin, tMax)
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) BoundingBox() AABB {
	return tm.bbox
}

// TriangleCount returns the number of triangles in this mesh
func (tm *TriangleMesh) TriangleCount() int {
	return len(tm.triangles)
}
