package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// gridMesh builds an n×n grid of quads (two triangles each) on the XZ plane
func gridMesh(n int, height func(x, z float64) float64) ([]core.Vec3, []int) {
	var vertices []core.Vec3
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			x, z := float64(i), float64(j)
			vertices = append(vertices, core.NewVec3(x, height(x, z), z))
		}
	}

	var faces []int
	row := n + 1
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*row + i
			b := a + 1
			c := a + row
			d := c + 1
			faces = append(faces, a, c, b, b, c, d)
		}
	}
	return vertices, faces
}

func TestTriangleMesh_HitGrid(t *testing.T) {
	vertices, faces := gridMesh(20, func(x, z float64) float64 { return 0 })
	mesh, err := NewTriangleMesh(vertices, faces, nil)
	if err != nil {
		t.Fatalf("NewTriangleMesh failed: %v", err)
	}

	if mesh.TriangleCount() != 800 {
		t.Errorf("Expected 800 triangles, got %d", mesh.TriangleCount())
	}

	hit, isHit := mesh.Hit(core.NewRay(core.NewVec3(7.3, 5, 11.6), core.NewVec3(0, -1, 0)), 0.001, 100)
	if !isHit {
		t.Fatal("Expected hit on flat grid")
	}
	if math.Abs(hit.Point.Y) > 1e-9 {
		t.Errorf("Expected hit on y=0, got %v", hit.Point)
	}
	if !hit.Normal.ApproxEqual(core.NewVec3(0, 1, 0), 1e-9) {
		t.Errorf("Expected upward normal, got %v", hit.Normal)
	}
}

func TestTriangleMesh_Options(t *testing.T) {
	vertices, faces := gridMesh(2, func(x, z float64) float64 { return 0 })
	offset := core.NewVec3(0, 3, 0)

	mesh, err := NewTriangleMesh(vertices, faces, &TriangleMeshOptions{Scale: 2, Offset: &offset})
	if err != nil {
		t.Fatalf("NewTriangleMesh failed: %v", err)
	}

	bbox := mesh.BoundingBox()
	if math.Abs(bbox.Max.X-4) > 0.01 || math.Abs(bbox.Center().Y-3) > 0.01 {
		t.Errorf("Expected scaled and lifted mesh, got bounds %v", bbox)
	}
}

func TestTriangleMesh_InvalidFaces(t *testing.T) {
	vertices := []core.Vec3{{}, {X: 1}, {Z: 1}}

	if _, err := NewTriangleMesh(vertices, []int{0, 1}, nil); err == nil {
		t.Error("Expected error for face list not divisible by 3")
	}
	if _, err := NewTriangleMesh(vertices, []int{0, 1, 3}, nil); err == nil {
		t.Error("Expected error for out of bounds index")
	}
}
