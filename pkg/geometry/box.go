package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// Box represents a solid box made up of 6 outward-facing quads
type Box struct {
	Center core.Vec3 // Center point of the box
	Size   core.Vec3 // Half-extents along each local axis
	faces  [6]*Quad  // The 6 quad faces
	bbox   AABB      // Cached bounding box
}

// NewBox creates a new box with the given center, half-extents and Euler rotation
// Rotation is in radians around X, Y, Z axes (applied in that order)
func NewBox(center, size, rotation core.Vec3) *Box {
	return newBox(center, size, func(v core.Vec3) core.Vec3 {
		return v.Rotate(rotation)
	})
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3) *Box {
	return NewBox(center, size, core.Vec3{})
}

// NewOrientedBox creates a box rotated by a quaternion about its center
func NewOrientedBox(center, size core.Vec3, orientation mgl64.Quat) *Box {
	return newBox(center, size, func(v core.Vec3) core.Vec3 {
		return core.RotateVec(orientation, v)
	})
}

func newBox(center, size core.Vec3, rotate func(core.Vec3) core.Vec3) *Box {
	b := &Box{Center: center, Size: size}

	// The 8 corners of a unit box centered at origin
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	for i := range corners {
		scaled := core.NewVec3(corners[i].X*size.X, corners[i].Y*size.Y, corners[i].Z*size.Z)
		corners[i] = rotate(scaled).Add(center)
	}

	// Each face is a corner plus two edges whose cross product points outward
	face := func(c, u, v int) *Quad {
		return NewQuad(corners[c], corners[u].Subtract(corners[c]), corners[v].Subtract(corners[c]))
	}
	b.faces[0] = face(4, 5, 7) // Front (Z+)
	b.faces[1] = face(1, 0, 2) // Back (Z-)
	b.faces[2] = face(5, 1, 6) // Right (X+)
	b.faces[3] = face(0, 4, 3) // Left (X-)
	b.faces[4] = face(3, 7, 2) // Top (Y+)
	b.faces[5] = face(4, 0, 5) // Bottom (Y-)

	b.bbox = core.NewAABBFromPoints(corners[:]...)
	return b
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	var closestHit *HitRecord
	closestT := tMax

	for _, face := range b.faces {
		if hit, isHit := face.Hit(ray, tMin, closestT); isHit {
			closestT = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() AABB {
	return b.bbox
}
