package geometry

import (
	"math"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// Quad represents a rectangular surface defined by a corner and two edge vectors
type Quad struct {
	Corner      core.Vec3 // One corner of the quad
	U           core.Vec3 // First edge vector
	V           core.Vec3 // Second edge vector
	Normal      core.Vec3 // Normal vector (computed from U × V)
	D           float64   // Plane equation constant: ax + by + cz = d
	W           core.Vec3 // Cached cross product for barycentric coordinates
	SingleSided bool      // Ignore rays arriving from behind the normal
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      normal.Multiply(1.0 / normal.Dot(cross)),
	}
}

// NewCenteredQuad creates a quad centered on a point, spanning ±u and ±v
func NewCenteredQuad(center, halfU, halfV core.Vec3) *Quad {
	corner := center.Subtract(halfU).Subtract(halfV)
	return NewQuad(corner, halfU.Multiply(2), halfV.Multiply(2))
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Ray is parallel to the quad
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}
	if culledBackFace(ray, q.Normal, q.SingleSided) {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)

	// Barycentric bounds check against the two edges
	hitVector := hitPoint.Subtract(q.Corner)
	alpha := q.W.Dot(hitVector.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(hitVector))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	hitRecord := &HitRecord{
		T:     t,
		Point: hitPoint,
	}
	hitRecord.SetFaceNormal(ray, q.Normal)

	return hitRecord, true
}

// BoundingBox returns the axis-aligned bounding box for this quad
func (q *Quad) BoundingBox() AABB {
	p0 := q.Corner
	p1 := q.Corner.Add(q.U)
	p2 := q.Corner.Add(q.V)
	p3 := q.Corner.Add(q.U).Add(q.V)

	// Pad flat quads so the slab test never sees a zero-width box
	return core.NewAABBFromPoints(p0, p1, p2, p3).Expand(0.001)
}
