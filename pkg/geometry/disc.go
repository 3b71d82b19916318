package geometry

import (
	"math"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// Disc represents a circular disc in 3D space
type Disc struct {
	Center      core.Vec3 // Center of the disc
	Normal      core.Vec3 // Normal vector (pointing "up" from the disc)
	Radius      float64   // Radius of the disc
	Right       core.Vec3 // Right vector (perpendicular to normal)
	Up          core.Vec3 // Up vector (perpendicular to normal and right)
	SingleSided bool      // Ignore rays arriving from behind the normal
}

// NewDisc creates a new two-sided disc
func NewDisc(center, normal core.Vec3, radius float64) *Disc {
	normalNormalized := normal.Normalize()

	// Pick any axis that is not parallel to the normal
	var right core.Vec3
	if math.Abs(normalNormalized.X) > 0.1 {
		right = core.NewVec3(0, 1, 0)
	} else {
		right = core.NewVec3(1, 0, 0)
	}

	right = right.Cross(normalNormalized).Normalize()
	up := normalNormalized.Cross(right).Normalize()

	return &Disc{
		Center: center,
		Normal: normalNormalized,
		Radius: radius,
		Right:  right,
		Up:     up,
	}
}

// Hit implements the Shape interface
func (d *Disc) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denom := d.Normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-6 {
		return nil, false // Ray is parallel to disc
	}
	if culledBackFace(ray, d.Normal, d.SingleSided) {
		return nil, false
	}

	t := d.Normal.Dot(d.Center.Subtract(ray.Origin)) / denom
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)
	if hitPoint.Subtract(d.Center).LengthSquared() > d.Radius*d.Radius {
		return nil, false // Outside disc
	}

	hitRecord := &HitRecord{
		Point: hitPoint,
		T:     t,
	}
	hitRecord.SetFaceNormal(ray, d.Normal)

	return hitRecord, true
}

// BoundingBox implements the Shape interface
func (d *Disc) BoundingBox() AABB {
	rightExtent := d.Right.Multiply(d.Radius)
	upExtent := d.Up.Multiply(d.Radius)

	return core.NewAABBFromPoints(
		d.Center.Add(rightExtent).Add(upExtent),
		d.Center.Add(rightExtent).Subtract(upExtent),
		d.Center.Subtract(rightExtent).Add(upExtent),
		d.Center.Subtract(rightExtent).Subtract(upExtent),
	).Expand(0.001)
}
