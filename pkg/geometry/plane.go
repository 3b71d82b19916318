package geometry

import (
	"math"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point       core.Vec3 // A point on the plane
	Normal      core.Vec3 // Outward normal (normalized)
	SingleSided bool      // Ignore rays arriving from behind the normal
}

// NewPlane creates a new two-sided plane
func NewPlane(point, normal core.Vec3) *Plane {
	return &Plane{
		Point:  point,
		Normal: normal.Normalize(),
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Ray is parallel to the plane
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}
	if culledBackFace(ray, p.Normal, p.SingleSided) {
		return nil, false
	}

	// t = (point_on_plane - ray_origin) · normal / (ray_direction · normal)
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hitRecord := &HitRecord{
		T:     t,
		Point: ray.At(t),
	}
	hitRecord.SetFaceNormal(ray, p.Normal)

	return hitRecord, true
}

// BoundingBox returns a bounding box for this plane
func (p *Plane) BoundingBox() AABB {
	const largeValue = 1e6
	const epsilon = 0.001 // Small thickness to avoid zero-width bounding box

	switch getAxisAlignment(p.Normal) {
	case XAxisAligned:
		x := p.Point.X
		return core.NewAABB(
			core.NewVec3(x-epsilon, -largeValue, -largeValue),
			core.NewVec3(x+epsilon, largeValue, largeValue),
		)
	case YAxisAligned:
		y := p.Point.Y
		return core.NewAABB(
			core.NewVec3(-largeValue, y-epsilon, -largeValue),
			core.NewVec3(largeValue, y+epsilon, largeValue),
		)
	case ZAxisAligned:
		z := p.Point.Z
		return core.NewAABB(
			core.NewVec3(-largeValue, -largeValue, z-epsilon),
			core.NewVec3(largeValue, largeValue, z+epsilon),
		)
	default:
		return core.NewAABB(
			core.NewVec3(-largeValue, -largeValue, -largeValue),
			core.NewVec3(largeValue, largeValue, largeValue),
		)
	}
}

// AxisAlignment describes which world axis a normal is parallel to
type AxisAlignment int

const (
	NotAxisAligned AxisAlignment = iota
	XAxisAligned
	YAxisAligned
	ZAxisAligned
)

// getAxisAlignment classifies a unit normal against the world axes
func getAxisAlignment(normal core.Vec3) AxisAlignment {
	const tolerance = 1e-9
	switch {
	case math.Abs(math.Abs(normal.X)-1) < tolerance:
		return XAxisAligned
	case math.Abs(math.Abs(normal.Y)-1) < tolerance:
		return YAxisAligned
	case math.Abs(math.Abs(normal.Z)-1) < tolerance:
		return ZAxisAligned
	default:
		return NotAxisAligned
	}
}
