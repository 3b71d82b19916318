package core

import "github.com/go-gl/mathgl/mgl64"

// Mgl converts the vector to its mathgl representation
func (v Vec3) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Vec3FromMgl converts a mathgl vector back to a Vec3
func Vec3FromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// RotateVec rotates v by the unit quaternion q
func RotateVec(q mgl64.Quat, v Vec3) Vec3 {
	return Vec3FromMgl(q.Rotate(v.Mgl()))
}

// UpAxis returns the local +Y axis of an orientation in world space
func UpAxis(q mgl64.Quat) Vec3 {
	return RotateVec(q, WorldUp)
}

// ForwardAxis returns the local +Z axis of an orientation in world space
func ForwardAxis(q mgl64.Quat) Vec3 {
	return RotateVec(q, WorldZ)
}
