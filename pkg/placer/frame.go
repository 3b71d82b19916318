package placer

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// frameEpsilon is the cross product length below which two axes count as parallel
const frameEpsilon = 1e-6

// TangentFrame is an orthonormal basis at a surface point
type TangentFrame struct {
	Tangent   core.Vec3 // normal × cameraUp
	Bitangent core.Vec3 // normal × Tangent
	Normal    core.Vec3
}

// NewTangentFrame builds a basis around normal oriented by the camera's up
// axis. When the two are parallel the world X axis, then the world Z axis,
// stands in for cameraUp so the frame is always defined.
func NewTangentFrame(normal, cameraUp core.Vec3) TangentFrame {
	n := normal.Normalize()

	t := n.Cross(cameraUp)
	if t.Length() < frameEpsilon {
		t = n.Cross(core.WorldX)
	}
	if t.Length() < frameEpsilon {
		t = n.Cross(core.WorldZ)
	}
	t = t.Normalize()

	return TangentFrame{
		Tangent:   t,
		Bitangent: n.Cross(t),
		Normal:    n,
	}
}

// ToWorld maps an offset in the frame's tangent plane to world space
func (f TangentFrame) ToWorld(p core.Vec2) core.Vec3 {
	return f.Tangent.Multiply(p.X).Add(f.Bitangent.Multiply(p.Y))
}

// LookRotation returns the rotation whose local +Z points along forward and
// whose local +Y lies in the plane of forward and up, closest to up.
// forward and up must not be parallel.
func LookRotation(forward, up core.Vec3) mgl64.Quat {
	z := forward.Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	basis := mgl64.Mat3FromCols(x.Mgl(), y.Mgl(), z.Mgl())
	return mgl64.Mat4ToQuat(basis.Mat4()).Normalize()
}

// Orientation returns the rotation of an instance standing on a surface with
// the given normal: local +Y along normal, local +Z along normal × cameraUp,
// then turned by yawDeg about the local +Y axis.
func Orientation(normal, cameraUp core.Vec3, yawDeg float64) mgl64.Quat {
	frame := NewTangentFrame(normal, cameraUp)
	look := LookRotation(frame.Tangent, frame.Normal)
	yaw := mgl64.QuatRotate(mgl64.DegToRad(yawDeg), mgl64.Vec3{0, 1, 0})
	return look.Mul(yaw).Normalize()
}
