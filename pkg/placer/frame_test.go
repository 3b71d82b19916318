package placer

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/df07/go-scatter-placer/pkg/core"
)

func assertVecNear(t *testing.T, expected, actual core.Vec3, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, expected.ApproxEqual(actual, 1e-9), "expected %v, got %v %s", expected, actual, fmt.Sprint(msgAndArgs...))
}

func TestTangentFrame_Orthonormal(t *testing.T) {
	tests := []struct {
		name     string
		normal   core.Vec3
		cameraUp core.Vec3
	}{
		{"tilted camera over ground", core.NewVec3(0, 1, 0), core.NewVec3(0, 0.6, 0.8)},
		{"wall", core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{"slope", core.NewVec3(0.3, 1, -0.2), core.NewVec3(0, 1, 0)},
		{"unnormalized normal", core.NewVec3(0, 5, 0), core.NewVec3(0, 0, 1)},
		{"normal parallel to camera up", core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0)},
		{"normal opposite camera up", core.NewVec3(0, -1, 0), core.NewVec3(0, 1, 0)},
		{"normal along world X and camera up", core.NewVec3(1, 0, 0), core.NewVec3(1, 0, 0)},
		{"zero camera up", core.NewVec3(0, 1, 0), core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTangentFrame(tt.normal, tt.cameraUp)

			assert.True(t, f.Tangent.IsFinite() && f.Bitangent.IsFinite(), "frame must not contain NaN")
			assert.InDelta(t, 1, f.Tangent.Length(), 1e-9)
			assert.InDelta(t, 1, f.Bitangent.Length(), 1e-9)
			assert.InDelta(t, 1, f.Normal.Length(), 1e-9)
			assert.InDelta(t, 0, f.Tangent.Dot(f.Normal), 1e-9)
			assert.InDelta(t, 0, f.Bitangent.Dot(f.Normal), 1e-9)
			assert.InDelta(t, 0, f.Tangent.Dot(f.Bitangent), 1e-9)
			assertVecNear(t, tt.normal.Normalize(), f.Normal)
		})
	}
}

func TestTangentFrame_CameraRelative(t *testing.T) {
	// Looking down at the ground with the camera's up pointing +Z
	f := NewTangentFrame(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1))
	assertVecNear(t, core.NewVec3(1, 0, 0), f.Tangent)
	assertVecNear(t, core.NewVec3(0, 0, -1), f.Bitangent)
}

func TestTangentFrame_DegenerateFallback(t *testing.T) {
	f := NewTangentFrame(core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0))
	assertVecNear(t, core.NewVec3(0, 0, -1), f.Tangent, "normal × worldX")

	f = NewTangentFrame(core.NewVec3(1, 0, 0), core.NewVec3(1, 0, 0))
	assertVecNear(t, core.NewVec3(0, -1, 0), f.Tangent, "normal × worldZ")
}

func TestLookRotation(t *testing.T) {
	q := LookRotation(core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0))
	assert.True(t, q.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-9), "expected identity, got %v", q)

	tests := []struct {
		forward, up core.Vec3
	}{
		{core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 0, -1), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, -1, 0), core.NewVec3(0, 0, 1)},
		{core.NewVec3(1, 0, 1), core.NewVec3(0, 1, 0)},
	}
	for _, tt := range tests {
		q := LookRotation(tt.forward, tt.up)
		assertVecNear(t, tt.forward.Normalize(), core.ForwardAxis(q))
		assertVecNear(t, tt.up.Normalize(), core.UpAxis(q))
	}
}

func TestOrientation_UpAxisFollowsNormal(t *testing.T) {
	normals := []core.Vec3{
		core.NewVec3(0, 1, 0),
		core.NewVec3(1, 1, 0).Normalize(),
		core.NewVec3(0, 0, 1),
		core.NewVec3(0, -1, 0),
		core.NewVec3(0.3, 0.9, -0.2).Normalize(),
	}
	cameraUps := []core.Vec3{core.NewVec3(0, 1, 0), core.NewVec3(0, 0.7, 0.7).Normalize()}

	for _, n := range normals {
		for _, up := range cameraUps {
			for _, yaw := range []float64{0, 45, 180, 359} {
				q := Orientation(n, up, yaw)
				assert.InDelta(t, 1, q.Len(), 1e-9)
				assertVecNear(t, n, core.UpAxis(q), fmt.Sprintf("normal=%v cameraUp=%v yaw=%v", n, up, yaw))
			}
		}
	}
}

func TestOrientation_Yaw(t *testing.T) {
	up := core.NewVec3(0, 1, 0)
	camUp := core.NewVec3(0, 0, 1)

	assertVecNear(t, core.NewVec3(1, 0, 0), core.ForwardAxis(Orientation(up, camUp, 0)))
	assertVecNear(t, core.NewVec3(0, 0, -1), core.ForwardAxis(Orientation(up, camUp, 90)))
	assertVecNear(t, core.NewVec3(-1, 0, 0), core.ForwardAxis(Orientation(up, camUp, 180)))

	full := Orientation(up, camUp, 360)
	assert.InDelta(t, 0, math.Abs(full.Dot(Orientation(up, camUp, 0)))-1, 1e-9, "yaw 360 is yaw 0")
}
