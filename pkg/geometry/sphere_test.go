package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-scatter-placer/pkg/core"
)

func TestSphere_Hit(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0)

	tests := []struct {
		name           string
		ray            core.Ray
		shouldHit      bool
		expectedT      float64
		expectedNormal core.Vec3
		expectedFront  bool
	}{
		{
			name:           "hit from outside",
			ray:            core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0)),
			shouldHit:      true,
			expectedT:      2,
			expectedNormal: core.NewVec3(0, 1, 0),
			expectedFront:  true,
		},
		{
			name:           "hit from inside",
			ray:            core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),
			shouldHit:      true,
			expectedT:      1,
			expectedNormal: core.NewVec3(0, -1, 0),
			expectedFront:  false,
		},
		{
			name:      "miss",
			ray:       core.NewRay(core.NewVec3(2, 3, 0), core.NewVec3(0, -1, 0)),
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(tt.ray, 0.001, 100)
			if isHit != tt.shouldHit {
				t.Fatalf("Expected hit=%t, got %t", tt.shouldHit, isHit)
			}
			if !isHit {
				return
			}
			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, hit.T)
			}
			if !hit.Normal.ApproxEqual(tt.expectedNormal, 1e-9) {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
			if hit.FrontFace != tt.expectedFront {
				t.Errorf("Expected front face %t, got %t", tt.expectedFront, hit.FrontFace)
			}
		})
	}
}

func TestSphere_BoundingBox(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 0.5)
	bbox := sphere.BoundingBox()

	if bbox.Min != core.NewVec3(0.5, 1.5, 2.5) || bbox.Max != core.NewVec3(1.5, 2.5, 3.5) {
		t.Errorf("Unexpected bounding box %v", bbox)
	}
}
