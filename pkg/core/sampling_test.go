package core

import (
	"math"
	"testing"
)

func TestSamplePointInUnitDisk_StaysInside(t *testing.T) {
	sampler := NewSeededSampler(42)

	for i := 0; i < 10000; i++ {
		p := SamplePointInUnitDisk(sampler.Get2D())
		if p.LengthSquared() > 1.0+1e-12 {
			t.Fatalf("Sample %d outside unit disk: %v", i, p)
		}
	}
}

func TestSamplePointInUnitDisk_UniformDensity(t *testing.T) {
	// The inner disc of radius 1/√2 holds half the area
	sampler := NewSeededSampler(7)
	const n = 20000
	inner := 0
	for i := 0; i < n; i++ {
		if SamplePointInUnitDisk(sampler.Get2D()).LengthSquared() < 0.5 {
			inner++
		}
	}

	fraction := float64(inner) / n
	if math.Abs(fraction-0.5) > 0.02 {
		t.Errorf("Expected about half the samples in the inner disc, got %.3f", fraction)
	}
}

func TestSamplePointInUnitDisk_Corners(t *testing.T) {
	tests := []struct {
		name     string
		sample   Vec2
		expected Vec2
	}{
		{"center", NewVec2(0.5, 0.5), NewVec2(0, 0)},
		{"right edge", NewVec2(1, 0.5), NewVec2(1, 0)},
		{"top edge", NewVec2(0.5, 1), NewVec2(0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SamplePointInUnitDisk(tt.sample)
			if got.Distance(tt.expected) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSampleIndex(t *testing.T) {
	tests := []struct {
		sample   float64
		n        int
		expected int
	}{
		{0, 3, 0},
		{0.999999, 3, 2},
		{1.0, 3, 2},
		{0.5, 4, 2},
		{0.5, 0, -1},
	}

	for _, tt := range tests {
		if got := SampleIndex(tt.sample, tt.n); got != tt.expected {
			t.Errorf("SampleIndex(%v, %d) = %d, expected %d", tt.sample, tt.n, got, tt.expected)
		}
	}
}
