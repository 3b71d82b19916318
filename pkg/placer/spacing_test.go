package placer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-scatter-placer/pkg/core"
)

func TestMeasureSpacing(t *testing.T) {
	batch := Batch{
		MinSpacing: 0.5,
		Samples: []Sample{
			{PointInDisc: core.NewVec2(0, 0)},
			{PointInDisc: core.NewVec2(0, 0.5)},
			{PointInDisc: core.NewVec2(-0.9, 0)},
		},
	}

	report := MeasureSpacing(batch)
	assert.InDelta(t, 0.5, report.MinDistance, 1e-12)
	assert.True(t, report.Satisfied(), "distance equal to the threshold is not a violation")

	batch.MinSpacing = 0.6
	report = MeasureSpacing(batch)
	assert.Equal(t, []PairIndex{{I: 0, J: 1}}, report.Violations)
	assert.False(t, report.Satisfied())
}

func TestMeasureSpacing_Small(t *testing.T) {
	assert.True(t, math.IsInf(MeasureSpacing(Batch{}).MinDistance, 1))

	one := Batch{Samples: []Sample{{PointInDisc: core.NewVec2(0.1, 0.1)}}}
	assert.True(t, MeasureSpacing(one).Satisfied())
}

func TestMeasureSpacing_AgreesWithExhaustedPairs(t *testing.T) {
	batch := NewDiscSampler(core.NewSeededSampler(3)).Generate(300, nil)
	report := MeasureSpacing(batch)

	exhausted := map[PairIndex]bool{}
	for _, p := range batch.Exhausted {
		exhausted[p] = true
	}
	for _, v := range report.Violations {
		assert.True(t, exhausted[v], "violation %v was not reported as exhausted", v)
	}
}
