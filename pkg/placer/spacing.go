package placer

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SpacingReport summarizes how well a batch met its spacing target
type SpacingReport struct {
	MinDistance float64     // Closest pair distance, +Inf with fewer than two samples
	Threshold   float64     // The batch's MinSpacing
	Violations  []PairIndex // Pairs closer than Threshold
}

// MeasureSpacing computes pairwise distances of a batch's disc points
func MeasureSpacing(batch Batch) SpacingReport {
	report := SpacingReport{
		MinDistance: math.Inf(1),
		Threshold:   batch.MinSpacing,
	}

	points := make([]orb.Point, len(batch.Samples))
	for i, s := range batch.Samples {
		points[i] = orb.Point{s.PointInDisc.X, s.PointInDisc.Y}
	}

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			d := planar.Distance(points[i], points[j])
			report.MinDistance = math.Min(report.MinDistance, d)
			if d < report.Threshold {
				report.Violations = append(report.Violations, PairIndex{I: i, J: j})
			}
		}
	}
	return report
}

// Satisfied reports whether every pair met the threshold
func (r SpacingReport) Satisfied() bool {
	return len(r.Violations) == 0
}
