package placer

import (
	"math"

	"github.com/df07/go-scatter-placer/pkg/core"
)

const (
	// DefaultMaxTries is the redraw budget for each pair of points
	DefaultMaxTries = 10

	// SpacingFactor scales the mean spacing of N points in the unit disc
	SpacingFactor = 0.30
)

// MinSpacing returns the target distance between any two of n disc points.
// √(π/n) is the side of the square cell each point would own if the disc
// area were split evenly.
func MinSpacing(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Sqrt(math.Pi/float64(n)) * SpacingFactor
}

// DiscSampler generates brush layouts in the unit disc
type DiscSampler struct {
	sampler  core.Sampler
	MaxTries int // Redraw budget per pair check
}

// NewDiscSampler creates a disc sampler drawing from the given random source
func NewDiscSampler(sampler core.Sampler) *DiscSampler {
	return &DiscSampler{sampler: sampler, MaxTries: DefaultMaxTries}
}

// Generate returns exactly count samples with a random yaw and an item drawn
// uniformly from pool.
//
// Each new point is compared against all earlier points in index order. When
// it lands closer than MinSpacing(count) to point j and the pair (j, i) still
// has budget, the point is redrawn and the scan restarts from the first point.
// Pairs whose budget runs out are skipped and, if still too close, reported
// in Batch.Exhausted.
func (d *DiscSampler) Generate(count int, pool []ItemRef) Batch {
	if count <= 0 {
		return Batch{}
	}

	batch := Batch{
		Samples:    make([]Sample, count),
		MinSpacing: MinSpacing(count),
	}
	tries := make([]int, count)

	for i := 0; i < count; i++ {
		s := Sample{
			PointInDisc: d.drawPoint(),
			RotationDeg: d.sampler.Get1D() * 360,
			Item:        NoItem,
		}
		if len(pool) > 0 {
			s.Item = pool[core.SampleIndex(d.sampler.Get1D(), len(pool))]
		}

		clear(tries[:i])
		for {
			j := d.firstCrowded(batch.Samples[:i], s.PointInDisc, batch.MinSpacing, tries)
			if j < 0 {
				break
			}
			s.PointInDisc = d.drawPoint()
			tries[j]++
			batch.Redraws++
		}

		for j := 0; j < i; j++ {
			if tries[j] >= d.MaxTries && batch.Samples[j].PointInDisc.Distance(s.PointInDisc) < batch.MinSpacing {
				batch.Exhausted = append(batch.Exhausted, PairIndex{I: j, J: i})
			}
		}

		batch.Samples[i] = s
	}

	return batch
}

// firstCrowded returns the first earlier point closer than minSpacing whose
// pair budget is not yet spent, or -1
func (d *DiscSampler) firstCrowded(prior []Sample, p core.Vec2, minSpacing float64, tries []int) int {
	for j := range prior {
		if tries[j] >= d.MaxTries {
			continue
		}
		if prior[j].PointInDisc.Distance(p) < minSpacing {
			return j
		}
	}
	return -1
}

func (d *DiscSampler) drawPoint() core.Vec2 {
	return core.SamplePointInUnitDisk(d.sampler.Get2D())
}
