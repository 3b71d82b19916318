package placer

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-scatter-placer/pkg/core"
)

const (
	// DefaultProbeLift raises each probe above the brush plane so slopes and
	// small steps inside the brush are still found by the downward ray
	DefaultProbeLift = 2.0

	// DefaultProbeDistance bounds the downward probe
	DefaultProbeDistance = 6.0
)

// Pipeline projects disc samples onto the scene and validates them
type Pipeline struct {
	Query         SceneQuery
	Heights       HeightSource
	ProbeLift     float64
	ProbeDistance float64
}

// NewPipeline creates a pipeline with the default probe geometry
func NewPipeline(query SceneQuery, heights HeightSource) *Pipeline {
	return &Pipeline{
		Query:         query,
		Heights:       heights,
		ProbeLift:     DefaultProbeLift,
		ProbeDistance: DefaultProbeDistance,
	}
}

// Evaluate resolves every sample against the scene around surface.
//
// Samples whose downward probe finds nothing are dropped. The rest come back
// in batch order, marked invalid when a ray cast along their normal hits
// geometry within the item's bounding height. A nil surface yields no
// candidates.
func (p *Pipeline) Evaluate(samples []Sample, surface *Hit, cameraUp core.Vec3, radius float64) []Candidate {
	if surface == nil || len(samples) == 0 {
		return nil
	}

	frame := NewTangentFrame(surface.Normal, cameraUp)
	candidates := make([]Candidate, 0, len(samples))

	for i, s := range samples {
		if c, ok := p.evaluateSample(i, s, surface.Point, frame, cameraUp, radius); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func (p *Pipeline) evaluateSample(index int, s Sample, center core.Vec3, frame TangentFrame, cameraUp core.Vec3, radius float64) (Candidate, bool) {
	probe := center.
		Add(frame.ToWorld(s.PointInDisc).Multiply(radius)).
		Add(frame.Normal.Multiply(p.ProbeLift))

	ground, ok := p.Query.Raycast(probe, frame.Normal.Negate(), p.ProbeDistance)
	if !ok {
		return Candidate{}, false
	}

	c := Candidate{
		Sample:   index,
		Position: ground.Point,
		Normal:   ground.Normal,
		Rotation: mgl64.QuatIdent(),
		Item:     s.Item,
		Height:   p.boundingHeight(s.Item),
	}

	if c.Height > 0 {
		if _, blocked := p.Query.Raycast(ground.Point, ground.Normal, c.Height); blocked {
			return c, true
		}
	}

	c.Valid = true
	c.Rotation = Orientation(ground.Normal, cameraUp, s.RotationDeg)
	return c, true
}

func (p *Pipeline) boundingHeight(item ItemRef) float64 {
	if item == NoItem || p.Heights == nil {
		return 0
	}
	return p.Heights.BoundingHeight(item)
}
