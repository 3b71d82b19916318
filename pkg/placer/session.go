package placer

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// Persisted setting keys
const (
	KeyRadius      = "tools.placer.radius"
	KeySampleCount = "tools.placer.spawn_count"
)

const (
	DefaultRadius      = 1.0
	DefaultSampleCount = 10
	MinRadius          = 0.1

	// ScrollStep is the relative radius change per scroll notch
	ScrollStep = 0.05
)

// State is the interactive state of a session
type State int

const (
	Idle State = iota
	Previewing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Previewing:
		return "previewing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Collaborators are the host services a session depends on
type Collaborators struct {
	Scene     SceneQuery
	Instances Instantiator
	Items     ItemCatalog
	Settings  Settings
}

// Options configures a session
type Options struct {
	ItemDir string       // Directory passed to ItemCatalog.EnumerateItems
	Sampler core.Sampler // Random source, seeded from time if nil
	Logger  core.Logger  // Required
}

// Frame is the result of one OnFrame call
type Frame struct {
	Surface    *Hit // nil when the cursor ray missed
	Candidates []Candidate
}

// ValidCount returns the number of candidates that would be committed
func (f Frame) ValidCount() int {
	n := 0
	for _, c := range f.Candidates {
		if c.Valid && c.Item != NoItem {
			n++
		}
	}
	return n
}

type frameInput struct {
	cursor   core.Ray
	cameraUp core.Vec3
}

// Session owns the brush parameters, the item selection and the current
// sample batch. All methods must be called from the host's event loop.
type Session struct {
	collab   Collaborators
	pipeline *Pipeline
	sampler  *DiscSampler
	logger   core.Logger
	itemDir  string

	radius      float64
	sampleCount int
	available   []ItemRef
	selection   []ItemRef
	batch       Batch
	state       State
	last        *frameInput
}

// NewSession creates a closed session. Call Open before the first frame.
func NewSession(collab Collaborators, opts Options) *Session {
	sampler := opts.Sampler
	if sampler == nil {
		sampler = core.NewSeededSampler(time.Now().UnixNano())
	}
	return &Session{
		collab:      collab,
		pipeline:    NewPipeline(collab.Scene, collab.Items),
		sampler:     NewDiscSampler(sampler),
		logger:      opts.Logger,
		itemDir:     opts.ItemDir,
		radius:      DefaultRadius,
		sampleCount: DefaultSampleCount,
	}
}

// Pipeline exposes the session's projection pipeline for tuning
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Open loads the persisted brush settings, discovers the available items and
// generates the first batch. A failed item discovery leaves the session
// usable with no items and is returned.
func (s *Session) Open() error {
	if s.collab.Settings != nil {
		s.radius = math.Max(MinRadius, s.collab.Settings.Float(KeyRadius, DefaultRadius))
		s.sampleCount = max(0, s.collab.Settings.Int(KeySampleCount, DefaultSampleCount))
	}

	var err error
	s.available, err = s.collab.Items.EnumerateItems(s.itemDir)
	if err != nil {
		s.available = nil
		err = fmt.Errorf("placer: enumerate items in %q: %w", s.itemDir, err)
		s.logger.Warnf("%v", err)
	}

	s.logger.Infof("Placer opened: radius=%.2f count=%d items=%d", s.radius, s.sampleCount, len(s.available))
	s.state = Idle
	s.last = nil
	s.OnParameterChanged()
	return err
}

// Close persists the brush settings
func (s *Session) Close() error {
	s.state = Idle
	s.last = nil
	if s.collab.Settings == nil {
		return nil
	}
	s.collab.Settings.SetFloat(KeyRadius, s.radius)
	s.collab.Settings.SetInt(KeySampleCount, s.sampleCount)
	if err := s.collab.Settings.Save(); err != nil {
		return fmt.Errorf("placer: save settings: %w", err)
	}
	return nil
}

func (s *Session) State() State              { return s.state }
func (s *Session) Radius() float64           { return s.radius }
func (s *Session) SampleCount() int          { return s.sampleCount }
func (s *Session) Batch() Batch              { return s.batch }
func (s *Session) Available() []ItemRef      { return slices.Clone(s.available) }
func (s *Session) Selection() []ItemRef      { return slices.Clone(s.selection) }
func (s *Session) IsSelected(r ItemRef) bool { return slices.Contains(s.selection, r) }

// SetRadius changes the brush radius, clamped to MinRadius
func (s *Session) SetRadius(r float64) {
	s.radius = math.Max(MinRadius, r)
	s.OnParameterChanged()
}

// SetSampleCount changes the number of samples per batch, clamped to 0
func (s *Session) SetSampleCount(n int) {
	s.sampleCount = max(0, n)
	s.OnParameterChanged()
}

// Scroll resizes the brush by ScrollStep per notch. Scrolling with Alt held
// belongs to the host camera and is ignored. Reports whether the radius changed.
func (s *Session) Scroll(delta float64, altHeld bool) bool {
	if altHeld || delta == 0 {
		return false
	}
	factor := 1 + ScrollStep
	if delta < 0 {
		factor = 1 - ScrollStep
	}
	r := math.Max(MinRadius, s.radius*factor)
	if r == s.radius {
		return false
	}
	s.SetRadius(r)
	return true
}

// ToggleItem adds or removes an item from the selection and reports whether
// it is now selected. Items that were not discovered are ignored.
func (s *Session) ToggleItem(item ItemRef) bool {
	if !slices.Contains(s.available, item) {
		return false
	}
	selected := true
	if i := slices.Index(s.selection, item); i >= 0 {
		s.selection = slices.Delete(s.selection, i, i+1)
		selected = false
	} else {
		s.selection = append(s.selection, item)
	}
	s.OnParameterChanged()
	return selected
}

// OnParameterChanged discards the current batch and generates a new one.
// The new batch has not been previewed yet, so OnCommit does nothing until
// the next OnFrame.
func (s *Session) OnParameterChanged() {
	s.batch = s.sampler.Generate(s.sampleCount, s.selection)
	s.last = nil

	report := MeasureSpacing(s.batch)
	s.logger.Debugf("Generated %d samples: d_min=%.4f redraws=%d exhausted=%d closest=%.4f",
		len(s.batch.Samples), s.batch.MinSpacing, s.batch.Redraws, len(s.batch.Exhausted), report.MinDistance)
}

// OnUndoRedo refreshes the batch after the host changed the scene
func (s *Session) OnUndoRedo() {
	s.OnParameterChanged()
}

// OnFrame evaluates the batch under the cursor and draws the preview
func (s *Session) OnFrame(cursor core.Ray, cameraUp core.Vec3, d Drawer) Frame {
	if d == nil {
		d = NopDrawer{}
	}

	hit, ok := s.collab.Scene.Raycast(cursor.Origin, cursor.Direction, math.Inf(1))
	if !ok {
		s.state = Idle
		s.last = nil
		return Frame{}
	}

	s.state = Previewing
	s.last = &frameInput{cursor: cursor, cameraUp: cameraUp}

	frame := Frame{
		Surface:    &hit,
		Candidates: s.pipeline.Evaluate(s.batch.Samples, &hit, cameraUp, s.radius),
	}

	d.DrawBrush(hit.Point, hit.Normal, s.radius)
	for _, c := range frame.Candidates {
		if c.Item == NoItem {
			continue
		}
		if c.Valid {
			d.DrawPreview(c.Item, c.Position, c.Rotation)
		} else {
			d.DrawRejected(c.Item, c.Position, c.Normal, c.Height)
		}
	}
	return frame
}

// OnCommit instantiates every valid candidate of the batch shown by the last
// OnFrame and regenerates the batch. It does nothing when the batch changed
// since that frame. Instances are raised along their up axis by the
// item's pivot offset. Failed instantiations do not stop the others; their
// errors are joined.
func (s *Session) OnCommit() ([]uuid.UUID, error) {
	if s.last == nil {
		return nil, nil
	}

	hit, ok := s.collab.Scene.Raycast(s.last.cursor.Origin, s.last.cursor.Direction, math.Inf(1))
	if !ok {
		s.state = Idle
		s.last = nil
		return nil, nil
	}

	s.state = Committing
	candidates := s.pipeline.Evaluate(s.batch.Samples, &hit, s.last.cameraUp, s.radius)

	var handles []uuid.UUID
	var errs []error
	for _, c := range candidates {
		if !c.Valid || c.Item == NoItem {
			continue
		}
		position := c.Position.Add(core.UpAxis(c.Rotation).Multiply(s.collab.Items.PivotOffset(c.Item)))
		handle, err := s.collab.Instances.Instantiate(c.Item, position, c.Rotation)
		if err != nil {
			errs = append(errs, fmt.Errorf("placer: instantiate %s: %w", c.Item, err))
			continue
		}
		handles = append(handles, handle)
	}

	s.logger.Infof("Committed %d instances (%d failed)", len(handles), len(errs))

	s.OnParameterChanged()
	s.state = Previewing
	return handles, errors.Join(errs...)
}
