// Package host wires a scene, an item catalog, persisted settings and a
// placer session together for the front ends.
package host

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/prefs"
	"github.com/df07/go-scatter-placer/pkg/preview"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

// NoPrefs as the prefs file keeps settings in memory only
const NoPrefs = "none"

// NewLogger builds a development logger (console, debug level) or a
// production logger (JSON, info level)
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewFileLogger is NewLogger writing to a file, for front ends that own the
// terminal
func NewFileLogger(path string, debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.Sugar(), nil
}

// CreateScene creates a scene from a built-in id, a "file:<name>" id from
// scene discovery, or a path to a YAML scene file
func CreateScene(id, sceneDir string, proxies scene.ProxyFactory, logger core.Logger) (*scene.Scene, error) {
	if id == "" {
		return nil, fmt.Errorf("scene name is empty")
	}

	if name, ok := strings.CutPrefix(id, "file:"); ok {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(sceneDir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return scene.LoadFile(path, proxies, logger)
			}
		}
		return nil, fmt.Errorf("scene file %q not found in %s", name, sceneDir)
	}

	switch strings.ToLower(filepath.Ext(id)) {
	case ".yaml", ".yml":
		return scene.LoadFile(id, proxies, logger)
	}
	return scene.NewBuiltin(id, proxies, logger)
}

// Workspace is an open scene with a placer session over it
type Workspace struct {
	Config   prefs.Config
	Logger   *zap.SugaredLogger
	Catalog  *scene.Catalog
	Scene    *scene.Scene
	Settings placer.Settings
	Session  *placer.Session
}

// Open creates the workspace described by cfg, which should already be
// resolved. Item discovery failures are logged and leave the session with
// no items.
func Open(cfg prefs.Config, logger *zap.SugaredLogger) (*Workspace, error) {
	catalog := scene.NewCatalog(logger)
	if cfg.ItemDir == "" {
		scene.RegisterDefaultItems(catalog)
	}

	s, err := CreateScene(cfg.Scene, cfg.SceneDir, catalog, logger)
	if err != nil {
		return nil, err
	}

	var settings placer.Settings = prefs.NewMemoryStore()
	if cfg.PrefsFile != "" && cfg.PrefsFile != NoPrefs {
		store, err := prefs.Open(cfg.PrefsFile)
		if err != nil {
			return nil, err
		}
		settings = store
	}

	var sampler core.Sampler
	if cfg.Seed != 0 {
		sampler = core.NewSeededSampler(cfg.Seed)
	}

	session := placer.NewSession(placer.Collaborators{
		Scene:     s,
		Instances: s,
		Items:     catalog,
		Settings:  settings,
	}, placer.Options{ItemDir: cfg.ItemDir, Sampler: sampler, Logger: logger})
	// The error is logged by the session and it stays usable
	_ = session.Open()

	logger.Infof("Opened scene %q with %d items", s.Name, len(session.Available()))
	return &Workspace{
		Config:   cfg,
		Logger:   logger,
		Catalog:  catalog,
		Scene:    s,
		Settings: settings,
		Session:  session,
	}, nil
}

// RayAt returns a ray straight down onto the world point (x, z), starting
// above everything in the scene
func (w *Workspace) RayAt(x, z float64) core.Ray {
	top := w.Scene.Bounds().Max.Y
	if math.IsInf(top, 0) || math.IsNaN(top) || top > 1e5 {
		top = 1e5
	}
	return core.NewRay(core.NewVec3(x, top+1, z), core.WorldUp.Negate())
}

// Preview renders a width x height top-down image of the scene. When at is
// set the view is centred on that (x, z) point and the session draws its
// brush and candidates there, which also makes it the commit position.
func (w *Workspace) Preview(ctx context.Context, at *core.Vec2, width, height int) (*preview.Canvas, preview.RasterStats, error) {
	view := w.Scene.View
	if at != nil {
		offset := core.NewVec3(at.X, 0, at.Y).Subtract(core.NewVec3(view.Target.X, 0, view.Target.Z))
		view.Eye = view.Eye.Add(offset)
		view.Target = view.Target.Add(offset)
	}

	canvas := preview.NewCanvas(preview.NewCamera(view, w.Config.Extent, width, height), preview.Options{
		Supersample: w.Config.Supersample,
		Workers:     w.Config.Workers,
		Styles:      w.Catalog,
		Logger:      w.Logger,
	})
	stats, err := canvas.Render(ctx, w.Scene)
	if err != nil {
		return nil, stats, err
	}

	if at != nil {
		w.Session.OnFrame(w.RayAt(at.X, at.Y), canvas.Camera().Up(), canvas)
	}
	return canvas, stats, nil
}

// Commit places the current candidates as one undo step
func (w *Workspace) Commit() (int, error) {
	w.Scene.BeginGroup(fmt.Sprintf("Scatter %d", w.Session.SampleCount()))
	handles, err := w.Session.OnCommit()
	w.Scene.EndGroup()
	if err != nil {
		w.Logger.Warnf("Commit placed %d items with errors: %v", len(handles), err)
	}
	return len(handles), err
}

// Undo reverts the last scene change and refreshes the session
func (w *Workspace) Undo() (string, error) {
	label, err := w.Scene.Undo()
	if err != nil {
		return "", err
	}
	w.Session.OnUndoRedo()
	return label, nil
}

// Redo reapplies the last undone change and refreshes the session
func (w *Workspace) Redo() (string, error) {
	label, err := w.Scene.Redo()
	if err != nil {
		return "", err
	}
	w.Session.OnUndoRedo()
	return label, nil
}

// Select replaces the session's item selection. An unknown item leaves the
// selection unchanged.
func (w *Workspace) Select(items []placer.ItemRef) error {
	available := w.Session.Available()
	for _, item := range items {
		if !slices.Contains(available, item) {
			return fmt.Errorf("%w: %q", scene.ErrUnknownItem, item)
		}
	}

	for _, item := range w.Session.Selection() {
		w.Session.ToggleItem(item)
	}
	for _, item := range items {
		if !w.Session.IsSelected(item) {
			w.Session.ToggleItem(item)
		}
	}
	return nil
}

// Close persists the session settings
func (w *Workspace) Close() error {
	err := w.Session.Close()
	// Sync fails on terminals; nothing useful to do about it
	_ = w.Logger.Sync()
	return err
}
