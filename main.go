package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/host"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/prefs"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// pointList collects repeated -at x,z flags
type pointList []core.Vec2

func (p *pointList) String() string {
	parts := make([]string, len(*p))
	for i, v := range *p {
		parts[i] = fmt.Sprintf("%g,%g", v.X, v.Y)
	}
	return strings.Join(parts, " ")
}

func (p *pointList) Set(value string) error {
	point, err := parsePoint(value)
	if err != nil {
		return err
	}
	*p = append(*p, point)
	return nil
}

// parsePoint parses "x,z"
func parsePoint(value string) (core.Vec2, error) {
	fields := strings.Split(value, ",")
	if len(fields) != 2 {
		return core.Vec2{}, fmt.Errorf("expected x,z, got %q", value)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return core.Vec2{}, fmt.Errorf("invalid x in %q: %w", value, err)
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return core.Vec2{}, fmt.Errorf("invalid z in %q: %w", value, err)
	}
	return core.NewVec2(x, z), nil
}

// parseSelection splits a comma separated item list
func parseSelection(value string) []placer.ItemRef {
	var items []placer.ItemRef
	for _, field := range strings.Split(value, ",") {
		if field = strings.TrimSpace(field); field != "" {
			items = append(items, placer.ItemRef(field))
		}
	}
	return items
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scatter-placer", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var (
		flags  prefs.Flags
		points pointList
	)
	configPath := fs.String("config", "", "YAML config file; flags override its values")
	fs.StringVar(&flags.Scene, "scene", "", "Built-in scene id, file:<name> or path to a YAML scene (default flat)")
	fs.StringVar(&flags.ItemDir, "items", "", "Directory of item descriptors (default: built-in items)")
	fs.StringVar(&flags.PrefsFile, "prefs", "", "Settings file, or 'none' to keep settings in memory")
	fs.StringVar(&flags.Output, "out", "", "Write a preview image (.png or .webp)")
	fs.IntVar(&flags.Width, "width", 0, "Preview width in pixels (default 512)")
	fs.IntVar(&flags.Height, "height", 0, "Preview height in pixels (default width)")
	fs.Float64Var(&flags.Extent, "extent", 0, "World width shown by the preview (default 20)")
	fs.IntVar(&flags.Workers, "workers", 0, "Preview workers (default one per CPU)")
	fs.Int64Var(&flags.Seed, "seed", 0, "Random seed for repeatable batches")
	fs.BoolVar(&flags.Debug, "debug", false, "Development logging")
	fs.Var(&points, "at", "Brush position x,z (repeatable)")
	count := fs.Int("count", -1, "Samples per batch (persisted)")
	radius := fs.Float64("radius", 0, "Brush radius (persisted)")
	selection := fs.String("select", "", "Comma separated items to scatter")
	commit := fs.Bool("commit", false, "Place the valid candidates at every -at position")
	list := fs.Bool("list", false, "List scenes and items, then exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var cfg prefs.Config
	if *configPath != "" {
		loaded, err := prefs.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Resolve(flags)

	logger, err := host.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}

	ws, err := host.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	if *list {
		return listAll(stdout, ws)
	}

	if *count >= 0 {
		ws.Session.SetSampleCount(*count)
	}
	if *radius > 0 {
		ws.Session.SetRadius(*radius)
	}
	if *selection != "" {
		if err := ws.Select(parseSelection(*selection)); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Scene %q, radius %.2f, %d samples, items %v\n",
		ws.Scene.Name, ws.Session.Radius(), ws.Session.SampleCount(), ws.Session.Selection())

	cameraUp := ws.Scene.View.Up
	for _, p := range points {
		frame := ws.Session.OnFrame(ws.RayAt(p.X, p.Y), cameraUp, nil)
		if frame.Surface == nil {
			fmt.Fprintf(stdout, "  (%g, %g): no surface under the brush\n", p.X, p.Y)
			continue
		}
		batch := ws.Session.Batch()
		report := placer.MeasureSpacing(batch)
		fmt.Fprintf(stdout, "  (%g, %g): %d/%d candidates valid, closest pair %.3f (d_min %.3f, %d redraws)\n",
			p.X, p.Y, frame.ValidCount(), len(frame.Candidates), report.MinDistance, batch.MinSpacing, batch.Redraws)

		if *commit {
			placed, err := ws.Commit()
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "    placed %d items\n", placed)
		}
	}

	if cfg.Output != "" {
		if err := writePreview(ws, points, cfg); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Preview saved as %s\n", cfg.Output)
	}

	fmt.Fprintf(stdout, "%d instances in the scene\n", len(ws.Scene.Instances()))
	return nil
}

// writePreview renders the scene and, at the last brush position, the
// placer preview
func writePreview(ws *host.Workspace, points pointList, cfg prefs.Config) error {
	var at *core.Vec2
	if len(points) > 0 {
		last := points[len(points)-1]
		at = &last
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	canvas, _, err := ws.Preview(ctx, at, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	return canvas.Save(cfg.Output)
}

func listAll(w io.Writer, ws *host.Workspace) error {
	groups, err := scene.ListAllScenes(ws.Config.SceneDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Scenes:")
	for _, group := range groups {
		fmt.Fprintf(w, "  %s\n", group.Name)
		for _, s := range group.Scenes {
			fmt.Fprintf(w, "    %-20s %s\n", s.ID, s.Description)
		}
	}

	fmt.Fprintln(w, "Items:")
	for _, ref := range ws.Session.Available() {
		desc, err := ws.Catalog.Item(ref)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s height=%.2f pivot=%.2f\n", ref, desc.Glyph, desc.BoundingHeight(), desc.PivotOffset)
	}
	return nil
}
