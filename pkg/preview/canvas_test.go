package preview

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

func newTestCanvas(t *testing.T) (*Canvas, *scene.Scene, *scene.Catalog) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	catalog := scene.NewCatalog(logger)
	scene.RegisterDefaultItems(catalog)
	s := scene.NewFlatScene(catalog, logger)

	canvas := NewCanvas(NewCamera(topDownView(), 20, 32, 32), Options{
		Supersample: 2,
		TileSize:    8,
		Workers:     3,
		Styles:      catalog,
		Logger:      logger,
	})
	return canvas, s, catalog
}

func TestCanvas_RenderFlatScene(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)

	stats, err := canvas.Render(context.Background(), s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stats.TotalPixels != 64*64 {
		t.Errorf("Expected %d supersampled pixels, got %d", 64*64, stats.TotalPixels)
	}
	if stats.Coverage() != 1 {
		t.Errorf("Expected the ground to cover the view, got %f", stats.Coverage())
	}
	if stats.InstancePixels != 0 {
		t.Errorf("Expected no instance pixels, got %d", stats.InstancePixels)
	}
}

func TestCanvas_RenderInstances(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)
	if _, err := s.Instantiate("bush", core.Vec3{}, mgl64.QuatIdent()); err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	stats, err := canvas.Render(context.Background(), s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stats.InstancePixels == 0 {
		t.Fatal("Expected the bush to cover some pixels")
	}
	if stats.MaxHeight < 0.69 {
		t.Errorf("Expected the bush top in the height range, got %f", stats.MaxHeight)
	}

	img := canvas.Image()
	if img.RGBAAt(16, 16) == img.RGBAAt(1, 1) {
		t.Error("Expected the bush to be drawn differently from the ground")
	}
}

func TestCanvas_RenderCancelled(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := canvas.Render(ctx, s)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCanvas_DrawsSessionPreview(t *testing.T) {
	canvas, s, catalog := newTestCanvas(t)
	if _, err := canvas.Render(context.Background(), s); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	session := placer.NewSession(placer.Collaborators{Scene: s, Instances: s, Items: catalog},
		placer.Options{Sampler: core.NewSeededSampler(3), Logger: zap.NewNop().Sugar()})
	if err := session.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ground := canvas.img.RGBAAt(63, 63)
	cursor := core.NewRay(core.NewVec3(0, 10, 0), core.NewVec3(0, -1, 0))
	session.OnFrame(cursor, canvas.Camera().Up(), canvas)

	counts := canvas.Counts()
	if counts.Brushes != 1 || counts.Previews != 0 {
		t.Errorf("Expected only the brush without a selection, got %+v", counts)
	}
	centre := canvas.img.RGBAAt(32, 32)
	if centre.B <= ground.B {
		t.Errorf("Expected the brush to tint the centre blue, got %v over %v", centre, ground)
	}

	session.ToggleItem("rock")
	frame := session.OnFrame(cursor, canvas.Camera().Up(), canvas)
	counts = canvas.Counts()
	if counts.Previews != frame.ValidCount() || counts.Previews == 0 {
		t.Errorf("Expected %d previews, got %+v", frame.ValidCount(), counts)
	}
}

func TestCanvas_DrawRejected(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)
	if _, err := canvas.Render(context.Background(), s); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	before := canvas.img.RGBAAt(32, 32)
	canvas.DrawRejected("pine", core.Vec3{}, core.NewVec3(0, 1, 0), 2.6)
	after := canvas.img.RGBAAt(32, 32)

	if after.R <= before.R {
		t.Errorf("Expected a red cross at the centre, got %v over %v", after, before)
	}
	if canvas.Counts().Rejected != 1 {
		t.Errorf("Expected one rejection, got %+v", canvas.Counts())
	}
}

func TestCanvas_Encode(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)
	if _, err := canvas.Render(context.Background(), s); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var buf bytes.Buffer
	if err := canvas.Encode(&buf, FormatPNG); err != nil {
		t.Fatalf("PNG encode failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("PNG decode failed: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("Expected a 32x32 image, got %v", img.Bounds())
	}

	buf.Reset()
	if err := canvas.Encode(&buf, FormatWebP); err != nil {
		t.Fatalf("WebP encode failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Error("Expected a RIFF container")
	}

	if err := canvas.Encode(&buf, Format("gif")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestCanvas_Save(t *testing.T) {
	canvas, s, _ := newTestCanvas(t)
	if _, err := canvas.Render(context.Background(), s); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	dir := t.TempDir()

	path := filepath.Join(dir, "preview.webp")
	if err := canvas.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected a non-empty file, got %v %v", info, err)
	}

	if err := canvas.Save(filepath.Join(dir, "preview.bmp")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"dir/out.webp", FormatWebP, false},
		{"out.jpg", "", true},
		{"out", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if format != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, format)
			}
		})
	}
}
