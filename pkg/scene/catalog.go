package scene

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/geometry"
	"github.com/df07/go-scatter-placer/pkg/loaders"
	"github.com/df07/go-scatter-placer/pkg/placer"
)

// ErrUnknownItem is returned when an item reference is not in the catalog
var ErrUnknownItem = errors.New("unknown item")

// Part is one visual piece of an item template
type Part struct {
	Name       string  `yaml:"name"`
	OffsetY    float64 `yaml:"offset_y"`     // Part origin height above the item origin
	BoundsMaxY float64 `yaml:"bounds_max_y"` // Top of the part's local bounds
	ScaleY     float64 `yaml:"scale_y"`      // Vertical scale, 0 means 1
}

// ItemDescriptor describes a placeable item template
type ItemDescriptor struct {
	ID          placer.ItemRef `yaml:"-"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	PivotOffset float64        `yaml:"pivot_offset"` // Height of the origin above the item's base
	Footprint   float64        `yaml:"footprint"`    // Width of the collision proxy
	Glyph       string         `yaml:"glyph"`
	Color       string         `yaml:"color"` // #rrggbb
	Mesh        string         `yaml:"mesh"`  // Optional PLY file, relative to the descriptor
	MeshScale   float64        `yaml:"mesh_scale"`
	Parts       []Part         `yaml:"parts"`

	mesh *loaders.PLYData
}

// BoundingHeight approximates the vertical extent of the item as the highest
// part top, offsetY + boundsMaxY·scaleY. The result is never negative.
func (d *ItemDescriptor) BoundingHeight() float64 {
	height := 0.0
	for _, p := range d.Parts {
		scale := p.ScaleY
		if scale == 0 {
			scale = 1
		}
		height = math.Max(height, p.OffsetY+p.BoundsMaxY*scale)
	}
	return height
}

// RGBA returns the display colour, grey when unset or malformed
func (d *ItemDescriptor) RGBA() color.RGBA {
	fallback := color.RGBA{R: 160, G: 160, B: 160, A: 255}
	hex := strings.TrimPrefix(d.Color, "#")
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Catalog holds the item templates known to the placer
type Catalog struct {
	mu     sync.RWMutex
	items  map[placer.ItemRef]*ItemDescriptor
	logger core.Logger
}

// NewCatalog creates an empty catalog
func NewCatalog(logger core.Logger) *Catalog {
	return &Catalog{
		items:  make(map[placer.ItemRef]*ItemDescriptor),
		logger: logger,
	}
}

// Register adds or replaces an item template
func (c *Catalog) Register(desc ItemDescriptor) error {
	if desc.ID == placer.NoItem {
		return fmt.Errorf("item %q has no id", desc.Name)
	}
	if desc.Name == "" {
		desc.Name = titleCase(string(desc.ID))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[desc.ID] = &desc
	return nil
}

// Item returns the descriptor of an item
func (c *Catalog) Item(ref placer.ItemRef) (*ItemDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.items[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, ref)
	}
	return desc, nil
}

// BoundingHeight returns the item's bounding height, 0 for unknown items
func (c *Catalog) BoundingHeight(ref placer.ItemRef) float64 {
	desc, err := c.Item(ref)
	if err != nil {
		return 0
	}
	return desc.BoundingHeight()
}

// PivotOffset returns the item's pivot height, 0 for unknown items
func (c *Catalog) PivotOffset(ref placer.ItemRef) float64 {
	desc, err := c.Item(ref)
	if err != nil {
		return 0
	}
	return desc.PivotOffset
}

// EnumerateItems loads every item descriptor (*.yaml, *.yml) in dir and
// returns the item references sorted by id. Descriptors that fail to parse
// are skipped with a warning. An empty dir lists the items already registered.
func (c *Catalog) EnumerateItems(dir string) ([]placer.ItemRef, error) {
	if dir != "" {
		if err := c.loadDir(dir); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := make([]placer.ItemRef, 0, len(c.items))
	for ref := range c.items {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs, nil
}

func (c *Catalog) loadDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to scan item directory: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to scan item directory: %w", err)
		}
		files = append(files, matches...)
	}

	for _, path := range files {
		desc, err := LoadItemDescriptor(path)
		if err != nil {
			// Log warning but continue processing other files
			c.logger.Warnf("Skipping item %s: %v", path, err)
			continue
		}
		if err := c.Register(*desc); err != nil {
			c.logger.Warnf("Skipping item %s: %v", path, err)
		}
	}
	return nil
}

// LoadItemDescriptor reads one item descriptor. The item id is the file name
// without extension.
func LoadItemDescriptor(path string) (*ItemDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item: %w", err)
	}

	var desc ItemDescriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse item: %w", err)
	}

	base := filepath.Base(path)
	desc.ID = placer.ItemRef(strings.TrimSuffix(base, filepath.Ext(base)))
	if desc.Name == "" {
		desc.Name = titleCase(string(desc.ID))
	}
	if desc.Footprint < 0 || desc.PivotOffset < 0 {
		return nil, fmt.Errorf("item %s: footprint and pivot_offset must not be negative", desc.ID)
	}

	if desc.Mesh != "" {
		meshPath := desc.Mesh
		if !filepath.IsAbs(meshPath) {
			meshPath = filepath.Join(filepath.Dir(path), meshPath)
		}
		if desc.mesh, err = loaders.LoadPLY(meshPath); err != nil {
			return nil, fmt.Errorf("item %s: %w", desc.ID, err)
		}
	}
	return &desc, nil
}

// Proxy builds the collision shape of an instance whose origin sits at
// position. Items without height have no proxy and return nil.
func (c *Catalog) Proxy(ref placer.ItemRef, position core.Vec3, rotation mgl64.Quat) (geometry.Shape, error) {
	desc, err := c.Item(ref)
	if err != nil {
		return nil, err
	}
	return desc.proxy(position, rotation)
}

func (d *ItemDescriptor) proxy(position core.Vec3, rotation mgl64.Quat) (geometry.Shape, error) {
	up := core.UpAxis(rotation)
	base := position.Subtract(up.Multiply(d.PivotOffset))

	if d.mesh != nil {
		scale := d.MeshScale
		if scale == 0 {
			scale = 1
		}
		vertices := make([]core.Vec3, len(d.mesh.Vertices))
		for i, v := range d.mesh.Vertices {
			vertices[i] = core.RotateVec(rotation, v.Multiply(scale)).Add(base)
		}
		mesh, err := geometry.NewTriangleMesh(vertices, d.mesh.Faces, nil)
		if err != nil {
			return nil, fmt.Errorf("item %s mesh: %w", d.ID, err)
		}
		return mesh, nil
	}

	height := d.BoundingHeight()
	if height <= 0 {
		return nil, nil
	}
	half := d.Footprint / 2
	if half <= 0 {
		half = 0.5
	}
	center := base.Add(up.Multiply(height / 2))
	return geometry.NewOrientedBox(center, core.NewVec3(half, height/2, half), rotation), nil
}

// titleCase converts a filename-style string to title case
// e.g., "pine-tree" -> "Pine Tree"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
