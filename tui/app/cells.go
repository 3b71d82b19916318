package app

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/preview"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

var (
	brushStyle    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	rejectedStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// heightRamp shades terrain cells from low to high
var heightRamp = []rune(".,:;=+*#")

type cell struct {
	rune  rune
	style tcell.Style
}

// cellDrawer collects the placer's preview as terminal cells
type cellDrawer struct {
	camera  *preview.Camera
	catalog *scene.Catalog
	cells   map[[2]int]cell
	valid   int
	blocked int
}

func newCellDrawer(camera *preview.Camera, catalog *scene.Catalog) *cellDrawer {
	return &cellDrawer{camera: camera, catalog: catalog, cells: make(map[[2]int]cell)}
}

func (d *cellDrawer) cellAt(p core.Vec3) [2]int {
	x, y := d.camera.Project(p)
	return [2]int{int(math.Floor(x)), int(math.Floor(y))}
}

func (d *cellDrawer) DrawBrush(center, normal core.Vec3, radius float64) {
	frame := placer.NewTangentFrame(normal, d.camera.Up())
	const segments = 64
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		p := center.Add(frame.ToWorld(core.NewVec2(math.Cos(a), math.Sin(a))).Multiply(radius))
		key := d.cellAt(p)
		if _, taken := d.cells[key]; !taken {
			d.cells[key] = cell{'·', brushStyle}
		}
	}
}

func (d *cellDrawer) DrawPreview(item placer.ItemRef, position core.Vec3, rotation mgl64.Quat) {
	d.valid++
	d.cells[d.cellAt(position)] = d.itemCell(item)
}

func (d *cellDrawer) DrawRejected(item placer.ItemRef, position, normal core.Vec3, height float64) {
	d.blocked++
	d.cells[d.cellAt(position)] = cell{'x', rejectedStyle}
}

func (d *cellDrawer) itemCell(item placer.ItemRef) cell {
	desc, err := d.catalog.Item(item)
	if err != nil {
		return cell{'?', tcell.StyleDefault}
	}
	glyph := '*'
	for _, r := range desc.Glyph {
		glyph = r
		break
	}
	c := desc.RGBA()
	return cell{glyph, tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))).Bold(true)}
}

// terrainCell shades a traced scene point; instances show their glyph
func (d *cellDrawer) terrainCell(hit scene.TraceHit, low, high float64) cell {
	if hit.Item != placer.NoItem {
		c := d.itemCell(hit.Item)
		c.style = c.style.Bold(false).Dim(true)
		return c
	}

	t := 0.0
	if high-low > preview.FlatSpan {
		t = math.Max(0, math.Min(1, (hit.Point.Y-low)/(high-low)))
	}
	i := min(len(heightRamp)-1, int(t*float64(len(heightRamp))))
	green := int32(90 + 100*t)
	return cell{heightRamp[i], tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(80+120*t), green, int32(60+60*t)))}
}

var _ placer.Drawer = (*cellDrawer)(nil)
