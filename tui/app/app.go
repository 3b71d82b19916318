// Package app is the interactive terminal host: a top-down view of the
// scene with the brush under the cursor.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/host"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/preview"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

const (
	cellAspect = 2.0 // Terminal cells are about twice as tall as wide
	panStep    = 2.0 // World units per pan key
)

// App is the terminal placer. All methods run on the event loop.
type App struct {
	screen tcell.Screen
	ws     *host.Workspace
	extent float64

	camera           *preview.Camera
	panX, panY       float64
	width, height    int
	cursorX, cursorY int

	frame   placer.Frame
	drawer  *cellDrawer
	message string
}

// New creates the app on an initialised screen
func New(screen tcell.Screen, ws *host.Workspace) *App {
	a := &App{screen: screen, ws: ws, extent: ws.Config.Extent}
	a.resize()
	a.cursorX, a.cursorY = a.width/2, a.height/2
	a.message = "space: place  u/r: undo/redo  +/-: radius  [/]: count  1-9: items  q: quit"
	return a
}

// resize rebuilds the camera for the current screen size, keeping the pan
func (a *App) resize() {
	cols, rows := a.screen.Size()
	a.width, a.height = max(1, cols), max(1, rows-1) // Last row is the status line

	view := a.ws.Scene.View
	// Orthographic, so backing the eye away from the scene changes nothing
	// but keeps it above the tallest geometry
	size := a.ws.Scene.Bounds().Size().Length()
	if !math.IsInf(size, 0) && !math.IsNaN(size) {
		back := view.Target.Subtract(view.Eye).Normalize().Multiply(-math.Min(size, 1e4))
		view.Eye = view.Eye.Add(back)
	}

	a.camera = preview.NewCamera(view, a.extent, a.width, a.height)
	a.camera.SetPixelAspect(cellAspect)
	a.camera.Pan(a.panX, a.panY)

	a.cursorX = min(a.cursorX, a.width-1)
	a.cursorY = min(a.cursorY, a.height-1)
}

// HandleEvent applies one input event and reports whether the app should
// keep running
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		a.resize()
		a.screen.Sync()
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	session := a.ws.Session
	shift := ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		a.move(0, -1, shift)
	case tcell.KeyDown:
		a.move(0, 1, shift)
	case tcell.KeyLeft:
		a.move(-1, 0, shift)
	case tcell.KeyRight:
		a.move(1, 0, shift)
	case tcell.KeyEnter:
		a.commit()
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'q':
			return false
		case r == ' ':
			a.commit()
		case r == '+' || r == '=':
			session.Scroll(1, false)
		case r == '-':
			session.Scroll(-1, false)
		case r == ']':
			session.SetSampleCount(session.SampleCount() + 1)
		case r == '[':
			session.SetSampleCount(session.SampleCount() - 1)
		case r == 'g':
			session.OnParameterChanged()
		case r == 'u':
			a.undo(a.ws.Undo, "Undo")
		case r == 'r':
			a.undo(a.ws.Redo, "Redo")
		case r >= '1' && r <= '9':
			a.toggle(int(r - '1'))
		case r == 'h':
			a.move(-1, 0, false)
		case r == 'j':
			a.move(0, 1, false)
		case r == 'k':
			a.move(0, -1, false)
		case r == 'l':
			a.move(1, 0, false)
		}
	}
	return true
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	if y < a.height {
		a.cursorX, a.cursorY = x, y
	}

	alt := ev.Modifiers()&tcell.ModAlt != 0
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		a.ws.Session.Scroll(1, alt)
	case buttons&tcell.WheelDown != 0:
		a.ws.Session.Scroll(-1, alt)
	case buttons&tcell.Button1 != 0 && y < a.height:
		a.commit()
	}
}

// move steps the cursor, or pans the view when shift is held
func (a *App) move(dx, dy int, pan bool) {
	if pan {
		a.panX += float64(dx) * panStep
		a.panY -= float64(dy) * panStep
		a.camera.Pan(float64(dx)*panStep, -float64(dy)*panStep)
		return
	}
	a.cursorX = max(0, min(a.width-1, a.cursorX+dx))
	a.cursorY = max(0, min(a.height-1, a.cursorY+dy))
}

func (a *App) toggle(index int) {
	available := a.ws.Session.Available()
	if index >= len(available) {
		return
	}
	a.ws.Session.ToggleItem(available[index])
}

func (a *App) commit() {
	// Evaluate under the current cursor before placing
	a.ws.Session.OnFrame(a.cursorRay(), a.camera.Up(), nil)
	placed, err := a.ws.Commit()
	if err != nil {
		a.message = fmt.Sprintf("Placed %d items, some failed: %v", placed, err)
		return
	}
	a.message = fmt.Sprintf("Placed %d items", placed)
}

func (a *App) undo(op func() (string, error), verb string) {
	label, err := op()
	switch {
	case errors.Is(err, scene.ErrNothingToUndo), errors.Is(err, scene.ErrNothingToRedo):
		a.message = err.Error()
	case err != nil:
		a.message = fmt.Sprintf("%s failed: %v", verb, err)
	default:
		a.message = fmt.Sprintf("%s %s", verb, label)
	}
}

func (a *App) cursorRay() core.Ray {
	return a.camera.GetRay(float64(a.cursorX)+0.5, float64(a.cursorY)+0.5)
}

// Draw renders the scene, the preview and the status line
func (a *App) Draw() {
	a.screen.Clear()

	bounds := a.ws.Scene.Bounds()
	low, high := math.Max(bounds.Min.Y, -1e3), math.Min(bounds.Max.Y, 1e3)

	a.drawer = newCellDrawer(a.camera, a.ws.Catalog)
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			ray := a.camera.GetRay(float64(x)+0.5, float64(y)+0.5)
			hit, ok := a.ws.Scene.Trace(ray.Origin, ray.Direction, math.Inf(1))
			if !ok {
				continue
			}
			c := a.drawer.terrainCell(hit, low, high)
			a.screen.SetContent(x, y, c.rune, nil, c.style)
		}
	}

	a.frame = a.ws.Session.OnFrame(a.cursorRay(), a.camera.Up(), a.drawer)
	for key, c := range a.drawer.cells {
		if key[0] >= 0 && key[0] < a.width && key[1] >= 0 && key[1] < a.height {
			a.screen.SetContent(key[0], key[1], c.rune, nil, c.style)
		}
	}

	// Cursor
	mainc, _, style, _ := a.screen.GetContent(a.cursorX, a.cursorY)
	if mainc == 0 {
		mainc = ' '
	}
	a.screen.SetContent(a.cursorX, a.cursorY, mainc, nil, style.Reverse(true))

	a.drawStatus()
	a.screen.Show()
}

// Status returns the status line text
func (a *App) Status() string {
	session := a.ws.Session
	var items []string
	for i, item := range session.Available() {
		if i >= 9 {
			break
		}
		mark := ""
		if session.IsSelected(item) {
			mark = "*"
		}
		items = append(items, fmt.Sprintf("%d:%s%s", i+1, item, mark))
	}

	under := "no surface"
	if a.frame.Surface != nil {
		under = fmt.Sprintf("%d/%d valid", a.frame.ValidCount(), len(a.frame.Candidates))
	}
	return fmt.Sprintf(" %s | r=%.2f n=%d | %s | %s | %s",
		a.ws.Scene.Name, session.Radius(), session.SampleCount(), strings.Join(items, " "), under, a.message)
}

func (a *App) drawStatus() {
	cols, _ := a.screen.Size()
	text := []rune(a.Status())
	for x := 0; x < cols; x++ {
		r := ' '
		if x < len(text) {
			r = text[x]
		}
		a.screen.SetContent(x, a.height, r, nil, statusStyle)
	}
}

// Run polls input on a goroutine and handles it on the calling one until
// the user quits or ctx ends
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	a.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !a.HandleEvent(ev) {
				return nil
			}
			a.Draw()
		}
	}
}
