package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/preview"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

// ItemInfo describes one placeable item
type ItemInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Glyph    string  `json:"glyph"`
	Color    string  `json:"color"`
	Height   float64 `json:"height"`
	Selected bool    `json:"selected"`
}

// BrushState is the session's brush and selection
type BrushState struct {
	Radius      float64  `json:"radius"`
	SampleCount int      `json:"sampleCount"`
	MinSpacing  float64  `json:"minSpacing"`
	Redraws     int      `json:"redraws"`
	Selection   []string `json:"selection"`
}

// BrushRequest changes the brush. Absent fields keep their value.
type BrushRequest struct {
	Radius      *float64 `json:"radius"`
	SampleCount *int     `json:"sampleCount"`
	Regenerate  bool     `json:"regenerate"`
}

// SelectionRequest replaces the item selection
type SelectionRequest struct {
	Items []string `json:"items"`
}

// CommitRequest places the current batch with the brush at (x, z)
type CommitRequest struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// CommitResponse reports a commit
type CommitResponse struct {
	Placed    int    `json:"placed"`
	Valid     int    `json:"valid"`
	Instances int    `json:"instances"`
	Error     string `json:"error,omitempty"`
}

// HistoryResponse reports an undo or redo
type HistoryResponse struct {
	Label     string `json:"label"`
	Instances int    `json:"instances"`
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	groups, err := scene.ListAllScenes(s.ws.Config.SceneDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current": s.ws.Scene.Name,
		"groups":  groups,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.items())
}

func (s *Server) items() []ItemInfo {
	available := s.ws.Session.Available()
	items := make([]ItemInfo, 0, len(available))
	for _, ref := range available {
		info := ItemInfo{ID: string(ref), Selected: s.ws.Session.IsSelected(ref)}
		if desc, err := s.ws.Catalog.Item(ref); err == nil {
			info.Name = desc.Name
			info.Glyph = desc.Glyph
			info.Color = desc.Color
			info.Height = desc.BoundingHeight()
		}
		items = append(items, info)
	}
	return items
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	ref := placer.ItemRef(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.ws.Session.Available(), ref) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", scene.ErrUnknownItem, ref))
		return
	}
	s.ws.Session.ToggleItem(ref)
	writeJSON(w, http.StatusOK, s.brush())
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	refs := make([]placer.ItemRef, len(req.Items))
	for i, id := range req.Items {
		refs[i] = placer.ItemRef(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.Select(refs); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.brush())
}

func (s *Server) handleBrush(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method == http.MethodPut {
		var req BrushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
			return
		}
		if req.SampleCount != nil && *req.SampleCount > 10000 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("sampleCount must be at most 10000, got: %d", *req.SampleCount))
			return
		}
		if req.Radius != nil {
			s.ws.Session.SetRadius(*req.Radius)
		}
		if req.SampleCount != nil {
			s.ws.Session.SetSampleCount(*req.SampleCount)
		}
		if req.Regenerate {
			s.ws.Session.OnParameterChanged()
		}
	}
	writeJSON(w, http.StatusOK, s.brush())
}

func (s *Server) brush() BrushState {
	batch := s.ws.Session.Batch()
	selection := s.ws.Session.Selection()
	ids := make([]string, len(selection))
	for i, ref := range selection {
		ids[i] = string(ref)
	}
	return BrushState{
		Radius:      s.ws.Session.Radius(),
		SampleCount: s.ws.Session.SampleCount(),
		MinSpacing:  batch.MinSpacing,
		Redraws:     batch.Redraws,
		Selection:   ids,
	}
}

// handlePreview renders the scene as an image. With x and z the view is
// centred there and the brush preview is drawn on top.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := parseIntParam(q, "width", s.ws.Config.Width, 16, 2048)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := parseIntParam(q, "height", width, 16, 2048)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	at, err := parsePointParams(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := preview.FormatPNG
	if f := q.Get("format"); f != "" {
		format = preview.Format(f)
	}
	if format != preview.FormatPNG && format != preview.FormatWebP {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", preview.ErrUnsupportedFormat, format))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	canvas, stats, err := s.ws.Preview(r.Context(), at, width, height)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	counts := canvas.Counts()
	w.Header().Set("Content-Type", "image/"+string(format))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Coverage", fmt.Sprintf("%.3f", stats.Coverage()))
	w.Header().Set("X-Previews", fmt.Sprint(counts.Previews))
	w.Header().Set("X-Rejected", fmt.Sprint(counts.Rejected))
	if err := canvas.Encode(w, format); err != nil {
		s.ws.Logger.Warnf("Failed to encode preview: %v", err)
	}
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.ws.Session.OnFrame(s.ws.RayAt(req.X, req.Z), s.ws.Scene.View.Up, nil)
	if frame.Surface == nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("no surface under (%g, %g)", req.X, req.Z))
		return
	}

	resp := CommitResponse{Valid: frame.ValidCount()}
	placed, err := s.ws.Commit()
	resp.Placed = placed
	resp.Instances = len(s.ws.Scene.Instances())
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, s.ws.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, s.ws.Redo)
}

func (s *Server) history(w http.ResponseWriter, step func() (string, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	label, err := step()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scene.ErrNothingToUndo) || errors.Is(err, scene.ErrNothingToRedo) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Label: label, Instances: len(s.ws.Scene.Instances())})
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Messages())
}
