package server

import (
	"errors"
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

// InspectResponse represents the JSON response for a surface inspection
type InspectResponse struct {
	Hit      bool       `json:"hit"`
	Point    [3]float64 `json:"point"`
	Normal   [3]float64 `json:"normal"`
	Slope    float64    `json:"slope"` // Degrees from horizontal
	Instance string     `json:"instance,omitempty"`
	Item     string     `json:"item,omitempty"`
	Name     string     `json:"name,omitempty"`
}

// InstanceInfo represents one placed instance
type InstanceInfo struct {
	ID       string     `json:"id"`
	Item     string     `json:"item"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// slopeDegrees is the angle between a surface normal and world up
func slopeDegrees(normal core.Vec3) float64 {
	cos := math.Max(-1, math.Min(1, normal.Normalize().Dot(core.WorldUp)))
	return math.Acos(cos) * 180 / math.Pi
}

// handleInspect reports the surface and instance straight below (x, z)
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	at, err := parsePointParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if at == nil {
		writeError(w, http.StatusBadRequest, errors.New("x and z are required"))
		return
	}

	ray := s.ws.RayAt(at.X, at.Y)
	hit, ok := s.ws.Scene.Trace(ray.Origin, ray.Direction, 1e9)
	if !ok {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	resp := InspectResponse{
		Hit:    true,
		Point:  vecArray(hit.Point),
		Normal: vecArray(hit.Normal),
		Slope:  slopeDegrees(hit.Normal),
	}
	if hit.Instance != uuid.Nil {
		resp.Instance = hit.Instance.String()
		resp.Item = string(hit.Item)
		if desc, err := s.ws.Catalog.Item(hit.Item); err == nil {
			resp.Name = desc.Name
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, instanceInfos(s.ws.Scene.Instances()))
}

func instanceInfos(instances []scene.Instance) []InstanceInfo {
	infos := make([]InstanceInfo, len(instances))
	for i, inst := range instances {
		q := inst.Rotation
		infos[i] = InstanceInfo{
			ID:       inst.ID.String(),
			Item:     string(inst.Item),
			Position: vecArray(inst.Position),
			Rotation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		}
	}
	return infos
}
