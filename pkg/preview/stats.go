package preview

import "math"

// RasterStats contains statistics about rasterizing the scene layer
type RasterStats struct {
	TotalPixels    int     // Total number of pixels rasterized
	SurfacePixels  int     // Pixels whose ray hit static geometry
	InstancePixels int     // Pixels whose ray hit a placed instance
	MissedPixels   int     // Pixels whose ray hit nothing
	MinHeight      float64 // Lowest hit along the camera up direction
	MaxHeight      float64 // Highest hit along the camera up direction
}

func newRasterStats() RasterStats {
	return RasterStats{MinHeight: math.Inf(1), MaxHeight: math.Inf(-1)}
}

// addHit records one pixel
func (s *RasterStats) addHit(height float64, instance bool) {
	s.TotalPixels++
	if instance {
		s.InstancePixels++
	} else {
		s.SurfacePixels++
	}
	s.MinHeight = math.Min(s.MinHeight, height)
	s.MaxHeight = math.Max(s.MaxHeight, height)
}

func (s *RasterStats) addMiss() {
	s.TotalPixels++
	s.MissedPixels++
}

// Merge accumulates the stats of another tile
func (s *RasterStats) Merge(other RasterStats) {
	s.TotalPixels += other.TotalPixels
	s.SurfacePixels += other.SurfacePixels
	s.InstancePixels += other.InstancePixels
	s.MissedPixels += other.MissedPixels
	s.MinHeight = math.Min(s.MinHeight, other.MinHeight)
	s.MaxHeight = math.Max(s.MaxHeight, other.MaxHeight)
}

// Coverage returns the fraction of pixels that hit something
func (s RasterStats) Coverage() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.TotalPixels-s.MissedPixels) / float64(s.TotalPixels)
}
