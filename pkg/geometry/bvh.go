package geometry

import (
	"github.com/df07/go-scatter-placer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // Multiple shapes for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{Root: nil}
	}

	// Partitioning reorders the slice, so work on a copy
	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	return &BVH{Root: buildBVH(shapesCopy)}
}

// buildBVH recursively builds the BVH using median splits along the longest axis
func buildBVH(shapes []Shape) *BVHNode {
	boundingBox := shapes[0].BoundingBox()
	for _, shape := range shapes[1:] {
		boundingBox = boundingBox.Union(shape.BoundingBox())
	}

	leaf := &BVHNode{BoundingBox: boundingBox, Shapes: shapes}
	if len(shapes) <= leafThreshold {
		return leaf
	}

	// Split on the spread of shape centers, not the raw bounds, so a few
	// huge shapes (infinite planes) do not push everything to one side
	centers := core.NewAABBFromPoints(shapeCenters(shapes)...)
	axis := centers.LongestAxis()
	lo, hi := centers.Min.Axis(axis), centers.Max.Axis(axis)
	if hi <= lo {
		return leaf
	}
	splitPos := (lo + hi) * 0.5

	leftShapes, rightShapes := partitionShapes(shapes, axis, splitPos)
	if len(leftShapes) == 0 || len(rightShapes) == 0 {
		return leaf
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(leftShapes),
		Right:       buildBVH(rightShapes),
	}
}

func shapeCenters(shapes []Shape) []core.Vec3 {
	centers := make([]core.Vec3, len(shapes))
	for i, shape := range shapes {
		centers[i] = shape.BoundingBox().Center()
	}
	return centers
}

// partitionShapes partitions shapes based on the chosen axis and split position
func partitionShapes(shapes []Shape, axis int, splitPos float64) ([]Shape, []Shape) {
	var leftShapes, rightShapes []Shape

	for _, shape := range shapes {
		if shape.BoundingBox().Center().Axis(axis) < splitPos {
			leftShapes = append(leftShapes, shape)
		} else {
			rightShapes = append(rightShapes, shape)
		}
	}

	return leftShapes, rightShapes
}

// Hit tests if a ray intersects any shape in the BVH and returns the closest hit
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	hit := bvh.hitNode(bvh.Root, ray, tMin, tMax)
	return hit, hit != nil
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) *HitRecord {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil
	}

	var closest *HitRecord
	closestSoFar := tMax

	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if hit, ok := shape.Hit(ray, tMin, closestSoFar); ok {
				closest = hit
				closestSoFar = hit.T
			}
		}
		return closest
	}

	for _, child := range [2]*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit := bvh.hitNode(child, ray, tMin, closestSoFar); hit != nil {
			closest = hit
			closestSoFar = hit.T
		}
	}

	return closest
}

// BoundingBox returns the overall bounding box of the BVH
func (bvh *BVH) BoundingBox() AABB {
	if bvh.Root == nil {
		return AABB{}
	}
	return bvh.Root.BoundingBox
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes  int
	leafNodes   int
	maxDepth    int
	totalShapes int
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	stats := bvhStats{}
	if bvh.Root != nil {
		bvh.collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}

	if node.Shapes != nil {
		stats.leafNodes++
		stats.totalShapes += len(node.Shapes)
		return
	}
	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
