package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// BVHNode is one entry of the flattened hierarchy. Count == 0 marks an
// internal node whose children sit at First and First+1; otherwise the node
// is a leaf over Indices[First:First+Count].
type BVHNode struct {
	Bounds core.AABB
	First  int
	Count  int
}

// IsLeaf reports whether the node stores primitives
func (n BVHNode) IsLeaf() bool {
	return n.Count > 0
}

// BVH is a binary bounding volume hierarchy over primitives identified by index.
// It is immutable once built and safe for concurrent traversal.
type BVH struct {
	Nodes   []BVHNode
	Indices []int
	depth   int
}

// PrimitiveTest reports whether primitive prim is hit at a distance in
// [tMin, tMax], and at which distance. It must not report hits outside that
// range. Callers record whatever detail they need in the closure.
type PrimitiveTest func(prim int, tMin, tMax float64) (float64, bool)

// BuildBVH constructs a BVH from per-primitive bounds and centroids.
// A node becomes a leaf once it holds at most maxChildren primitives or
// reaches maxDepth. Building never fails; zero primitives yield an empty tree.
func BuildBVH(bounds []core.AABB, centroids []core.Vec3, maxChildren, maxDepth int) *BVH {
	if maxChildren < 1 {
		maxChildren = 1
	}

	indices := make([]int, len(bounds))
	for i := range indices {
		indices[i] = i
	}

	if len(bounds) == 0 {
		return &BVH{
			Nodes:   []BVHNode{{Bounds: core.EmptyAABB()}},
			Indices: indices,
		}
	}

	b := &bvhBuilder{
		bounds:      bounds,
		centroids:   centroids,
		indices:     indices,
		nodes:       make([]BVHNode, 1, 2*len(bounds)),
		maxChildren: maxChildren,
		maxDepth:    maxDepth,
	}
	b.build(0, 0, len(indices), 0)

	return &BVH{Nodes: b.nodes, Indices: b.indices, depth: b.depth}
}

type bvhBuilder struct {
	bounds      []core.AABB
	centroids   []core.Vec3
	indices     []int
	nodes       []BVHNode
	maxChildren int
	maxDepth    int
	depth       int
}

func (b *bvhBuilder) build(node, first, count, depth int) {
	if depth > b.depth {
		b.depth = depth
	}

	box := core.EmptyAABB()
	centroidBox := core.EmptyAABB()
	for _, prim := range b.indices[first : first+count] {
		box = box.Union(b.bounds[prim])
		centroidBox = centroidBox.Include(b.centroids[prim])
	}
	b.nodes[node].Bounds = box

	if count <= b.maxChildren || depth >= b.maxDepth || centroidBox.Min == centroidBox.Max {
		b.nodes[node].First = first
		b.nodes[node].Count = count
		return
	}

	axis := box.LongestAxis()
	leftCount := b.partition(first, count, axis, box.Center().Axis(axis))
	if leftCount == 0 || leftCount == count {
		// Midpoint split failed; fall back to the median along the same axis
		slice := b.indices[first : first+count]
		sort.Slice(slice, func(i, j int) bool {
			return b.centroids[slice[i]].Axis(axis) < b.centroids[slice[j]].Axis(axis)
		})
		leftCount = count / 2
	}

	left := len(b.nodes)
	b.nodes = append(b.nodes, BVHNode{}, BVHNode{})
	b.nodes[node].First = left
	b.nodes[node].Count = 0

	b.build(left, first, leftCount, depth+1)
	b.build(left+1, first+leftCount, count-leftCount, depth+1)
}

// partition moves primitives whose centroid lies below split to the front of
// the range and returns how many there are
func (b *bvhBuilder) partition(first, count, axis int, split float64) int {
	i, j := first, first+count-1
	for i <= j {
		if b.centroids[b.indices[i]].Axis(axis) < split {
			i++
		} else {
			b.indices[i], b.indices[j] = b.indices[j], b.indices[i]
			j--
		}
	}
	return i - first
}

// Empty reports whether the tree holds no primitives
func (bvh *BVH) Empty() bool {
	return len(bvh.Indices) == 0
}

// Bounds returns the root bounding box
func (bvh *BVH) Bounds() core.AABB {
	return bvh.Nodes[0].Bounds
}

// Depth returns the depth of the deepest node; the root has depth 0
func (bvh *BVH) Depth() int {
	return bvh.depth
}

type stackEntry struct {
	node     int
	distance float64
}

// Nearest finds the primitive with the smallest hit distance in [tMin, tMax].
// It returns the primitive index, the distance and whether anything was hit.
func (bvh *BVH) Nearest(ray core.Ray, tMin, tMax float64, test PrimitiveTest) (int, float64, bool) {
	if bvh.Empty() {
		return -1, tMax, false
	}

	best := tMax
	found := -1

	rootDistance := bvh.Nodes[0].Bounds.Distance(ray, tMin, best)
	if math.IsInf(rootDistance, 1) {
		return -1, tMax, false
	}

	stack := make([]stackEntry, 0, bvh.depth+1)
	stack = append(stack, stackEntry{node: 0, distance: rootDistance})

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// A closer hit was found after this node was pushed
		if entry.distance > best {
			continue
		}

		node := bvh.Nodes[entry.node]
		if node.IsLeaf() {
			for _, prim := range bvh.Indices[node.First : node.First+node.Count] {
				// The test only reports hits within [tMin, best], so the last
				// reported hit is always the closest one
				if t, ok := test(prim, tMin, best); ok {
					best = t
					found = prim
				}
			}
			continue
		}

		near, far := node.First, node.First+1
		nearDistance := bvh.Nodes[near].Bounds.Distance(ray, tMin, best)
		farDistance := bvh.Nodes[far].Bounds.Distance(ray, tMin, best)
		if farDistance < nearDistance {
			near, far = far, near
			nearDistance, farDistance = farDistance, nearDistance
		}

		if !math.IsInf(farDistance, 1) {
			stack = append(stack, stackEntry{node: far, distance: farDistance})
		}
		if !math.IsInf(nearDistance, 1) {
			stack = append(stack, stackEntry{node: near, distance: nearDistance})
		}
	}

	if found < 0 {
		return -1, tMax, false
	}
	return found, best, true
}

// BVHStats summarises the shape of a hierarchy for logging
type BVHStats struct {
	TotalNodes int
	LeafNodes  int
	MaxDepth   int
	MaxLeaf    int
	AvgLeaf    float64
}

// Stats walks the hierarchy and collects statistics about it
func (bvh *BVH) Stats() BVHStats {
	stats := BVHStats{TotalNodes: len(bvh.Nodes), MaxDepth: bvh.depth}
	for _, node := range bvh.Nodes {
		if node.IsLeaf() {
			stats.LeafNodes++
			if node.Count > stats.MaxLeaf {
				stats.MaxLeaf = node.Count
			}
		}
	}
	if stats.LeafNodes > 0 {
		stats.AvgLeaf = float64(len(bvh.Indices)) / float64(stats.LeafNodes)
	}
	return stats
}
