package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

func randomTriangles(random *rand.Rand, n int) []Triangle {
	triangles := make([]Triangle, n)
	for i := range triangles {
		center := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		vertex := func() core.Vec3 {
			return center.Add(core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, random.Float64()-0.5))
		}
		triangles[i] = NewTriangle(vertex(), vertex(), vertex())
	}
	return triangles
}

func randomRay(random *rand.Rand) core.Ray {
	origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
	target := core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, random.Float64()*10-5)
	return core.NewRay(origin, target.Subtract(origin).Normalize())
}

func checkContainment(t *testing.T, bvh *BVH, bounds []core.AABB, node int) {
	t.Helper()
	n := bvh.Nodes[node]
	if n.IsLeaf() {
		for _, prim := range bvh.Indices[n.First : n.First+n.Count] {
			if !n.Bounds.Contains(bounds[prim]) {
				t.Errorf("Leaf %d does not contain primitive %d", node, prim)
			}
		}
		return
	}
	for _, child := range []int{n.First, n.First + 1} {
		if !n.Bounds.Contains(bvh.Nodes[child].Bounds) {
			t.Errorf("Node %d does not contain child %d", node, child)
		}
		checkContainment(t, bvh, bounds, child)
	}
}

func TestBVH_BoundsContainment(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for _, maxChildren := range []int{1, 2, 4, 8} {
		mesh := NewMesh("random", randomTriangles(random, 300), maxChildren, 32)
		bounds := make([]core.AABB, len(mesh.Triangles))
		for i, triangle := range mesh.Triangles {
			bounds[i] = triangle.Bounds()
		}
		checkContainment(t, mesh.BVH, bounds, 0)

		// Every primitive appears exactly once across the leaves
		seen := make([]int, len(mesh.Triangles))
		for _, node := range mesh.BVH.Nodes {
			if !node.IsLeaf() {
				continue
			}
			if node.Count > maxChildren && mesh.BVH.Depth() < 32 {
				t.Errorf("Leaf holds %d primitives, limit is %d", node.Count, maxChildren)
			}
			for _, prim := range mesh.BVH.Indices[node.First : node.First+node.Count] {
				seen[prim]++
			}
		}
		for prim, count := range seen {
			if count != 1 {
				t.Errorf("Primitive %d appears %d times", prim, count)
			}
		}
	}
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	triangles := randomTriangles(random, 500)
	mesh := NewMesh("random", triangles, 2, 32)

	for i := 0; i < 2000; i++ {
		ray := randomRay(random)

		bruteDistance := math.Inf(1)
		bruteIndex := -1
		for j, triangle := range triangles {
			if hit, ok := triangle.Intersect(ray, 0.001, bruteDistance); ok && hit.Distance < bruteDistance {
				bruteDistance = hit.Distance
				bruteIndex = j
			}
		}

		hit, ok := mesh.Intersect(ray, 0.001, math.Inf(1))
		if ok != (bruteIndex >= 0) {
			t.Fatalf("Ray %d: BVH hit=%v, brute force hit=%v", i, ok, bruteIndex >= 0)
		}
		if ok && math.Abs(hit.Distance-bruteDistance) > 1e-9 {
			t.Fatalf("Ray %d: BVH distance %v, brute force %v", i, hit.Distance, bruteDistance)
		}
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := BuildBVH(nil, nil, 2, 16)
	if !bvh.Empty() {
		t.Fatal("Expected empty BVH")
	}
	if len(bvh.Nodes) != 1 || !bvh.Bounds().IsEmpty() {
		t.Errorf("Expected a single empty root, got %+v", bvh.Nodes)
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))
	called := false
	_, _, ok := bvh.Nearest(ray, 0, math.Inf(1), func(int, float64, float64) (float64, bool) {
		called = true
		return 0, true
	})
	if ok || called {
		t.Error("Empty BVH should never report a hit or test a primitive")
	}
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	build := func(n int) *BVH {
		bounds := make([]core.AABB, n)
		centroids := make([]core.Vec3, n)
		for i := 0; i < n; i++ {
			bounds[i] = core.NewAABB(core.NewVec3(float64(i), 0, 0), core.NewVec3(float64(i)+1, 1, 1))
			centroids[i] = bounds[i].Center()
		}
		return BuildBVH(bounds, centroids, 4, 16)
	}

	if stats := build(4).Stats(); stats.TotalNodes != 1 || stats.LeafNodes != 1 {
		t.Errorf("Expected a single leaf for 4 primitives, got %+v", stats)
	}
	if stats := build(5).Stats(); stats.TotalNodes == 1 || stats.LeafNodes < 2 {
		t.Errorf("Expected a split for 5 primitives, got %+v", stats)
	}
}

func TestBVH_CoincidentCentroids(t *testing.T) {
	n := 10
	bounds := make([]core.AABB, n)
	centroids := make([]core.Vec3, n)
	for i := 0; i < n; i++ {
		size := float64(i + 1)
		bounds[i] = core.NewAABB(core.NewVec3(-size, -size, -size), core.NewVec3(size, size, size))
		centroids[i] = core.Vec3{}
	}

	bvh := BuildBVH(bounds, centroids, 2, 16)
	if len(bvh.Nodes) != 1 || bvh.Nodes[0].Count != n {
		t.Errorf("Expected a single leaf when all centroids coincide, got %d nodes", len(bvh.Nodes))
	}
}

func TestBVH_MaxDepth(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	mesh := NewMesh("deep", randomTriangles(random, 200), 1, 3)
	if mesh.BVH.Depth() > 3 {
		t.Errorf("Expected depth at most 3, got %d", mesh.BVH.Depth())
	}
	bounds := make([]core.AABB, len(mesh.Triangles))
	for i, triangle := range mesh.Triangles {
		bounds[i] = triangle.Bounds()
	}
	checkContainment(t, mesh.BVH, bounds, 0)
}
