package remesh

import (
	"math"
	"testing"
	"time"

	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

type counts struct{ v, e, f int }

func countsOf(m *halfedge.Mesh) counts {
	return counts{m.NumVertices(), m.NumEdges(), m.NumFaces()}
}

func mustValidate(t *testing.T, m *halfedge.Mesh) {
	t.Helper()
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func hexagon(t *testing.T) *halfedge.Mesh {
	t.Helper()
	var pos []v3.Vec
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		pos = append(pos, v3.Vec{X: math.Cos(a), Y: math.Sin(a)})
	}
	m, err := halfedge.FromPolygons(pos, [][]int{{0, 1, 2, 3, 4, 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

// joinedQuad closes a quad with two triangles that already join corners 0
// and 2, so that diagonal cannot be cut again.
func joinedQuad(t *testing.T) *halfedge.Mesh {
	t.Helper()
	pos := []v3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1, Z: 1}}
	m, err := halfedge.FromPolygons(pos, [][]int{{0, 1, 2, 3}, {0, 3, 2}, {0, 2, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func near(a, b v3.Vec) bool {
	return a.Sub(b).Length() < 1e-9
}

// ---------------------------------------------------------------------------
// Triangulate
// ---------------------------------------------------------------------------

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		mesh func(t *testing.T) *halfedge.Mesh
		want counts
	}{
		{"cube", func(*testing.T) *halfedge.Mesh { return halfedge.Cube() }, counts{8, 18, 12}},
		{"grid", func(*testing.T) *halfedge.Mesh { return halfedge.Grid(2) }, counts{9, 16, 8}},
		{"hexagon", hexagon, counts{6, 9, 4}},
		{"already triangles", func(*testing.T) *halfedge.Mesh { return halfedge.Octahedron() }, counts{6, 12, 8}},
		{"diagonal already joined", joinedQuad, counts{4, 6, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mesh(t)
			if err := Triangulate(m); err != nil {
				t.Fatalf("unexpected triangulate error: %v", err)
			}
			mustValidate(t, m)
			if !m.IsTriangleMesh() {
				t.Fatal("result has non-triangle faces")
			}
			if got := countsOf(m); got != tt.want {
				t.Fatalf("counts = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTriangulateZigZag(t *testing.T) {
	m := hexagon(t)
	if err := Triangulate(m); err != nil {
		t.Fatalf("unexpected triangulate error: %v", err)
	}
	// A fan would give one vertex degree 5; the strip tops out at 4.
	for _, v := range m.Vertices() {
		if d := m.Degree(v); d > 4 {
			t.Fatalf("vertex %v has degree %d", v, d)
		}
	}
}

// ---------------------------------------------------------------------------
// Subdivision
// ---------------------------------------------------------------------------

func TestSubdivideLinear(t *testing.T) {
	m := halfedge.Cube()
	if err := Subdivide(m, Linear); err != nil {
		t.Fatalf("unexpected subdivide error: %v", err)
	}
	mustValidate(t, m)
	if got := countsOf(m); got != (counts{26, 48, 24}) {
		t.Fatalf("counts = %+v, want {26 48 24}", got)
	}
	// Original corners stay put.
	if p := m.Pos(m.Vertices()[7]); !near(p, v3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("corner moved to %v", p)
	}
}

func TestSubdivideLinearWithBoundary(t *testing.T) {
	m := halfedge.Grid(1)
	if err := Subdivide(m, Linear); err != nil {
		t.Fatalf("unexpected subdivide error: %v", err)
	}
	mustValidate(t, m)
	if got := countsOf(m); got != (counts{9, 12, 4}) {
		t.Fatalf("counts = %+v, want {9 12 4}", got)
	}
	if m.NumBoundaryLoops() != 1 {
		t.Fatalf("NumBoundaryLoops() = %d, want 1", m.NumBoundaryLoops())
	}
}

func TestSubdivideCatmullClark(t *testing.T) {
	m := halfedge.Cube()
	if err := Subdivide(m, CatmullClark); err != nil {
		t.Fatalf("unexpected subdivide error: %v", err)
	}
	mustValidate(t, m)
	if got := countsOf(m); got != (counts{26, 48, 24}) {
		t.Fatalf("counts = %+v, want {26 48 24}", got)
	}
	want := v3.Vec{X: 5.0 / 9, Y: 5.0 / 9, Z: 5.0 / 9}
	if p := m.Pos(m.Vertices()[7]); !near(p, want) {
		t.Fatalf("corner at %v, want %v", p, want)
	}
}

func TestSubdivideCatmullClarkRefusesBoundary(t *testing.T) {
	m := halfedge.Grid(2)
	err := Subdivide(m, CatmullClark)
	if !errors.Is(err, halfedge.ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
	if got := countsOf(m); got != (counts{9, 12, 4}) {
		t.Fatalf("mesh changed to %+v", got)
	}
}

func TestLoopSubdivideTetrahedron(t *testing.T) {
	m := halfedge.Tetrahedron()
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	mustValidate(t, m)
	if got := countsOf(m); got != (counts{10, 24, 16}) {
		t.Fatalf("counts = %+v, want {10 24 16}", got)
	}
	if !m.IsTriangleMesh() {
		t.Fatal("result has non-triangle faces")
	}
	verts := m.Vertices()
	for i, v := range verts {
		if want := i >= 4; m.IsNew(v) != want {
			t.Errorf("vertex %d IsNew = %v, want %v", i, m.IsNew(v), want)
		}
	}
	// Every original vertex keeps degree 3; inserted ones reach 6.
	for _, v := range verts {
		want := 6
		if !m.IsNew(v) {
			want = 3
		}
		if d := m.Degree(v); d != want {
			t.Errorf("vertex %v degree %d, want %d", v, d, want)
		}
	}
}

func TestLoopSubdivideBoundary(t *testing.T) {
	m, err := halfedge.FromPolygons(
		[]v3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		[][]int{{0, 1, 2}, {0, 2, 3}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	mustValidate(t, m)
	if got := countsOf(m); got != (counts{9, 16, 8}) {
		t.Fatalf("counts = %+v, want {9 16 8}", got)
	}
	// Boundary midpoints stay on the boundary edges.
	onSide := func(x float64) bool { return math.Abs(x) < 1e-9 || math.Abs(x-1) < 1e-9 }
	for _, v := range m.Vertices() {
		p := m.Pos(v)
		if m.IsNew(v) && m.OnBoundary(v) && !onSide(p.X) && !onSide(p.Y) {
			t.Errorf("boundary midpoint moved inside to %v", p)
		}
	}
}

// Both triangles of a pillow share their midpoints, so the second face's
// flips would join vertices the first face already joined.
func TestLoopSubdividePillow(t *testing.T) {
	pos := []v3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	m, err := halfedge.FromPolygons(pos, [][]int{{0, 1, 2}, {0, 2, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	mustValidate(t, m)
	if !m.IsTriangleMesh() {
		t.Fatal("result has non-triangle faces")
	}
	if got := countsOf(m); got != (counts{6, 12, 8}) {
		t.Fatalf("counts = %+v, want {6 12 8}", got)
	}
}

func TestLoopSubdivideRefusesQuads(t *testing.T) {
	m := halfedge.Cube()
	if err := LoopSubdivide(m); !errors.Is(err, halfedge.ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
	if got := countsOf(m); got != (counts{8, 12, 6}) {
		t.Fatalf("mesh changed to %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Isotropic remeshing
// ---------------------------------------------------------------------------

func TestIsotropicRemesh(t *testing.T) {
	m := halfedge.Tetrahedron()
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	if err := IsotropicRemesh(m, DefaultRemeshOptions()); err != nil {
		t.Fatalf("unexpected remesh error: %v", err)
	}
	mustValidate(t, m)
	if !m.IsTriangleMesh() || m.HasBoundary() {
		t.Fatal("remesh broke the closed triangle mesh")
	}
	if x := m.NumVertices() - m.NumEdges() + m.NumFaces(); x != 2 {
		t.Fatalf("Euler characteristic = %d, want 2", x)
	}
}

func TestIsotropicRemeshRefuses(t *testing.T) {
	tests := []struct {
		name string
		mesh *halfedge.Mesh
	}{
		{"quads", halfedge.Cube()},
		{"boundary", halfedge.Quad()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countsOf(tt.mesh)
			err := IsotropicRemesh(tt.mesh, DefaultRemeshOptions())
			if !errors.Is(err, halfedge.ErrUnsupported) {
				t.Fatalf("error = %v, want ErrUnsupported", err)
			}
			if countsOf(tt.mesh) != before {
				t.Fatal("refused remesh changed the mesh")
			}
		})
	}
}

func TestFlipImproves(t *testing.T) {
	m := halfedge.Octahedron()
	// All degrees are 4: flipping trades two 4s for 3s and two for 5s.
	if flipImproves(m, m.Edges()[0]) {
		t.Fatal("flip on a regular octahedron should not improve degrees")
	}
}

// ---------------------------------------------------------------------------
// Quadrics and simplification
// ---------------------------------------------------------------------------

func TestQuadric(t *testing.T) {
	q := planeQuadric(v3.Vec{Z: 1}, v3.Vec{Z: 1})
	if e := q.Error(v3.Vec{X: 5, Z: 3}); math.Abs(e-4) > 1e-12 {
		t.Fatalf("Error() = %v, want 4", e)
	}
	if _, ok := q.Minimize(); ok {
		t.Fatal("a single plane has no unique minimum")
	}
	corner := q.
		Add(planeQuadric(v3.Vec{X: 1}, v3.Vec{X: 1})).
		Add(planeQuadric(v3.Vec{Y: 1}, v3.Vec{Y: 2}))
	p, ok := corner.Minimize()
	if !ok {
		t.Fatal("three planes should meet at a point")
	}
	if !near(p, v3.Vec{X: 1, Y: 2, Z: 1}) {
		t.Fatalf("Minimize() = %v, want (1, 2, 1)", p)
	}
	if e := corner.Error(p); math.Abs(e) > 1e-12 {
		t.Fatalf("Error(minimum) = %v, want 0", e)
	}
}

func TestEdgeQueueOrder(t *testing.T) {
	m := halfedge.Tetrahedron()
	edges := m.Edges()
	q := newEdgeQueue()
	q.insert(edgeRecord{edge: edges[0], id: 1, cost: 3})
	q.insert(edgeRecord{edge: edges[1], id: 2, cost: 1})
	q.insert(edgeRecord{edge: edges[2], id: 3, cost: 1})
	q.insert(edgeRecord{edge: edges[3], id: 4, cost: 2})
	q.remove(edges[3])
	// Re-inserting replaces the old record.
	q.insert(edgeRecord{edge: edges[0], id: 1, cost: 0.5})

	var got []halfedge.EdgeRef
	for {
		r, ok := q.pop()
		if !ok {
			break
		}
		got = append(got, r.edge)
	}
	want := []halfedge.EdgeRef{edges[0], edges[1], edges[2]}
	if len(got) != len(want) {
		t.Fatalf("popped %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop %d = %v, want %v", i, got[i], want[i])
		}
	}
	if q.size() != 0 {
		t.Fatalf("size() = %d after draining", q.size())
	}
}

func TestSimplify(t *testing.T) {
	m := halfedge.Icosahedron()
	if err := LoopSubdivide(m); err != nil {
		t.Fatalf("unexpected loop error: %v", err)
	}
	if err := Simplify(m, SimplifyOptions{TargetEdges: 60}); err != nil {
		t.Fatalf("unexpected simplify error: %v", err)
	}
	mustValidate(t, m)
	if m.NumEdges() > 60 {
		t.Fatalf("NumEdges() = %d, want at most 60", m.NumEdges())
	}
	if x := m.NumVertices() - m.NumEdges() + m.NumFaces(); x != 2 {
		t.Fatalf("Euler characteristic = %d, want 2", x)
	}
}

func TestSimplifyStopsAtTetrahedron(t *testing.T) {
	m := halfedge.Octahedron()
	if err := Simplify(m, SimplifyOptions{TargetEdges: 1}); err != nil {
		t.Fatalf("unexpected simplify error: %v", err)
	}
	mustValidate(t, m)
	if m.NumVertices() < minVertices {
		t.Fatalf("NumVertices() = %d, below %d", m.NumVertices(), minVertices)
	}
}

// simplifyWithin fails the test instead of hanging when Simplify does not
// return in time.
func simplifyWithin(t *testing.T, m *halfedge.Mesh, opts SimplifyOptions, d time.Duration) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- Simplify(m, opts) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected simplify error: %v", err)
		}
	case <-time.After(d):
		t.Fatalf("Simplify did not return within %v", d)
	}
}

func TestSimplifyWithBoundary(t *testing.T) {
	tests := []struct {
		name string
		opts SimplifyOptions
	}{
		{"unreachable target", SimplifyOptions{TargetEdges: 1}},
		{"default target", DefaultSimplifyOptions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := halfedge.Grid(3)
			if err := Triangulate(m); err != nil {
				t.Fatalf("unexpected triangulate error: %v", err)
			}
			before := m.NumEdges()
			simplifyWithin(t, m, tt.opts, 10*time.Second)
			mustValidate(t, m)
			if m.NumEdges() > before {
				t.Errorf("NumEdges() = %d, was %d", m.NumEdges(), before)
			}
			if !m.HasBoundary() {
				t.Error("boundary disappeared")
			}
			if x := m.NumVertices() - m.NumEdges() + m.NumFaces(); x != 1 {
				t.Errorf("Euler characteristic = %d, want 1", x)
			}
		})
	}
}

func TestSimplifyRefusesQuads(t *testing.T) {
	if err := Simplify(halfedge.Cube(), DefaultSimplifyOptions()); !errors.Is(err, halfedge.ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
}
