//go:build manifold

package manifold_test

import (
	"math"
	"testing"

	"github.com/chazu/meshedit/pkg/kernel"
	"github.com/chazu/meshedit/pkg/kernel/manifold"
	"github.com/chazu/meshedit/pkg/tessellate"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := manifold.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol || math.Abs(max[i]-wantMax[i]) > tol {
			t.Fatalf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestBoundingBox(t *testing.T) {
	k := mustNew(t)
	tests := []struct {
		name     string
		solid    kernel.Solid
		min, max [3]float64
	}{
		{"box", k.Box(10, 20, 30), [3]float64{-5, -10, -15}, [3]float64{5, 10, 15}},
		{"translated", k.Translate(k.Box(10, 10, 10), 100, 200, 300), [3]float64{95, 195, 295}, [3]float64{105, 205, 305}},
		{"difference", k.Difference(k.Box(10, 10, 10), k.Cylinder(20, 3)), [3]float64{-5, -5, -5}, [3]float64{5, 5, 5}},
		{"sphere", k.Sphere(2), [3]float64{-2, -2, -2}, [3]float64{2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkBounds(t, tt.solid, tt.min, tt.max, 1e-6)
		})
	}
}

func TestCylinderBounds(t *testing.T) {
	min, max := mustNew(t).Cylinder(20, 5).BoundingBox()
	if math.Abs(min[2]+10) > 1e-6 || math.Abs(max[2]-10) > 1e-6 {
		t.Errorf("Z bounds = %f..%f, want -10..10", min[2], max[2])
	}
	// The polygon is inscribed in the circle.
	for i := 0; i < 2; i++ {
		if min[i] > -4.5 || max[i] < 4.5 || max[i] > 5+1e-6 {
			t.Errorf("axis %d bounds = %f..%f", i, min[i], max[i])
		}
	}
}

func TestToMesh(t *testing.T) {
	k := mustNew(t)
	m, err := k.ToMesh(k.Box(2, 2, 2))
	if err != nil {
		t.Fatalf("unexpected ToMesh error: %v", err)
	}
	if m.VertexCount() != 8 || m.TriangleCount() != 12 {
		t.Fatalf("box mesh has %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	for i := 0; i < m.VertexCount(); i++ {
		nx, ny, nz := m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]
		if l := math.Sqrt(float64(nx*nx + ny*ny + nz*nz)); math.Abs(l-1) > 1e-5 {
			t.Errorf("normal %d has length %f", i, l)
		}
	}
}

func TestImportIsClosed(t *testing.T) {
	k := mustNew(t)
	solid := k.Difference(k.Box(2, 2, 2), k.Translate(k.Box(1, 1, 1), 1, 1, 1))
	m, err := tessellate.FromSolid(k, solid, tessellate.DefaultImportOptions())
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	st := m.Stats()
	if st.HasBoundary || !st.Triangles {
		t.Fatalf("stats = %+v, want a closed triangle mesh", st)
	}
	if chi := st.Vertices - st.Edges + st.Faces; chi != 2 {
		t.Errorf("Euler characteristic = %d, want 2", chi)
	}
}
