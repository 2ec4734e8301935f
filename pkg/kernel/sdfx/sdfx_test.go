package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/meshedit/pkg/kernel"
)

// checkSoup verifies the buffer layout ToMesh promises: one vertex and one
// normal per index, unit normals.
func checkSoup(t *testing.T, m *kernel.Mesh) {
	t.Helper()
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != m.VertexCount() {
		t.Fatalf("indices length %d != vertex count %d", len(m.Indices), m.VertexCount())
	}
	for i := 0; i < len(m.Normals); i += 3 {
		n := m.Normals[i : i+3]
		l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(l-1) > 1e-3 {
			t.Fatalf("normal %d has length %f", i/3, l)
		}
	}
}

func TestPrimitives(t *testing.T) {
	k := NewWithCells(12)
	tests := []struct {
		name  string
		solid kernel.Solid
	}{
		{"box", k.Box(2, 1, 1)},
		{"sphere", k.Sphere(1)},
		{"cylinder", k.Cylinder(2, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := k.ToMesh(tt.solid)
			if err != nil {
				t.Fatalf("unexpected ToMesh error: %v", err)
			}
			checkSoup(t, m)
		})
	}
}

func TestNewWithCellsClamps(t *testing.T) {
	if k := NewWithCells(0); k.cells != 2 {
		t.Errorf("cells = %d, want 2", k.cells)
	}
	if k := New(); k.cells != DefaultMeshCells {
		t.Errorf("cells = %d, want %d", k.cells, DefaultMeshCells)
	}
}

func TestBooleans(t *testing.T) {
	k := NewWithCells(16)
	box := k.Box(2, 2, 2)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("unexpected ToMesh error: %v", err)
	}

	t.Run("difference", func(t *testing.T) {
		m, err := k.ToMesh(k.Difference(box, k.Cylinder(3, 0.5)))
		if err != nil {
			t.Fatalf("unexpected ToMesh error: %v", err)
		}
		checkSoup(t, m)
		if m.TriangleCount() <= boxMesh.TriangleCount() {
			t.Errorf("difference has %d triangles, box %d", m.TriangleCount(), boxMesh.TriangleCount())
		}
	})
	t.Run("union", func(t *testing.T) {
		m, err := k.ToMesh(k.Union(box, k.Translate(k.Box(2, 2, 2), 1.5, 0, 0)))
		if err != nil {
			t.Fatalf("unexpected ToMesh error: %v", err)
		}
		checkSoup(t, m)
	})
	t.Run("intersection", func(t *testing.T) {
		m, err := k.ToMesh(k.Intersection(box, k.Sphere(1.2)))
		if err != nil {
			t.Fatalf("unexpected ToMesh error: %v", err)
		}
		checkSoup(t, m)
	})
}

func TestBoundingBox(t *testing.T) {
	k := New()
	const tol = 0.01
	tests := []struct {
		name     string
		solid    kernel.Solid
		min, max [3]float64
	}{
		{"box", k.Box(100, 50, 25), [3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}},
		{"sphere", k.Sphere(3), [3]float64{-3, -3, -3}, [3]float64{3, 3, 3}},
		{"translated", k.Translate(k.Box(10, 10, 10), 100, 200, 300),
			[3]float64{95, 195, 295}, [3]float64{105, 205, 305}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.solid.BoundingBox()
			for i := 0; i < 3; i++ {
				if math.Abs(min[i]-tt.min[i]) > tol {
					t.Errorf("min[%d] = %f, want %f", i, min[i], tt.min[i])
				}
				if math.Abs(max[i]-tt.max[i]) > tol {
					t.Errorf("max[%d] = %f, want %f", i, max[i], tt.max[i])
				}
			}
		})
	}
}

func TestRotate(t *testing.T) {
	k := New()
	// A long box along X rotated 90 degrees around Z extends along Y.
	min, max := k.Rotate(k.Box(100, 10, 10), 0, 0, 90).BoundingBox()
	const tol = 1.0
	if x := max[0] - min[0]; math.Abs(x-10) > tol {
		t.Errorf("rotated X extent = %f, want ~10", x)
	}
	if y := max[1] - min[1]; math.Abs(y-100) > tol {
		t.Errorf("rotated Y extent = %f, want ~100", y)
	}
}
