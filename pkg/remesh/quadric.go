package remesh

import (
	"math"

	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Quadric is the symmetric 4x4 error matrix of a set of planes. The error of
// a point p is [p 1] Q [p 1]^T, the sum of squared plane distances.
type Quadric [4][4]float64

// planeQuadric returns the quadric of the plane through p with unit normal n.
func planeQuadric(n, p v3.Vec) Quadric {
	k := [4]float64{n.X, n.Y, n.Z, -n.Dot(p)}
	var q Quadric
	for i := range k {
		for j := range k {
			q[i][j] = k[i] * k[j]
		}
	}
	return q
}

func (q Quadric) Add(r Quadric) Quadric {
	for i := range q {
		for j := range q[i] {
			q[i][j] += r[i][j]
		}
	}
	return q
}

// Error returns the quadric error at p.
func (q Quadric) Error(p v3.Vec) float64 {
	x := [4]float64{p.X, p.Y, p.Z, 1}
	sum := 0.0
	for i := range x {
		for j := range x {
			sum += x[i] * q[i][j] * x[j]
		}
	}
	return sum
}

// Minimize returns the point of least error, solving the upper 3x3 block
// against the negated last column. ok is false when that block is singular.
func (q Quadric) Minimize() (p v3.Vec, ok bool) {
	a := [3][3]float64{
		{q[0][0], q[0][1], q[0][2]},
		{q[1][0], q[1][1], q[1][2]},
		{q[2][0], q[2][1], q[2][2]},
	}
	b := [3]float64{-q[0][3], -q[1][3], -q[2][3]}
	det := det3(a)
	if math.Abs(det) < 1e-10 {
		return v3.Vec{}, false
	}
	var x [3]float64
	for c := 0; c < 3; c++ {
		m := a
		for r := 0; r < 3; r++ {
			m[r][c] = b[r]
		}
		x[c] = det3(m) / det
	}
	return v3.Vec{X: x[0], Y: x[1], Z: x[2]}, true
}

func det3(a [3][3]float64) float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

// vertexQuadrics sums the plane quadrics of the faces around each vertex.
func vertexQuadrics(m *halfedge.Mesh) map[halfedge.VertexRef]Quadric {
	faces := make(map[halfedge.FaceRef]Quadric)
	for _, f := range m.Faces() {
		faces[f] = planeQuadric(m.FaceNormal(f), m.FaceCenter(f))
	}
	out := make(map[halfedge.VertexRef]Quadric, m.NumVertices())
	for _, v := range m.Vertices() {
		var q Quadric
		for _, f := range m.IncidentFaces(v) {
			q = q.Add(faces[f])
		}
		out[v] = q
	}
	return out
}
