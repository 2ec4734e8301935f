package halfedge

import (
	"github.com/samber/lo"
)

// OutgoingHalfedges returns the halfedges leaving v in clockwise order,
// starting from v's own halfedge.
func (m *Mesh) OutgoingHalfedges(v VertexRef) []HalfedgeRef {
	start := m.VertexHalfedge(v)
	var out []HalfedgeRef
	h := start
	for {
		out = append(out, h)
		h = m.Next(m.Twin(h))
		if h == start {
			return out
		}
		if len(out) > m.NumHalfedges() {
			panic("halfedge: vertex fan of " + v.String() + " does not close")
		}
	}
}

// FaceHalfedges returns the loop of f in counter-clockwise (next) order,
// starting from f's own halfedge.
func (m *Mesh) FaceHalfedges(f FaceRef) []HalfedgeRef {
	start := m.FaceHalfedge(f)
	var out []HalfedgeRef
	h := start
	for {
		out = append(out, h)
		h = m.Next(h)
		if h == start {
			return out
		}
		if len(out) > m.NumHalfedges() {
			panic("halfedge: face loop of " + f.String() + " does not close")
		}
	}
}

// Neighbors returns the vertices adjacent to v in outgoing order.
func (m *Mesh) Neighbors(v VertexRef) []VertexRef {
	return lo.Map(m.OutgoingHalfedges(v), func(h HalfedgeRef, _ int) VertexRef { return m.Dest(h) })
}

// IncidentEdges returns the edges around v in outgoing order.
func (m *Mesh) IncidentEdges(v VertexRef) []EdgeRef {
	return lo.Map(m.OutgoingHalfedges(v), func(h HalfedgeRef, _ int) EdgeRef { return m.EdgeOf(h) })
}

// IncidentFaces returns the faces around v in outgoing order. Boundary loops
// are included.
func (m *Mesh) IncidentFaces(v VertexRef) []FaceRef {
	return lo.Map(m.OutgoingHalfedges(v), func(h HalfedgeRef, _ int) FaceRef { return m.FaceOf(h) })
}

// FaceVertices returns the corners of f in loop order.
func (m *Mesh) FaceVertices(f FaceRef) []VertexRef {
	return lo.Map(m.FaceHalfedges(f), func(h HalfedgeRef, _ int) VertexRef { return m.Origin(h) })
}

// FaceEdges returns the sides of f in loop order.
func (m *Mesh) FaceEdges(f FaceRef) []EdgeRef {
	return lo.Map(m.FaceHalfedges(f), func(h HalfedgeRef, _ int) EdgeRef { return m.EdgeOf(h) })
}

// EdgeIncidentHalfedges returns the fans around both endpoints of e with
// e's own halfedges removed: first the halfedges leaving the origin of e's
// halfedge, then those leaving the other endpoint, each fan starting just
// after e.
func (m *Mesh) EdgeIncidentHalfedges(e EdgeRef) []HalfedgeRef {
	h := m.EdgeHalfedge(e)
	var out []HalfedgeRef
	for _, s := range []HalfedgeRef{h, m.Twin(h)} {
		for x := m.Next(m.Twin(s)); x != s; x = m.Next(m.Twin(x)) {
			out = append(out, x)
		}
	}
	return out
}

// EdgeVertices returns the endpoints of e, origin of its halfedge first.
func (m *Mesh) EdgeVertices(e EdgeRef) (VertexRef, VertexRef) {
	h := m.EdgeHalfedge(e)
	return m.Origin(h), m.Dest(h)
}

// FindEdge returns the edge joining a and b, if any.
func (m *Mesh) FindEdge(a, b VertexRef) (EdgeRef, bool) {
	for _, h := range m.OutgoingHalfedges(a) {
		if m.Dest(h) == b {
			return m.EdgeOf(h), true
		}
	}
	return NoEdge, false
}

// Degree returns the number of edges incident to v.
func (m *Mesh) Degree(v VertexRef) int { return len(m.OutgoingHalfedges(v)) }

// FaceDegree returns the number of sides of f.
func (m *Mesh) FaceDegree(f FaceRef) int { return len(m.FaceHalfedges(f)) }

// OnBoundary reports whether any face around v is a boundary loop.
func (m *Mesh) OnBoundary(v VertexRef) bool {
	return lo.ContainsBy(m.IncidentFaces(v), m.IsBoundary)
}

// EdgeOnBoundary reports whether either side of e is a boundary loop.
func (m *Mesh) EdgeOnBoundary(e EdgeRef) bool {
	h := m.EdgeHalfedge(e)
	return m.IsBoundary(m.FaceOf(h)) || m.IsBoundary(m.FaceOf(m.Twin(h)))
}

// IncidentEdgeCount is the degree of v, counting the boundary loop as one
// more edge when v lies on it. Degree limits in the operators use this.
func (m *Mesh) IncidentEdgeCount(v VertexRef) int {
	n := m.Degree(v)
	if m.OnBoundary(v) {
		n++
	}
	return n
}

// IsTriangleMesh reports whether every polygon has exactly three sides.
func (m *Mesh) IsTriangleMesh() bool {
	for _, f := range m.Faces() {
		if m.FaceDegree(f) != 3 {
			return false
		}
	}
	return true
}

// HasBoundary reports whether the mesh has at least one boundary loop.
func (m *Mesh) HasBoundary() bool { return m.NumBoundaryLoops() > 0 }
