package halfedge

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func normalize(a v3.Vec) v3.Vec {
	l := a.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return a.DivScalar(l)
}

// areaVector returns the sum of corner cross products of f, which points
// along the face normal with a length of twice the polygon area.
func (m *Mesh) areaVector(f FaceRef) v3.Vec {
	verts := m.FaceVertices(f)
	var n v3.Vec
	for i, v := range verts {
		p := m.Pos(v)
		q := m.Pos(verts[(i+1)%len(verts)])
		n = n.Add(p.Cross(q))
	}
	return n
}

// FaceNormal returns the unit normal of f, or the zero vector for a
// degenerate face.
func (m *Mesh) FaceNormal(f FaceRef) v3.Vec { return normalize(m.areaVector(f)) }

// FaceArea returns the area of f.
func (m *Mesh) FaceArea(f FaceRef) float64 { return m.areaVector(f).Length() / 2 }

// FaceCenter returns the vertex centroid of f.
func (m *Mesh) FaceCenter(f FaceRef) v3.Vec {
	verts := m.FaceVertices(f)
	var c v3.Vec
	for _, v := range verts {
		c = c.Add(m.Pos(v))
	}
	return c.DivScalar(float64(len(verts)))
}

// FacePositions returns the positions of f's corners in loop order. Taken
// right after a bevel, these are the positions the new corners grew from.
func (m *Mesh) FacePositions(f FaceRef) []v3.Vec {
	verts := m.FaceVertices(f)
	out := make([]v3.Vec, len(verts))
	for i, v := range verts {
		out[i] = m.Pos(v)
	}
	return out
}

// Normal returns the area-weighted unit normal of v over its incident
// polygons.
func (m *Mesh) Normal(v VertexRef) v3.Vec {
	var n v3.Vec
	for _, f := range m.IncidentFaces(v) {
		if !m.IsBoundary(f) {
			n = n.Add(m.areaVector(f))
		}
	}
	return normalize(n)
}

// EdgeCenter returns the midpoint of e.
func (m *Mesh) EdgeCenter(e EdgeRef) v3.Vec {
	a, b := m.EdgeVertices(e)
	return m.Pos(a).Add(m.Pos(b)).MulScalar(0.5)
}

// EdgeLength returns the length of e.
func (m *Mesh) EdgeLength(e EdgeRef) float64 {
	a, b := m.EdgeVertices(e)
	return m.Pos(b).Sub(m.Pos(a)).Length()
}

// MeanEdgeLength returns the average edge length, or 0 for an empty mesh.
func (m *Mesh) MeanEdgeLength() float64 {
	edges := m.Edges()
	if len(edges) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range edges {
		sum += m.EdgeLength(e)
	}
	return sum / float64(len(edges))
}

// Stats summarizes the element counts of a mesh.
type Stats struct {
	Vertices      int  `json:"vertices"`
	Edges         int  `json:"edges"`
	Faces         int  `json:"faces"`
	BoundaryLoops int  `json:"boundaryLoops"`
	Triangles     bool `json:"triangles"`
	HasBoundary   bool `json:"hasBoundary"`
}

// Stats returns the current element counts.
func (m *Mesh) Stats() Stats {
	return Stats{
		Vertices:      m.NumVertices(),
		Edges:         m.NumEdges(),
		Faces:         m.NumFaces(),
		BoundaryLoops: m.NumBoundaryLoops(),
		Triangles:     m.IsTriangleMesh(),
		HasBoundary:   m.HasBoundary(),
	}
}
