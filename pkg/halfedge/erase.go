package halfedge

import (
	"github.com/samber/lo"
)

// EraseVertex removes v with all of its edges and faces and fills the hole
// with one new face, which is returned.
func (m *Mesh) EraseVertex(v VertexRef) (FaceRef, error) {
	const op = "erase vertex"
	if m.OnBoundary(v) {
		return NoFace, refuse(op, v, "vertex is on the boundary")
	}
	out := m.OutgoingHalfedges(v)
	for _, n := range m.Neighbors(v) {
		if m.IncidentEdgeCount(n)-1 < 3 {
			return NoFace, refuse(op, v, "neighbor %v would keep fewer than 3 edges", n)
		}
	}

	// The ring is every side of the incident faces that does not touch v.
	var ring []HalfedgeRef
	for _, h := range out {
		for x := m.Next(h); m.Dest(x) != v; x = m.Next(x) {
			ring = append(ring, x)
		}
	}
	if len(ring) < 3 {
		return NoFace, refuse(op, v, "the merged face would have %d sides", len(ring))
	}
	origins := lo.Map(ring, func(x HalfedgeRef, _ int) VertexRef { return m.Origin(x) })
	if len(lo.Uniq(origins)) != len(origins) {
		return NoFace, refuse(op, v, "the merged face would touch a vertex twice")
	}

	// Stitch each face's ring into the next one, before any loop changes.
	type link struct{ from, to HalfedgeRef }
	links := make([]link, len(out))
	for i, h := range out {
		links[i] = link{from: m.Prev(m.Twin(h)), to: m.Next(h)}
	}

	g := m.AllocFace(false)
	for _, l := range links {
		m.SetNext(l.from, l.to)
		m.SetVertexHalfedge(m.Origin(l.to), l.to)
	}
	for _, x := range ring {
		m.SetFace(x, g)
	}
	m.SetFaceHalfedge(g, ring[0])

	for _, h := range out {
		m.DropFace(m.FaceOf(h))
		m.DropEdge(m.EdgeOf(h))
		m.DropHalfedge(m.Twin(h))
		m.DropHalfedge(h)
	}
	m.DropVertex(v)
	return g, nil
}

// EraseEdge removes e and merges the two faces beside it into one new face,
// which is returned.
func (m *Mesh) EraseEdge(e EdgeRef) (FaceRef, error) {
	const op = "erase edge"
	if m.EdgeOnBoundary(e) {
		return NoFace, refuse(op, e, "edge is on the boundary")
	}
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	f0, f1 := m.FaceOf(h), m.FaceOf(t)
	if f0 == f1 {
		return NoFace, refuse(op, e, "both sides belong to face %v", f0)
	}
	v0, v1 := m.Origin(h), m.Origin(t)
	for _, v := range []VertexRef{v0, v1} {
		if m.IncidentEdgeCount(v)-1 < 2 {
			return NoFace, refuse(op, e, "vertex %v would keep fewer than 2 edges", v)
		}
	}
	shared := lo.Without(lo.Intersect(m.FaceVertices(f0), m.FaceVertices(f1)), v0, v1)
	if len(shared) > 0 {
		return NoFace, refuse(op, e, "faces %v and %v also meet at %v", f0, f1, shared[0])
	}

	hp, hn := m.Prev(h), m.Next(h)
	tp, tn := m.Prev(t), m.Next(t)
	g := m.AllocFace(false)
	m.SetNext(hp, tn)
	m.SetNext(tp, hn)
	m.SetFace(hn, g)
	for x := m.Next(hn); x != hn; x = m.Next(x) {
		m.SetFace(x, g)
	}
	m.SetFaceHalfedge(g, hn)
	m.SetVertexHalfedge(v0, tn)
	m.SetVertexHalfedge(v1, hn)

	m.DropFace(f0)
	m.DropFace(f1)
	m.DropEdge(e)
	m.DropHalfedge(h)
	m.DropHalfedge(t)
	return g, nil
}
