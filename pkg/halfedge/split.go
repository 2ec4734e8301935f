package halfedge

// BisectEdge inserts a vertex at the midpoint of e, turning e into two
// collinear edges. The adjacent faces gain one side each but are not
// subdivided. The new vertex's halfedge runs along the second half of e.
func (m *Mesh) BisectEdge(e EdgeRef) (VertexRef, error) {
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	v0 := m.Origin(h)
	hp, tn := m.Prev(h), m.Next(t)
	mid := m.EdgeCenter(e)

	v := m.AllocVertex(mid)
	a := m.AllocHalfedge()
	b := m.AllocHalfedge()
	e1 := m.AllocEdge()

	m.SetNeighbors(a, h, b, v0, e1, m.FaceOf(h))
	m.SetNeighbors(b, tn, a, v, e1, m.FaceOf(t))
	m.SetEdgeHalfedge(e1, a)
	m.SetNext(hp, a)
	m.SetNext(t, b)
	m.SetOrigin(h, v)

	m.SetVertexHalfedge(v0, a)
	m.SetVertexHalfedge(v, h)
	return v, nil
}

// SplitEdge inserts a vertex at the midpoint of e and cuts every
// non-boundary face beside e with one new edge from that vertex to the
// corner preceding e in the face, which is the opposite corner of a
// triangle. The new vertex's halfedge runs along the second half of e.
func (m *Mesh) SplitEdge(e EdgeRef) (VertexRef, error) {
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	f0, f1 := m.FaceOf(h), m.FaceOf(t)
	if f0 == f1 {
		return NoVertex, refuse("split edge", e, "both sides belong to face %v", f0)
	}

	v, _ := m.BisectEdge(e)
	// h now runs v -> v1 behind the new halfedge v0 -> v; t runs v1 -> v
	// and is followed by the new halfedge v -> v0.
	if !m.IsBoundary(f0) {
		m.splitFace(m.Prev(m.Prev(h)), h)
	}
	if !m.IsBoundary(f1) {
		m.splitFace(m.Prev(t), m.Next(t))
	}
	return v, nil
}

// SplitFace joins the origins of ha and hb, two halfedges of the same
// polygon, with a new edge. The side of the polygon starting at ha keeps
// the face; the side starting at hb becomes a new face. The new edge's
// halfedge lies in the original face.
func (m *Mesh) SplitFace(ha, hb HalfedgeRef) (EdgeRef, error) {
	const op = "split face"
	f := m.FaceOf(ha)
	switch {
	case m.FaceOf(hb) != f:
		return NoEdge, refuse(op, f, "%v and %v are on different faces", ha, hb)
	case m.IsBoundary(f):
		return NoEdge, refuse(op, f, "face is a boundary loop")
	case ha == hb || m.Next(ha) == hb || m.Next(hb) == ha:
		return NoEdge, refuse(op, f, "corners %v and %v are adjacent", m.Origin(ha), m.Origin(hb))
	}
	if _, exists := m.FindEdge(m.Origin(ha), m.Origin(hb)); exists {
		return NoEdge, refuse(op, f, "corners %v and %v are already joined", m.Origin(ha), m.Origin(hb))
	}
	return m.splitFace(ha, hb), nil
}

func (m *Mesh) splitFace(ha, hb HalfedgeRef) EdgeRef {
	f := m.FaceOf(ha)
	va, vb := m.Origin(ha), m.Origin(hb)
	pa, pb := m.Prev(ha), m.Prev(hb)

	x := m.AllocHalfedge()
	y := m.AllocHalfedge()
	e := m.AllocEdge()
	g := m.AllocFace(false)

	m.SetNeighbors(x, ha, y, vb, e, f)
	m.SetNeighbors(y, hb, x, va, e, g)
	m.SetEdgeHalfedge(e, x)
	m.SetNext(pb, x)
	m.SetNext(pa, y)
	for h := hb; h != y; h = m.Next(h) {
		m.SetFace(h, g)
	}
	m.SetFaceHalfedge(f, ha)
	m.SetFaceHalfedge(g, hb)
	return e
}
