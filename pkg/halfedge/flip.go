package halfedge

// FlipEdge rotates e counter-clockwise inside the two polygons it borders.
// For two triangles this swaps e's endpoints for the opposite corners. The
// returned edge is e itself.
func (m *Mesh) FlipEdge(e EdgeRef) (EdgeRef, error) {
	const op = "flip edge"
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	f0, f1 := m.FaceOf(h), m.FaceOf(t)
	if m.IsBoundary(f0) || m.IsBoundary(f1) {
		return NoEdge, refuse(op, e, "edge is on the boundary")
	}
	if f0 == f1 {
		return NoEdge, refuse(op, e, "both sides belong to face %v", f0)
	}

	v0, v1 := m.Origin(h), m.Origin(t)
	hn, tn := m.Next(h), m.Next(t)
	hp, tp := m.Prev(h), m.Prev(t)
	a := m.Dest(hn) // new origin of t
	b := m.Dest(tn) // new origin of h
	if a == b || a == v0 || a == v1 || b == v0 || b == v1 {
		return NoEdge, refuse(op, e, "rotated edge would be degenerate")
	}
	if _, exists := m.FindEdge(a, b); exists {
		return NoEdge, refuse(op, e, "vertices %v and %v are already joined", a, b)
	}
	for _, v := range []VertexRef{v0, v1} {
		if m.IncidentEdgeCount(v)-1 < 2 {
			return NoEdge, refuse(op, e, "vertex %v would keep fewer than 2 edges", v)
		}
	}

	hnn, tnn := m.Next(hn), m.Next(tn)

	// f0 trades hn for tn, f1 trades tn for hn.
	m.SetNext(h, hnn)
	m.SetNext(hp, tn)
	m.SetNext(tn, h)
	m.SetFace(tn, f0)

	m.SetNext(t, tnn)
	m.SetNext(tp, hn)
	m.SetNext(hn, t)
	m.SetFace(hn, f1)

	m.SetOrigin(h, b)
	m.SetOrigin(t, a)

	m.SetVertexHalfedge(v0, tn)
	m.SetVertexHalfedge(v1, hn)
	m.SetFaceHalfedge(f0, h)
	m.SetFaceHalfedge(f1, t)
	return e, nil
}
