package halfedge

import (
	"fmt"

	"github.com/samber/lo"
)

// CollapseEdge merges the endpoints of e into one new vertex at the edge
// midpoint. A triangle beside e degenerates and is removed, its two
// remaining sides fusing into one edge; any other face beside e loses a
// side.
func (m *Mesh) CollapseEdge(e EdgeRef) (VertexRef, error) {
	const op = "collapse edge"
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	v0, v1 := m.Origin(h), m.Origin(t)
	if m.FaceOf(h) == m.FaceOf(t) {
		return NoVertex, refuse(op, e, "both sides belong to face %v", m.FaceOf(h))
	}

	sides := []HalfedgeRef{h, t}
	tri := make(map[HalfedgeRef]bool, 2)
	var apexes []VertexRef
	for _, s := range sides {
		f := m.FaceOf(s)
		n := m.FaceDegree(f)
		switch {
		case m.IsBoundary(f) && n <= 3:
			return NoVertex, refuse(op, e, "boundary loop %v would close up", f)
		case !m.IsBoundary(f) && n == 3:
			tri[s] = true
			apexes = append(apexes, m.Dest(m.Next(s)))
		}
	}
	if !m.EdgeOnBoundary(e) && m.OnBoundary(v0) && m.OnBoundary(v1) {
		return NoVertex, refuse(op, e, "interior edge joins two boundary vertices")
	}
	if len(apexes) == 2 && apexes[0] == apexes[1] {
		return NoVertex, refuse(op, e, "adjacent triangles share apex %v", apexes[0])
	}
	for _, c := range lo.Intersect(m.Neighbors(v0), m.Neighbors(v1)) {
		if !lo.Contains(apexes, c) {
			return NoVertex, refuse(op, e, "endpoints share neighbor %v outside the adjacent triangles", c)
		}
	}
	deg := m.Degree(v0) + m.Degree(v1) - 2 - len(apexes)
	if err := m.checkMergedDegree(op, e, deg, m.OnBoundary(v0) || m.OnBoundary(v1)); err != nil {
		return NoVertex, err
	}
	for _, c := range apexes {
		if m.IncidentEdgeCount(c)-1 < 2 {
			return NoVertex, refuse(op, e, "apex %v would keep fewer than 2 edges", c)
		}
	}

	removed := map[HalfedgeRef]bool{h: true, t: true}
	for s := range tri {
		removed[m.Next(s)] = true
		removed[m.Prev(s)] = true
	}
	keep := lo.Filter(append(m.OutgoingHalfedges(v0), m.OutgoingHalfedges(v1)...),
		func(x HalfedgeRef, _ int) bool { return !removed[x] })
	mid := m.EdgeCenter(e)

	for _, s := range sides {
		if tri[s] {
			m.dissolveTriangle(s)
		} else {
			m.unlink(s)
		}
	}
	v := m.AllocVertex(mid)
	for _, x := range keep {
		m.SetOrigin(x, v)
	}
	m.SetVertexHalfedge(v, keep[0])

	m.DropVertex(v0)
	m.DropVertex(v1)
	m.DropEdge(e)
	m.DropHalfedge(h)
	m.DropHalfedge(t)
	return v, nil
}

// CollapseFace merges every corner of f into one new vertex at the face
// centroid. Neighboring triangles degenerate and are removed; other
// neighbors lose the side they shared with f.
func (m *Mesh) CollapseFace(f FaceRef) (VertexRef, error) {
	const op = "collapse face"
	if m.IsBoundary(f) {
		return NoVertex, refuse(op, f, "face is a boundary loop")
	}
	sides := m.FaceHalfedges(f)
	corners := m.FaceVertices(f)

	seen := make(map[FaceRef]bool, len(sides))
	tri := make(map[HalfedgeRef]bool)
	var apexes []VertexRef
	boundarySides := 0
	for _, s := range sides {
		u := m.Twin(s)
		g := m.FaceOf(u)
		if seen[g] || g == f {
			return NoVertex, refuse(op, f, "face %v borders it more than once", g)
		}
		seen[g] = true
		n := m.FaceDegree(g)
		switch {
		case m.IsBoundary(g):
			boundarySides++
			if n <= 3 {
				return NoVertex, refuse(op, f, "boundary loop %v would close up", g)
			}
		case n == 3:
			c := m.Dest(m.Next(u))
			if lo.Contains(corners, c) || lo.Contains(apexes, c) {
				return NoVertex, refuse(op, f, "neighbor triangles meet at %v", c)
			}
			tri[u] = true
			apexes = append(apexes, c)
		}
	}

	onBoundary := lo.Filter(corners, func(v VertexRef, _ int) bool { return m.OnBoundary(v) })
	if (boundarySides == 0 && len(onBoundary) > 1) || (boundarySides == 1 && len(onBoundary) > 2) {
		return NoVertex, refuse(op, f, "collapse would pinch the boundary")
	}

	joins := make(map[VertexRef]int)
	for i, c := range corners {
		prev, next := corners[(i+len(corners)-1)%len(corners)], corners[(i+1)%len(corners)]
		for _, n := range m.Neighbors(c) {
			switch {
			case n == prev || n == next:
			case lo.Contains(corners, n):
				return NoVertex, refuse(op, f, "corners %v and %v are joined across the face", c, n)
			default:
				joins[n]++
			}
		}
	}
	for n, k := range joins {
		if lo.Contains(apexes, n) {
			k--
		}
		if k > 1 {
			return NoVertex, refuse(op, f, "vertex %v would be joined to the result twice", n)
		}
	}

	deg := lo.SumBy(corners, m.Degree) - 2*len(sides) - len(apexes)
	if err := m.checkMergedDegree(op, f, deg, len(onBoundary) > 0); err != nil {
		return NoVertex, err
	}
	for _, c := range apexes {
		if m.IncidentEdgeCount(c)-1 < 2 {
			return NoVertex, refuse(op, f, "apex %v would keep fewer than 2 edges", c)
		}
	}

	removed := make(map[HalfedgeRef]bool)
	for _, s := range sides {
		removed[s] = true
		removed[m.Twin(s)] = true
	}
	for u := range tri {
		removed[m.Next(u)] = true
		removed[m.Prev(u)] = true
	}
	var keep []HalfedgeRef
	for _, c := range corners {
		for _, x := range m.OutgoingHalfedges(c) {
			if !removed[x] {
				keep = append(keep, x)
			}
		}
	}
	center := m.FaceCenter(f)

	for _, s := range sides {
		u := m.Twin(s)
		if tri[u] {
			m.dissolveTriangle(u)
		} else {
			m.unlink(u)
		}
	}
	v := m.AllocVertex(center)
	for _, x := range keep {
		m.SetOrigin(x, v)
	}
	m.SetVertexHalfedge(v, keep[0])

	for _, s := range sides {
		m.DropEdge(m.EdgeOf(s))
		m.DropHalfedge(m.Twin(s))
		m.DropHalfedge(s)
	}
	for _, c := range corners {
		m.DropVertex(c)
	}
	m.DropFace(f)
	return v, nil
}

// checkMergedDegree refuses a merge whose result would have fewer than two
// edges inside the mesh, or fewer than one on the boundary.
func (m *Mesh) checkMergedDegree(op string, ref fmt.Stringer, deg int, boundary bool) error {
	least := 2
	if boundary {
		least = 1
	}
	if deg < least {
		return refuse(op, ref, "merged vertex would keep %d edges", deg)
	}
	return nil
}

// dissolveTriangle removes the triangle on the far side of s, fusing its two
// other sides into one edge. s itself is left for the caller to drop.
func (m *Mesh) dissolveTriangle(s HalfedgeRef) {
	sn := m.Next(s)
	sp := m.Next(sn)
	a, b := m.Twin(sn), m.Twin(sp)
	drop := m.EdgeOf(sn)

	m.pair(a, b, m.EdgeOf(sp))
	m.SetVertexHalfedge(m.Origin(a), a)

	m.DropFace(m.FaceOf(s))
	m.DropEdge(drop)
	m.DropHalfedge(sn)
	m.DropHalfedge(sp)
}

// unlink takes s out of its face loop. s itself is left for the caller to
// drop.
func (m *Mesh) unlink(s HalfedgeRef) {
	n := m.Next(s)
	m.SetNext(m.Prev(s), n)
	m.SetFaceHalfedge(m.FaceOf(s), n)
}
