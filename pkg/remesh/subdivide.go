package remesh

import (
	"fmt"

	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/samber/lo"
)

// Scheme selects the position rule used by Subdivide.
type Scheme int

const (
	Linear Scheme = iota
	CatmullClark
)

func (s Scheme) String() string {
	switch s {
	case Linear:
		return "linear"
	case CatmullClark:
		return "catmull-clark"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Subdivide splits every polygon of m into quads, one per corner, joining
// the corner, the midpoints of its two sides and the face center. The
// scheme decides where those points land. Catmull-Clark is only defined
// for closed meshes.
func Subdivide(m *halfedge.Mesh, scheme Scheme) error {
	switch scheme {
	case Linear:
		linearPositions(m)
	case CatmullClark:
		if m.HasBoundary() {
			return unsupported("subdivide", "catmull-clark needs a closed mesh")
		}
		catmullClarkPositions(m)
	default:
		return unsupported("subdivide", "unknown scheme %v", scheme)
	}
	positions, quads := quadMesh(m)
	if err := m.Rebuild(positions, quads); err != nil {
		return errors.Wrapf(err, "subdivide %v", scheme)
	}
	klog.V(2).Infof("subdivide %v: %d vertices, %d faces", scheme, m.NumVertices(), m.NumFaces())
	return nil
}

func linearPositions(m *halfedge.Mesh) {
	for _, v := range m.Vertices() {
		m.SetNewPos(v, m.Pos(v))
	}
	for _, e := range m.Edges() {
		m.SetEdgeNewPos(e, m.EdgeCenter(e))
	}
	for _, f := range m.Faces() {
		m.SetFaceNewPos(f, m.FaceCenter(f))
	}
}

func catmullClarkPositions(m *halfedge.Mesh) {
	for _, f := range m.Faces() {
		m.SetFaceNewPos(f, m.FaceCenter(f))
	}
	// Edge points average the endpoints and the two face points.
	for _, e := range m.Edges() {
		h := m.EdgeHalfedge(e)
		a, b := m.EdgeVertices(e)
		p := m.Pos(a).Add(m.Pos(b)).
			Add(m.FaceNewPos(m.FaceOf(h))).
			Add(m.FaceNewPos(m.FaceOf(m.Twin(h))))
		m.SetEdgeNewPos(e, p.MulScalar(0.25))
	}
	// (Q + 2R + (n-3)S) / n
	for _, v := range m.Vertices() {
		out := m.OutgoingHalfedges(v)
		n := float64(len(out))
		var q, r v3.Vec
		for _, h := range out {
			q = q.Add(m.FaceNewPos(m.FaceOf(h)))
			r = r.Add(m.EdgeCenter(m.EdgeOf(h)))
		}
		q, r = q.DivScalar(n), r.DivScalar(n)
		s := m.Pos(v)
		m.SetNewPos(v, q.Add(r.MulScalar(2)).Add(s.MulScalar(n-3)).DivScalar(n))
	}
}

// quadMesh numbers vertices, then edges, then faces, and emits one quad per
// face corner using the new positions stored on each element.
func quadMesh(m *halfedge.Mesh) ([]v3.Vec, [][]int) {
	verts, edges, faces := m.Vertices(), m.Edges(), m.Faces()
	vi := make(map[halfedge.VertexRef]int, len(verts))
	ei := make(map[halfedge.EdgeRef]int, len(edges))
	for i, v := range verts {
		vi[v] = i
	}
	for i, e := range edges {
		ei[e] = len(verts) + i
	}

	positions := lo.Map(verts, func(v halfedge.VertexRef, _ int) v3.Vec { return m.NewPos(v) })
	positions = append(positions, lo.Map(edges, func(e halfedge.EdgeRef, _ int) v3.Vec { return m.EdgeNewPos(e) })...)
	positions = append(positions, lo.Map(faces, func(f halfedge.FaceRef, _ int) v3.Vec { return m.FaceNewPos(f) })...)

	var quads [][]int
	for i, f := range faces {
		center := len(verts) + len(edges) + i
		for _, h := range m.FaceHalfedges(f) {
			quads = append(quads, []int{
				vi[m.Origin(h)],
				ei[m.EdgeOf(h)],
				center,
				ei[m.EdgeOf(m.Prev(h))],
			})
		}
	}
	return positions, quads
}
