package remesh

import (
	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// LoopSubdivide refines a triangle mesh four-to-one with Loop's rules.
// Original vertices end with IsNew false, inserted ones with IsNew true.
// A cut whose flip the mesh refuses is kept unflipped, so degenerate inputs
// still subdivide into triangles.
func LoopSubdivide(m *halfedge.Mesh) error {
	if !m.IsTriangleMesh() {
		return unsupported("loop subdivide", "mesh has non-triangle faces")
	}
	work := m.Clone()

	for _, v := range work.Vertices() {
		work.SetIsNew(v, false)
		work.SetNewPos(v, loopVertexPos(work, v))
	}
	// Only the original edges are split; the snapshot excludes the halves
	// and cuts created below.
	edges := work.Edges()
	for _, e := range edges {
		work.SetEdgeIsNew(e, false)
		work.SetEdgeNewPos(e, loopEdgePos(work, e))
	}
	for _, e := range edges {
		a, b := work.EdgeVertices(e)
		p := work.EdgeNewPos(e)
		v, err := work.SplitEdge(e)
		if err != nil {
			return errors.Wrap(err, "loop subdivide")
		}
		work.SetIsNew(v, true)
		work.SetNewPos(v, p)
		for _, h := range work.OutgoingHalfedges(v) {
			d := work.Dest(h)
			work.SetEdgeIsNew(work.EdgeOf(h), d != a && d != b)
		}
	}

	flips, kept := 0, 0
	for _, e := range work.Edges() {
		if !work.EdgeIsNew(e) {
			continue
		}
		a, b := work.EdgeVertices(e)
		if work.IsNew(a) == work.IsNew(b) {
			continue
		}
		if _, err := work.FlipEdge(e); err != nil {
			// Where the opposite corners are already joined the cut stays
			// where the split left it. The faces are triangles either way.
			if !errors.Is(err, halfedge.ErrRefused) {
				return errors.Wrap(err, "loop subdivide")
			}
			kept++
			continue
		}
		flips++
	}

	for _, v := range work.Vertices() {
		work.SetPos(v, work.NewPos(v))
	}
	if err := commit(m, work); err != nil {
		return err
	}
	klog.V(2).Infof("loop subdivide: %d splits, %d flips, %d kept, %d faces", len(edges), flips, kept, m.NumFaces())
	return nil
}

func loopVertexPos(m *halfedge.Mesh, v halfedge.VertexRef) v3.Vec {
	p := m.Pos(v)
	if m.OnBoundary(v) {
		var sum v3.Vec
		for _, h := range m.OutgoingHalfedges(v) {
			if m.EdgeOnBoundary(m.EdgeOf(h)) {
				sum = sum.Add(m.Pos(m.Dest(h)))
			}
		}
		return p.MulScalar(0.75).Add(sum.MulScalar(0.125))
	}
	neighbors := m.Neighbors(v)
	n := float64(len(neighbors))
	beta := 3 / (8 * n)
	if len(neighbors) == 3 {
		beta = 3.0 / 16
	}
	var sum v3.Vec
	for _, u := range neighbors {
		sum = sum.Add(m.Pos(u))
	}
	return p.MulScalar(1 - n*beta).Add(sum.MulScalar(beta))
}

func loopEdgePos(m *halfedge.Mesh, e halfedge.EdgeRef) v3.Vec {
	if m.EdgeOnBoundary(e) {
		return m.EdgeCenter(e)
	}
	h := m.EdgeHalfedge(e)
	a, b := m.EdgeVertices(e)
	c := m.Dest(m.Next(h))
	d := m.Dest(m.Next(m.Twin(h)))
	ends := m.Pos(a).Add(m.Pos(b)).MulScalar(3.0 / 8)
	apexes := m.Pos(c).Add(m.Pos(d)).MulScalar(1.0 / 8)
	return ends.Add(apexes)
}
