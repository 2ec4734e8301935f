package remesh

import (
	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// IsotropicRemesh evens out edge lengths and vertex degrees of a closed
// triangle mesh. Each round splits edges longer than 4/3 of the mean edge
// length, collapses edges shorter than 4/5 of it, flips edges toward degree
// 6 and smooths vertices within their tangent planes.
func IsotropicRemesh(m *halfedge.Mesh, opts RemeshOptions) error {
	const op = "isotropic remesh"
	if m.HasBoundary() {
		return unsupported(op, "mesh has boundary")
	}
	if !m.IsTriangleMesh() {
		return unsupported(op, "mesh has non-triangle faces")
	}
	work := m.Clone()
	target := work.MeanEdgeLength()
	long, short := target*4/3, target*4/5

	for round := 0; round < opts.Iterations; round++ {
		splits, collapses, flips := 0, 0, 0

		for _, e := range work.Edges() {
			if work.EdgeLength(e) <= long {
				continue
			}
			if _, err := work.SplitEdge(e); err != nil {
				if !errors.Is(err, halfedge.ErrRefused) {
					return errors.Wrap(err, op)
				}
				continue
			}
			splits++
		}

		for _, e := range work.Edges() {
			// Earlier collapses drop neighboring edges.
			if !work.EdgeAlive(e) || work.EdgeLength(e) >= short {
				continue
			}
			if _, err := work.CollapseEdge(e); err != nil {
				if !errors.Is(err, halfedge.ErrRefused) {
					return errors.Wrap(err, op)
				}
				continue
			}
			collapses++
		}
		if err := work.Validate(); err != nil {
			return err
		}

		for _, e := range work.Edges() {
			if !flipImproves(work, e) {
				continue
			}
			if _, err := work.FlipEdge(e); err == nil {
				flips++
			}
		}

		for i := 0; i < opts.SmoothIterations; i++ {
			smoothTangential(work, opts.Damping)
		}
		klog.V(2).Infof("%s round %d: %d splits, %d collapses, %d flips, %d faces",
			op, round, splits, collapses, flips, work.NumFaces())
	}
	return commit(m, work)
}

// flipImproves reports whether flipping e lowers the total distance from
// degree 6 over its endpoints and the two opposite corners.
func flipImproves(m *halfedge.Mesh, e halfedge.EdgeRef) bool {
	h := m.EdgeHalfedge(e)
	a, b := m.EdgeVertices(e)
	c := m.Dest(m.Next(h))
	d := m.Dest(m.Next(m.Twin(h)))
	da, db, dc, dd := m.Degree(a), m.Degree(b), m.Degree(c), m.Degree(d)
	before := dev(da) + dev(db) + dev(dc) + dev(dd)
	after := dev(da-1) + dev(db-1) + dev(dc+1) + dev(dd+1)
	return after < before
}

func dev(degree int) int {
	if degree > 6 {
		return degree - 6
	}
	return 6 - degree
}

// smoothTangential moves every vertex part of the way toward the centroid
// of its neighbors, keeping only the offset that lies in the tangent plane.
func smoothTangential(m *halfedge.Mesh, damping float64) {
	verts := m.Vertices()
	next := make([]v3.Vec, len(verts))
	for i, v := range verts {
		p := m.Pos(v)
		var c v3.Vec
		neighbors := m.Neighbors(v)
		for _, u := range neighbors {
			c = c.Add(m.Pos(u))
		}
		c = c.DivScalar(float64(len(neighbors)))
		n := m.Normal(v)
		d := c.Sub(p)
		d = d.Sub(n.MulScalar(n.Dot(d)))
		next[i] = p.Add(d.MulScalar(damping))
	}
	for i, v := range verts {
		m.SetPos(v, next[i])
	}
}
