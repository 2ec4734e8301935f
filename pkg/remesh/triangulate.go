package remesh

import (
	"github.com/chazu/meshedit/pkg/halfedge"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Triangulate cuts every polygon with more than three sides into triangles.
// Cuts alternate between the second corner of the remaining polygon and its
// first, so consecutive diagonals zig-zag across the polygon instead of
// fanning from one vertex. When that diagonal already exists as an edge the
// next corner that can be cut off is used. Triangles are left alone.
func Triangulate(m *halfedge.Mesh) error {
	work := m.Clone()
	cuts := 0
	for _, f := range work.Faces() {
		second := true
		for work.FaceDegree(f) > 3 {
			first := 0
			if !second {
				first = work.FaceDegree(f) - 1
			}
			if err := cutEar(work, f, first); err != nil {
				return errors.Wrapf(err, "triangulate %v", f)
			}
			second = !second
			cuts++
		}
	}
	if err := commit(m, work); err != nil {
		return err
	}
	klog.V(2).Infof("triangulate: %d cuts, %d faces", cuts, m.NumFaces())
	return nil
}

// cutEar splits the triangle at hs[i], hs[i+1] off f, trying corners from
// first onward. f keeps the rest of the polygon.
func cutEar(m *halfedge.Mesh, f halfedge.FaceRef, first int) error {
	hs := m.FaceHalfedges(f)
	n := len(hs)
	var err error
	for k := 0; k < n; k++ {
		i := (first + k) % n
		if _, err = m.SplitFace(hs[(i+2)%n], hs[i]); !errors.Is(err, halfedge.ErrRefused) {
			return err
		}
	}
	return err
}
