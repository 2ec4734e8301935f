// Package tessellate converts between editable half-edge meshes and the flat
// triangle buffers of kernel.Mesh. Export fan-triangulates every face; Import
// welds a triangle soup (such as marching cubes output) back into a
// connected half-edge mesh.
package tessellate

import (
	"github.com/chazu/meshedit/pkg/halfedge"
	"github.com/chazu/meshedit/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
)

// DefaultWeldTolerance is the distance under which two soup vertices are
// treated as the same mesh vertex.
const DefaultWeldTolerance = 1e-5

// ImportOptions controls Import.
type ImportOptions struct {
	WeldTolerance float64
}

// DefaultImportOptions returns the options used by FromSolid.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{WeldTolerance: DefaultWeldTolerance}
}

// Export flattens a half-edge mesh into triangle buffers. Polygons are fan
// triangulated from their first corner; normals are the area-weighted vertex
// normals.
func Export(m *halfedge.Mesh) *kernel.Mesh {
	verts := m.Vertices()
	index := make(map[halfedge.VertexRef]uint32, len(verts))
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(verts)),
		Normals:  make([]float32, 0, 3*len(verts)),
	}
	for i, v := range verts {
		index[v] = uint32(i)
		p, n := m.Pos(v), m.Normal(v)
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, f := range m.Faces() {
		corners := m.FaceVertices(f)
		for i := 1; i+1 < len(corners); i++ {
			out.Indices = append(out.Indices, index[corners[0]], index[corners[i]], index[corners[i+1]])
		}
	}
	return out
}

// weldPoint is a welded vertex stored in the R-tree.
type weldPoint struct {
	index int
	p     rtreego.Point
}

func (w *weldPoint) Bounds() rtreego.Rect {
	return w.p.ToRect(pointExtent)
}

// pointExtent is the half size of a stored point's box; rtreego needs boxes
// with non-zero sides.
const pointExtent = 1e-12

// welder merges coincident positions using an R-tree lookup.
type welder struct {
	tol       float64
	tree      *rtreego.Rtree
	positions []v3.Vec
}

func newWelder(tol float64) *welder {
	if tol <= pointExtent {
		tol = 2 * pointExtent
	}
	return &welder{tol: tol, tree: rtreego.NewTree(3, 25, 50)}
}

// weld returns the index of the welded vertex for p, adding one if no
// existing vertex lies within the tolerance.
func (w *welder) weld(p v3.Vec) int {
	pt := rtreego.Point{p.X, p.Y, p.Z}
	best, bestDist := -1, w.tol
	for _, s := range w.tree.SearchIntersect(pt.ToRect(w.tol)) {
		c := s.(*weldPoint)
		if d := w.positions[c.index].Sub(p).Length(); d <= bestDist {
			best, bestDist = c.index, d
		}
	}
	if best >= 0 {
		return best
	}
	idx := len(w.positions)
	w.positions = append(w.positions, p)
	w.tree.Insert(&weldPoint{index: idx, p: pt})
	return idx
}

// Import welds a triangle soup into a half-edge mesh. Vertices closer than
// the weld tolerance are merged; triangles that lose a corner to welding are
// dropped along with the vertices only they used.
func Import(km *kernel.Mesh, opts ImportOptions) (*halfedge.Mesh, error) {
	if km == nil || km.TriangleCount() == 0 {
		return nil, errors.Wrap(halfedge.ErrBadIndex, "tessellate: import: empty mesh")
	}
	if len(km.Indices)%3 != 0 {
		return nil, errors.Wrapf(halfedge.ErrBadIndex, "tessellate: import: %d indices is not a triangle list", len(km.Indices))
	}

	w := newWelder(opts.WeldTolerance)
	welded := make([]int, km.VertexCount())
	for i := range welded {
		c := km.Vertex(i)
		welded[i] = w.weld(v3.Vec{X: float64(c[0]), Y: float64(c[1]), Z: float64(c[2])})
	}

	var triangles [][]int
	dropped := 0
	for t := 0; t < km.TriangleCount(); t++ {
		tri := km.Triangle(t)
		var corners [3]int
		for j, idx := range tri {
			if int(idx) >= len(welded) {
				return nil, errors.Wrapf(halfedge.ErrBadIndex, "tessellate: import: triangle %d references vertex %d of %d",
					t, idx, len(welded))
			}
			corners[j] = welded[idx]
		}
		if corners[0] == corners[1] || corners[1] == corners[2] || corners[2] == corners[0] {
			dropped++
			continue
		}
		triangles = append(triangles, corners[:])
	}
	if len(triangles) == 0 {
		return nil, errors.Wrapf(halfedge.ErrBadIndex, "tessellate: import: all %d triangles are degenerate", dropped)
	}

	positions, polygons := compactVertices(w.positions, triangles)
	m, err := halfedge.FromPolygons(positions, polygons)
	if err != nil {
		return nil, errors.Wrap(err, "tessellate: import")
	}
	return m, nil
}

// compactVertices drops positions no polygon references and renumbers the
// polygons to match.
func compactVertices(positions []v3.Vec, polygons [][]int) ([]v3.Vec, [][]int) {
	remap := make([]int, len(positions))
	for i := range remap {
		remap[i] = -1
	}
	var kept []v3.Vec
	for _, poly := range polygons {
		for j, idx := range poly {
			if remap[idx] < 0 {
				remap[idx] = len(kept)
				kept = append(kept, positions[idx])
			}
			poly[j] = remap[idx]
		}
	}
	return kept, polygons
}

// FromSolid tessellates a kernel solid and welds the result into an editable
// mesh.
func FromSolid(k kernel.Kernel, s kernel.Solid, opts ImportOptions) (*halfedge.Mesh, error) {
	km, err := k.ToMesh(s)
	if err != nil {
		return nil, errors.Wrap(err, "tessellate: ToMesh failed")
	}
	return Import(km, opts)
}
