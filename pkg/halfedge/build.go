package halfedge

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// FromPolygons builds a mesh from a position list and polygons given as
// counter-clockwise index lists. Edges used by a single polygon become mesh
// boundary and are closed off by boundary loops.
func FromPolygons(positions []v3.Vec, polygons [][]int) (*Mesh, error) {
	m := New()
	if err := m.build(positions, polygons); err != nil {
		return nil, err
	}
	return m, nil
}

// Rebuild replaces the whole mesh with the given polygons. On error the
// mesh is left unchanged. Every handle taken before a successful Rebuild
// becomes stale.
func (m *Mesh) Rebuild(positions []v3.Vec, polygons [][]int) error {
	next := m.Clone()
	next.vertices.reset()
	next.edges.reset()
	next.faces.reset()
	next.halfedges.reset()
	if err := next.build(positions, polygons); err != nil {
		return err
	}
	*m = *next
	return nil
}

type vertexPair struct{ a, b int }

func (m *Mesh) build(positions []v3.Vec, polygons [][]int) error {
	verts := make([]VertexRef, len(positions))
	for i, p := range positions {
		verts[i] = m.AllocVertex(p)
	}

	inner := make(map[vertexPair]HalfedgeRef)
	used := make([]bool, len(positions))
	for fi, poly := range polygons {
		if len(poly) < 3 {
			return errors.Wrapf(ErrBadIndex, "polygon %d has %d corners", fi, len(poly))
		}
		if len(lo.Uniq(poly)) != len(poly) {
			return errors.Wrapf(ErrBadIndex, "polygon %d repeats a corner", fi)
		}
		for _, idx := range poly {
			if idx < 0 || idx >= len(positions) {
				return errors.Wrapf(ErrBadIndex, "polygon %d references vertex %d of %d", fi, idx, len(positions))
			}
		}

		f := m.AllocFace(false)
		hs := make([]HalfedgeRef, len(poly))
		for i := range poly {
			hs[i] = m.AllocHalfedge()
		}
		for i, a := range poly {
			b := poly[(i+1)%len(poly)]
			k := vertexPair{a, b}
			if _, dup := inner[k]; dup {
				return errors.Wrapf(ErrNonManifold, "edge %d-%d is used twice in the same direction", a, b)
			}
			inner[k] = hs[i]
			r := m.hrec(hs[i])
			r.next, r.vertex, r.face = hs[(i+1)%len(hs)], verts[a], f
			m.vrec(verts[a]).halfedge = hs[i]
			used[a] = true
		}
		m.frec(f).halfedge = hs[0]
	}
	for i, u := range used {
		if !u {
			return errors.Wrapf(ErrBadIndex, "vertex %d is not used by any polygon", i)
		}
	}

	// Pair twins. Unpaired sides get a boundary halfedge.
	boundaryOut := make(map[int]HalfedgeRef)
	boundaryDest := make(map[HalfedgeRef]int)
	var boundary []HalfedgeRef
	for _, poly := range polygons {
		for i, a := range poly {
			b := poly[(i+1)%len(poly)]
			h := inner[vertexPair{a, b}]
			if !m.Twin(h).IsNil() {
				continue
			}
			if t, ok := inner[vertexPair{b, a}]; ok {
				m.pair(h, t, m.AllocEdge())
				continue
			}
			if _, dup := boundaryOut[b]; dup {
				return errors.Wrapf(ErrNonManifold, "vertex %d touches the boundary more than once", b)
			}
			t := m.AllocHalfedge()
			m.pair(h, t, m.AllocEdge())
			m.SetOrigin(t, verts[b])
			boundaryOut[b] = t
			boundaryDest[t] = a
			boundary = append(boundary, t)
		}
	}
	for _, t := range boundary {
		n, ok := boundaryOut[boundaryDest[t]]
		if !ok {
			return errors.Wrapf(ErrNonManifold, "boundary does not continue past vertex %d", boundaryDest[t])
		}
		m.SetNext(t, n)
	}
	loopOf := make(map[HalfedgeRef]FaceRef, len(boundary))
	for _, t := range boundary {
		if _, done := loopOf[t]; done {
			continue
		}
		f := m.AllocFace(true)
		m.SetFaceHalfedge(f, t)
		h := t
		for steps := 0; ; steps++ {
			if steps > len(boundary) {
				return errors.Wrapf(ErrNonManifold, "boundary loop through vertex %d does not close", boundaryDest[t])
			}
			loopOf[h] = f
			m.SetFace(h, f)
			h = m.Next(h)
			if h == t {
				break
			}
		}
	}

	// Every vertex must be a single fan.
	outgoing := make(map[VertexRef]int, len(verts))
	for _, h := range m.Halfedges() {
		outgoing[m.Origin(h)]++
	}
	for i, v := range verts {
		start := m.VertexHalfedge(v)
		n := 0
		for h := start; ; {
			n++
			h = m.Next(m.Twin(h))
			if h == start || n > outgoing[v] {
				break
			}
		}
		if n != outgoing[v] {
			return errors.Wrapf(ErrNonManifold, "vertex %d joins more than one fan", i)
		}
	}
	return nil
}

// Export returns dense positions and the polygons of every non-boundary
// face, in storage order. FromPolygons(m.Export()) rebuilds an equivalent
// mesh.
func (m *Mesh) Export() ([]v3.Vec, [][]int) {
	verts := m.Vertices()
	index := make(map[VertexRef]int, len(verts))
	positions := make([]v3.Vec, len(verts))
	for i, v := range verts {
		index[v] = i
		positions[i] = m.Pos(v)
	}
	faces := m.Faces()
	polygons := make([][]int, len(faces))
	for i, f := range faces {
		polygons[i] = lo.Map(m.FaceVertices(f), func(v VertexRef, _ int) int { return index[v] })
	}
	return positions, polygons
}
