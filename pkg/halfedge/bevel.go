package halfedge

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// maxOffset keeps bevelled corners from reaching the vertex they slide
// toward.
const maxOffset = 0.99

// InsetVertex adds a vertex at the centroid of f and fans triangles from it
// to every side of f. f is replaced; the new vertex is returned.
func (m *Mesh) InsetVertex(f FaceRef) (VertexRef, error) {
	if m.IsBoundary(f) {
		return NoVertex, refuse("inset vertex", f, "face is a boundary loop")
	}
	sides := m.FaceHalfedges(f)
	corners := m.FaceVertices(f)
	n := len(sides)

	c := m.AllocVertex(m.FaceCenter(f))
	in := make([]HalfedgeRef, n)  // corner i -> c
	out := make([]HalfedgeRef, n) // c -> corner i
	faces := make([]FaceRef, n)
	for i := range sides {
		in[i], out[i] = m.AllocHalfedge(), m.AllocHalfedge()
		m.pair(in[i], out[i], m.AllocEdge())
		faces[i] = m.AllocFace(false)
	}
	for i, s := range sides {
		j := (i + 1) % n
		m.SetNext(s, in[j])
		m.SetFace(s, faces[i])

		m.SetNext(in[j], out[i])
		m.SetOrigin(in[j], corners[j])
		m.SetFace(in[j], faces[i])

		m.SetNext(out[i], s)
		m.SetOrigin(out[i], c)
		m.SetFace(out[i], faces[i])

		m.SetFaceHalfedge(faces[i], s)
	}
	m.SetVertexHalfedge(c, out[0])
	m.DropFace(f)
	return c, nil
}

// BevelVertex replaces v with a new face that has one corner on each edge
// that left v. Every corner starts at v's position; BevelVertexPositions
// moves them apart.
func (m *Mesh) BevelVertex(v VertexRef) (FaceRef, error) {
	out := m.OutgoingHalfedges(v)
	k := len(out)
	if k < 3 {
		return NoFace, refuse("bevel vertex", v, "vertex has only %d edges", k)
	}
	pos := m.Pos(v)

	w := make([]VertexRef, k)
	x := make([]HalfedgeRef, k) // w[i] -> w[i+1], in the face between out[i] and out[i+1]
	y := make([]HalfedgeRef, k) // twin of x[i], in the new face
	center := m.AllocFace(false)
	for i := range out {
		w[i] = m.AllocVertex(pos)
		x[i], y[i] = m.AllocHalfedge(), m.AllocHalfedge()
		m.pair(x[i], y[i], m.AllocEdge())
	}
	for i, h := range out {
		m.SetOrigin(h, w[i])
		m.SetVertexHalfedge(w[i], h)
	}
	for i := range out {
		j := (i + 1) % k
		m.SetNext(m.Twin(out[i]), x[i])
		m.SetNext(x[i], out[j])
		m.SetOrigin(x[i], w[i])
		m.SetFace(x[i], m.FaceOf(out[j]))

		m.SetNext(y[i], y[(i+k-1)%k])
		m.SetOrigin(y[i], w[j])
		m.SetFace(y[i], center)
	}
	m.SetFaceHalfedge(center, y[0])
	m.DropVertex(v)
	return center, nil
}

// BevelEdge replaces e with a new face whose corners sit on every other
// edge leaving e's endpoints. Corners start at the endpoint they came from;
// BevelEdgePositions moves them apart.
func (m *Mesh) BevelEdge(e EdgeRef) (FaceRef, error) {
	h := m.EdgeHalfedge(e)
	t := m.Twin(h)
	v0, v1 := m.Origin(h), m.Origin(t)

	// The two fans without e itself: around v0 starting after h, then around
	// v1 starting after t.
	var spokes []HalfedgeRef
	for x := m.Next(t); x != h; x = m.Next(m.Twin(x)) {
		spokes = append(spokes, x)
	}
	split := len(spokes)
	for x := m.Next(h); x != t; x = m.Next(m.Twin(x)) {
		spokes = append(spokes, x)
	}
	k := len(spokes)
	if split == 0 || split == k || k < 3 {
		return NoFace, refuse("bevel edge", e, "endpoints have too few other edges")
	}

	w := make([]VertexRef, k)
	c := make([]HalfedgeRef, k) // w[i] -> w[i+1]; h and t are reused at the seams
	y := make([]HalfedgeRef, k) // twin of c[i], in the new face
	center := m.AllocFace(false)
	for i := range spokes {
		pos := m.Pos(v0)
		if i >= split {
			pos = m.Pos(v1)
		}
		w[i] = m.AllocVertex(pos)
		switch i {
		case split - 1:
			c[i] = h
		case k - 1:
			c[i] = t
		default:
			c[i] = m.AllocHalfedge()
		}
		y[i] = m.AllocHalfedge()
		edge := e
		if i != split-1 {
			edge = m.AllocEdge()
		}
		m.pair(c[i], y[i], edge)
	}
	for i, s := range spokes {
		m.SetOrigin(s, w[i])
		m.SetVertexHalfedge(w[i], s)
	}
	for i := range spokes {
		j := (i + 1) % k
		if c[i] != h && c[i] != t {
			m.SetNext(m.Twin(spokes[i]), c[i])
			m.SetNext(c[i], spokes[j])
			m.SetFace(c[i], m.FaceOf(spokes[j]))
		}
		m.SetOrigin(c[i], w[i])

		m.SetNext(y[i], y[(i+k-1)%k])
		m.SetOrigin(y[i], w[j])
		m.SetFace(y[i], center)
	}
	m.SetFaceHalfedge(center, y[0])
	m.DropVertex(v0)
	m.DropVertex(v1)
	return center, nil
}

// BevelFace insets f: a copy of f is surrounded by a ring of quads joining
// it to the original sides. The copy's corners start on the corners they
// came from; BevelFacePositions moves them. The copy is returned.
func (m *Mesh) BevelFace(f FaceRef) (FaceRef, error) {
	if m.IsBoundary(f) {
		return NoFace, refuse("bevel face", f, "face is a boundary loop")
	}
	sides := m.FaceHalfedges(f)
	corners := m.FaceVertices(f)
	n := len(sides)

	q := make([]VertexRef, n)
	up := make([]HalfedgeRef, n)    // corner i -> q[i]
	down := make([]HalfedgeRef, n)  // q[i] -> corner i
	outer := make([]HalfedgeRef, n) // q[i+1] -> q[i], in ring quad i
	inner := make([]HalfedgeRef, n) // q[i] -> q[i+1], in the new face
	ring := make([]FaceRef, n)
	g := m.AllocFace(false)
	for i := range sides {
		q[i] = m.AllocVertex(m.Pos(corners[i]))
		up[i], down[i] = m.AllocHalfedge(), m.AllocHalfedge()
		m.pair(up[i], down[i], m.AllocEdge())
		outer[i], inner[i] = m.AllocHalfedge(), m.AllocHalfedge()
		m.pair(outer[i], inner[i], m.AllocEdge())
		ring[i] = m.AllocFace(false)
	}
	for i, s := range sides {
		j := (i + 1) % n
		// ring quad i: s -> up[j] -> outer[i] -> down[i]
		m.SetNext(s, up[j])
		m.SetFace(s, ring[i])

		m.SetNext(up[j], outer[i])
		m.SetOrigin(up[j], corners[j])
		m.SetFace(up[j], ring[i])

		m.SetNext(outer[i], down[i])
		m.SetOrigin(outer[i], q[j])
		m.SetFace(outer[i], ring[i])

		m.SetNext(down[i], s)
		m.SetOrigin(down[i], q[i])
		m.SetFace(down[i], ring[i])

		m.SetNext(inner[i], inner[j])
		m.SetOrigin(inner[i], q[i])
		m.SetFace(inner[i], g)

		m.SetFaceHalfedge(ring[i], s)
		m.SetVertexHalfedge(q[i], inner[i])
	}
	m.SetFaceHalfedge(g, inner[0])
	m.DropFace(f)
	return g, nil
}

// ExtrudeVertex is not supported and always refuses.
func (m *Mesh) ExtrudeVertex(v VertexRef) (FaceRef, error) {
	return NoFace, refuse("extrude vertex", v, "extrusion is not supported")
}

// ---------------------------------------------------------------------------
// Position passes
// ---------------------------------------------------------------------------

// BevelVertexPositions slides each corner of the face made by BevelVertex
// along its edge, tangentOffset of the way from its start position toward
// the far vertex. start holds the positions captured by FacePositions right
// after the bevel, in loop order.
func (m *Mesh) BevelVertexPositions(start []v3.Vec, f FaceRef, tangentOffset float64) error {
	return m.slideCorners("bevel vertex positions", start, f, tangentOffset)
}

// BevelEdgePositions is BevelVertexPositions for faces made by BevelEdge.
func (m *Mesh) BevelEdgePositions(start []v3.Vec, f FaceRef, tangentOffset float64) error {
	return m.slideCorners("bevel edge positions", start, f, tangentOffset)
}

// BevelFacePositions moves each corner of the face made by BevelFace
// tangentOffset of the way toward the centroid of start, then normalOffset
// along the normal of start. A negative tangentOffset grows the face.
func (m *Mesh) BevelFacePositions(start []v3.Vec, f FaceRef, tangentOffset, normalOffset float64) error {
	corners := m.FaceVertices(f)
	if len(start) != len(corners) {
		return refuse("bevel face positions", f, "got %d start positions for %d corners", len(start), len(corners))
	}
	var center, area v3.Vec
	for i, p := range start {
		center = center.Add(p)
		area = area.Add(p.Cross(start[(i+1)%len(start)]))
	}
	center = center.DivScalar(float64(len(start)))
	lift := normalize(area).MulScalar(normalOffset)
	t := math.Min(tangentOffset, maxOffset)
	for i, v := range corners {
		p := start[i].Add(center.Sub(start[i]).MulScalar(t)).Add(lift)
		m.SetPos(v, p)
	}
	return nil
}

func (m *Mesh) slideCorners(op string, start []v3.Vec, f FaceRef, tangentOffset float64) error {
	corners := m.FaceVertices(f)
	if len(start) != len(corners) {
		return refuse(op, f, "got %d start positions for %d corners", len(start), len(corners))
	}
	t := math.Max(0, math.Min(tangentOffset, maxOffset))
	targets := make([]v3.Vec, len(corners))
	for i, v := range corners {
		s, ok := m.spoke(v, f)
		if !ok {
			return refuse(op, f, "corner %v has no edge leading away from the face", v)
		}
		far := m.Pos(m.Dest(s))
		targets[i] = start[i].Add(far.Sub(start[i]).MulScalar(t))
	}
	for i, v := range corners {
		m.SetPos(v, targets[i])
	}
	return nil
}

// spoke returns the halfedge leaving v whose edge does not touch f.
func (m *Mesh) spoke(v VertexRef, f FaceRef) (HalfedgeRef, bool) {
	for _, h := range m.OutgoingHalfedges(v) {
		if m.FaceOf(h) != f && m.FaceOf(m.Twin(h)) != f {
			return h, true
		}
	}
	return NoHalfedge, false
}
