package halfedge

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type vertexRec struct {
	id       uint32
	pos      v3.Vec
	newPos   v3.Vec
	isNew    bool
	halfedge HalfedgeRef
}

type edgeRec struct {
	id       uint32
	newPos   v3.Vec
	isNew    bool
	halfedge HalfedgeRef
}

type faceRec struct {
	id       uint32
	newPos   v3.Vec
	boundary bool
	halfedge HalfedgeRef
}

type halfedgeRec struct {
	id     uint32
	next   HalfedgeRef
	twin   HalfedgeRef
	vertex VertexRef
	edge   EdgeRef
	face   FaceRef
}

// Mesh owns every element of a half-edge mesh. A Mesh is not safe for
// concurrent use; callers serialize writers and keep readers out while an
// operator runs.
type Mesh struct {
	vertices  arena[vertexRec]
	edges     arena[edgeRec]
	faces     arena[faceRec]
	halfedges arena[halfedgeRec]
	nextID    uint32
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{
		vertices:  arena[vertexRec]{kind: "vertex"},
		edges:     arena[edgeRec]{kind: "edge"},
		faces:     arena[faceRec]{kind: "face"},
		halfedges: arena[halfedgeRec]{kind: "halfedge"},
	}
}

// Clone returns a deep copy. Handles valid in m are valid in the clone.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		vertices:  m.vertices.clone(),
		edges:     m.edges.clone(),
		faces:     m.faces.clone(),
		halfedges: m.halfedges.clone(),
		nextID:    m.nextID,
	}
}

func (m *Mesh) id() uint32 {
	m.nextID++
	return m.nextID
}

// ---------------------------------------------------------------------------
// Allocation and logical deletion
// ---------------------------------------------------------------------------

// AllocVertex adds a vertex at pos with no outgoing halfedge yet.
func (m *Mesh) AllocVertex(pos v3.Vec) VertexRef {
	return VertexRef(m.vertices.alloc(vertexRec{id: m.id(), pos: pos, newPos: pos}))
}

// AllocEdge adds an edge with no halfedge yet.
func (m *Mesh) AllocEdge() EdgeRef {
	return EdgeRef(m.edges.alloc(edgeRec{id: m.id()}))
}

// AllocFace adds a face, or a boundary loop when boundary is set.
func (m *Mesh) AllocFace(boundary bool) FaceRef {
	return FaceRef(m.faces.alloc(faceRec{id: m.id(), boundary: boundary}))
}

// AllocHalfedge adds a halfedge with every reference unset.
func (m *Mesh) AllocHalfedge() HalfedgeRef {
	return HalfedgeRef(m.halfedges.alloc(halfedgeRec{id: m.id()}))
}

// DropVertex marks v for removal at the next compaction.
func (m *Mesh) DropVertex(v VertexRef) { m.vertices.erase(handle(v)) }

// DropEdge marks e for removal at the next compaction.
func (m *Mesh) DropEdge(e EdgeRef) { m.edges.erase(handle(e)) }

// DropFace marks f for removal at the next compaction.
func (m *Mesh) DropFace(f FaceRef) { m.faces.erase(handle(f)) }

// DropHalfedge marks h for removal at the next compaction.
func (m *Mesh) DropHalfedge(h HalfedgeRef) { m.halfedges.erase(handle(h)) }

// Compact frees every dropped record and returns how many were freed.
// Validate calls it after a clean check.
func (m *Mesh) Compact() int {
	return m.vertices.compact() + m.edges.compact() + m.faces.compact() + m.halfedges.compact()
}

// Pending reports how many dropped records await compaction.
func (m *Mesh) Pending() int {
	return m.vertices.pending() + m.edges.pending() + m.faces.pending() + m.halfedges.pending()
}

func (m *Mesh) VertexAlive(v VertexRef) bool     { return m.vertices.alive(handle(v)) }
func (m *Mesh) EdgeAlive(e EdgeRef) bool         { return m.edges.alive(handle(e)) }
func (m *Mesh) FaceAlive(f FaceRef) bool         { return m.faces.alive(handle(f)) }
func (m *Mesh) HalfedgeAlive(h HalfedgeRef) bool { return m.halfedges.alive(handle(h)) }

// VertexErased reports whether v was dropped and awaits compaction.
func (m *Mesh) VertexErased(v VertexRef) bool { return m.vertices.erased(handle(v)) }
func (m *Mesh) EdgeErased(e EdgeRef) bool     { return m.edges.erased(handle(e)) }
func (m *Mesh) FaceErased(f FaceRef) bool     { return m.faces.erased(handle(f)) }

// ---------------------------------------------------------------------------
// Record access
// ---------------------------------------------------------------------------

func (m *Mesh) vrec(v VertexRef) *vertexRec     { return m.vertices.get(handle(v)) }
func (m *Mesh) erec(e EdgeRef) *edgeRec         { return m.edges.get(handle(e)) }
func (m *Mesh) frec(f FaceRef) *faceRec         { return m.faces.get(handle(f)) }
func (m *Mesh) hrec(h HalfedgeRef) *halfedgeRec { return m.halfedges.get(handle(h)) }

func (m *Mesh) Next(h HalfedgeRef) HalfedgeRef { return m.hrec(h).next }
func (m *Mesh) Twin(h HalfedgeRef) HalfedgeRef { return m.hrec(h).twin }

// Origin returns the vertex h leaves from.
func (m *Mesh) Origin(h HalfedgeRef) VertexRef { return m.hrec(h).vertex }

// Dest returns the vertex h points to.
func (m *Mesh) Dest(h HalfedgeRef) VertexRef { return m.Origin(m.Twin(h)) }

func (m *Mesh) EdgeOf(h HalfedgeRef) EdgeRef { return m.hrec(h).edge }
func (m *Mesh) FaceOf(h HalfedgeRef) FaceRef { return m.hrec(h).face }

// Prev walks the face loop of h to find the halfedge whose next is h.
func (m *Mesh) Prev(h HalfedgeRef) HalfedgeRef {
	p := h
	for i := 0; i <= len(m.halfedges.slots); i++ {
		n := m.Next(p)
		if n == h {
			return p
		}
		p = n
	}
	panic("halfedge: face loop of " + h.String() + " does not close")
}

func (m *Mesh) VertexHalfedge(v VertexRef) HalfedgeRef { return m.vrec(v).halfedge }
func (m *Mesh) EdgeHalfedge(e EdgeRef) HalfedgeRef     { return m.erec(e).halfedge }
func (m *Mesh) FaceHalfedge(f FaceRef) HalfedgeRef     { return m.frec(f).halfedge }

// IsBoundary reports whether f is a boundary loop rather than a polygon.
func (m *Mesh) IsBoundary(f FaceRef) bool { return m.frec(f).boundary }

func (m *Mesh) Pos(v VertexRef) v3.Vec          { return m.vrec(v).pos }
func (m *Mesh) SetPos(v VertexRef, p v3.Vec)    { m.vrec(v).pos = p }
func (m *Mesh) NewPos(v VertexRef) v3.Vec       { return m.vrec(v).newPos }
func (m *Mesh) SetNewPos(v VertexRef, p v3.Vec) { m.vrec(v).newPos = p }
func (m *Mesh) IsNew(v VertexRef) bool          { return m.vrec(v).isNew }
func (m *Mesh) SetIsNew(v VertexRef, b bool)    { m.vrec(v).isNew = b }

func (m *Mesh) EdgeNewPos(e EdgeRef) v3.Vec       { return m.erec(e).newPos }
func (m *Mesh) SetEdgeNewPos(e EdgeRef, p v3.Vec) { m.erec(e).newPos = p }
func (m *Mesh) EdgeIsNew(e EdgeRef) bool          { return m.erec(e).isNew }
func (m *Mesh) SetEdgeIsNew(e EdgeRef, b bool)    { m.erec(e).isNew = b }
func (m *Mesh) FaceNewPos(f FaceRef) v3.Vec       { return m.frec(f).newPos }
func (m *Mesh) SetFaceNewPos(f FaceRef, p v3.Vec) { m.frec(f).newPos = p }

func (m *Mesh) VertexID(v VertexRef) uint32     { return m.vrec(v).id }
func (m *Mesh) EdgeID(e EdgeRef) uint32         { return m.erec(e).id }
func (m *Mesh) FaceID(f FaceRef) uint32         { return m.frec(f).id }
func (m *Mesh) HalfedgeID(h HalfedgeRef) uint32 { return m.hrec(h).id }

// ---------------------------------------------------------------------------
// Pointer surgery
// ---------------------------------------------------------------------------

// SetNeighbors overwrites every reference held by h. The mesh is only
// guaranteed consistent again once the caller has finished its edit and
// Validate succeeds.
func (m *Mesh) SetNeighbors(h, next, twin HalfedgeRef, v VertexRef, e EdgeRef, f FaceRef) {
	r := m.hrec(h)
	r.next, r.twin, r.vertex, r.edge, r.face = next, twin, v, e, f
}

func (m *Mesh) SetNext(h, next HalfedgeRef)          { m.hrec(h).next = next }
func (m *Mesh) SetTwin(h, twin HalfedgeRef)          { m.hrec(h).twin = twin }
func (m *Mesh) SetOrigin(h HalfedgeRef, v VertexRef) { m.hrec(h).vertex = v }
func (m *Mesh) SetEdge(h HalfedgeRef, e EdgeRef)     { m.hrec(h).edge = e }
func (m *Mesh) SetFace(h HalfedgeRef, f FaceRef)     { m.hrec(h).face = f }

func (m *Mesh) SetVertexHalfedge(v VertexRef, h HalfedgeRef) { m.vrec(v).halfedge = h }
func (m *Mesh) SetEdgeHalfedge(e EdgeRef, h HalfedgeRef)     { m.erec(e).halfedge = h }
func (m *Mesh) SetFaceHalfedge(f FaceRef, h HalfedgeRef)     { m.frec(f).halfedge = h }

// pair makes a and b twins sharing e, and points e at a.
func (m *Mesh) pair(a, b HalfedgeRef, e EdgeRef) {
	ra := m.hrec(a)
	ra.twin, ra.edge = b, e
	rb := m.hrec(b)
	rb.twin, rb.edge = a, e
	m.erec(e).halfedge = a
}

// ---------------------------------------------------------------------------
// Snapshots and counts
// ---------------------------------------------------------------------------

// Vertices returns a snapshot of the live vertices in storage order.
func (m *Mesh) Vertices() []VertexRef {
	hs := m.vertices.handles()
	out := make([]VertexRef, len(hs))
	for i, h := range hs {
		out[i] = VertexRef(h)
	}
	return out
}

// Edges returns a snapshot of the live edges in storage order.
func (m *Mesh) Edges() []EdgeRef {
	hs := m.edges.handles()
	out := make([]EdgeRef, len(hs))
	for i, h := range hs {
		out[i] = EdgeRef(h)
	}
	return out
}

// Halfedges returns a snapshot of the live halfedges in storage order.
func (m *Mesh) Halfedges() []HalfedgeRef {
	hs := m.halfedges.handles()
	out := make([]HalfedgeRef, len(hs))
	for i, h := range hs {
		out[i] = HalfedgeRef(h)
	}
	return out
}

// Faces returns a snapshot of the live polygons, excluding boundary loops.
func (m *Mesh) Faces() []FaceRef {
	var out []FaceRef
	for _, h := range m.faces.handles() {
		if !m.faces.slots[h.idx].rec.boundary {
			out = append(out, FaceRef(h))
		}
	}
	return out
}

// BoundaryLoops returns a snapshot of the live boundary loops.
func (m *Mesh) BoundaryLoops() []FaceRef {
	var out []FaceRef
	for _, h := range m.faces.handles() {
		if m.faces.slots[h.idx].rec.boundary {
			out = append(out, FaceRef(h))
		}
	}
	return out
}

func (m *Mesh) allFaces() []FaceRef {
	hs := m.faces.handles()
	out := make([]FaceRef, len(hs))
	for i, h := range hs {
		out[i] = FaceRef(h)
	}
	return out
}

func (m *Mesh) NumVertices() int  { return m.vertices.live }
func (m *Mesh) NumEdges() int     { return m.edges.live }
func (m *Mesh) NumHalfedges() int { return m.halfedges.live }
func (m *Mesh) NumFaces() int     { return len(m.Faces()) }

func (m *Mesh) NumBoundaryLoops() int { return m.faces.live - m.NumFaces() }
