package halfedge

import "fmt"

// ElementKind names the record kind a validation finding is about.
type ElementKind int

const (
	KindVertex ElementKind = iota
	KindEdge
	KindFace
	KindHalfedge
)

func (k ElementKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindFace:
		return "face"
	case KindHalfedge:
		return "halfedge"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// Invariant identifies the structural rule a finding violates.
type Invariant int

const (
	InvariantTwin          Invariant = iota // h.twin.twin == h, h.twin != h, shared edge
	InvariantFaceLoop                       // next chain closes on its face
	InvariantVertexFan                      // twin.next chain closes on its vertex
	InvariantBackReference                  // element.halfedge points back at the element
	InvariantDangling                       // reference to an erased or freed record
	InvariantContinuity                     // next(h) leaves from where h arrives
	InvariantDegree                         // polygons have at least three sides
	InvariantCount                          // every halfedge sits in exactly one loop and one fan
)

func (i Invariant) String() string {
	switch i {
	case InvariantTwin:
		return "twin"
	case InvariantFaceLoop:
		return "face-loop"
	case InvariantVertexFan:
		return "vertex-fan"
	case InvariantBackReference:
		return "back-reference"
	case InvariantDangling:
		return "dangling"
	case InvariantContinuity:
		return "continuity"
	case InvariantDegree:
		return "degree"
	case InvariantCount:
		return "count"
	default:
		return fmt.Sprintf("Invariant(%d)", int(i))
	}
}

// ValidationError describes a single broken invariant.
type ValidationError struct {
	Kind      ElementKind
	Index     int    // arena slot of the offending element
	ID        uint32 // element id, 0 when the record could not be read
	Invariant Invariant
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s %d (id %d): %s", e.Invariant, e.Kind, e.Index, e.ID, e.Message)
}

// Check inspects every live element and returns all broken invariants. An
// empty result means the mesh is consistent. Check never mutates the mesh.
func (m *Mesh) Check() []ValidationError {
	errs := m.checkHalfedges()
	if len(errs) > 0 {
		// Loop and fan walks would follow the broken references.
		return errs
	}
	fans, verrs := m.checkVertices()
	errs = append(errs, verrs...)
	errs = append(errs, m.checkEdges()...)
	loops, ferrs := m.checkFaces()
	errs = append(errs, ferrs...)
	if len(errs) == 0 {
		n := m.NumHalfedges()
		if loops != n {
			errs = append(errs, ValidationError{Kind: KindHalfedge, Invariant: InvariantCount,
				Message: fmt.Sprintf("face loops cover %d of %d halfedges", loops, n)})
		}
		if fans != n {
			errs = append(errs, ValidationError{Kind: KindHalfedge, Invariant: InvariantCount,
				Message: fmt.Sprintf("vertex fans cover %d of %d halfedges", fans, n)})
		}
	}
	return errs
}

// Validate runs Check and, when the mesh is consistent, compacts every
// dropped record. Otherwise it returns a *CorruptionError and leaves the
// mesh as it is. Calling Validate twice in a row gives the same answer.
func (m *Mesh) Validate() error {
	if errs := m.Check(); len(errs) > 0 {
		return &CorruptionError{Findings: errs}
	}
	m.Compact()
	return nil
}

// refProblem reports why h cannot be followed, or "" when it can.
func refProblem[T any](a *arena[T], h handle) string {
	s, ok := a.lookup(h)
	switch {
	case !ok:
		return fmt.Sprintf("references missing %s %d#%d", a.kind, h.idx, h.gen)
	case s.state == slotErased:
		return fmt.Sprintf("references erased %s %d", a.kind, h.idx)
	}
	return ""
}

func (m *Mesh) checkHalfedges() []ValidationError {
	var errs []ValidationError
	for _, hh := range m.halfedges.handles() {
		h := HalfedgeRef(hh)
		r := m.hrec(h)
		bad := func(inv Invariant, format string, args ...interface{}) {
			errs = append(errs, ValidationError{Kind: KindHalfedge, Index: h.Index(), ID: r.id,
				Invariant: inv, Message: fmt.Sprintf(format, args...)})
		}
		dangling := false
		for _, ref := range []struct{ name, problem string }{
			{"next", refProblem(&m.halfedges, handle(r.next))},
			{"twin", refProblem(&m.halfedges, handle(r.twin))},
			{"vertex", refProblem(&m.vertices, handle(r.vertex))},
			{"edge", refProblem(&m.edges, handle(r.edge))},
			{"face", refProblem(&m.faces, handle(r.face))},
		} {
			if ref.problem != "" {
				bad(InvariantDangling, "%s %s", ref.name, ref.problem)
				dangling = true
			}
		}
		if dangling {
			continue
		}
		if r.twin == h {
			bad(InvariantTwin, "twin is itself")
			continue
		}
		if m.Twin(r.twin) != h {
			bad(InvariantTwin, "twin %d does not point back", r.twin.Index())
		}
		if m.EdgeOf(r.twin) != r.edge {
			bad(InvariantTwin, "twin %d is on edge %d, not %d", r.twin.Index(), m.EdgeOf(r.twin).Index(), r.edge.Index())
		}
		if m.FaceOf(r.next) != r.face {
			bad(InvariantFaceLoop, "next %d belongs to face %d, not %d", r.next.Index(), m.FaceOf(r.next).Index(), r.face.Index())
		}
		if m.Origin(r.next) != m.Origin(r.twin) {
			bad(InvariantContinuity, "next %d leaves vertex %d but halfedge arrives at %d",
				r.next.Index(), m.Origin(r.next).Index(), m.Origin(r.twin).Index())
		}
	}
	return errs
}

func (m *Mesh) checkVertices() (int, []ValidationError) {
	var errs []ValidationError
	total := 0
	limit := m.NumHalfedges()
	for _, vh := range m.vertices.handles() {
		v := VertexRef(vh)
		r := m.vrec(v)
		bad := func(inv Invariant, format string, args ...interface{}) {
			errs = append(errs, ValidationError{Kind: KindVertex, Index: v.Index(), ID: r.id,
				Invariant: inv, Message: fmt.Sprintf(format, args...)})
		}
		if p := refProblem(&m.halfedges, handle(r.halfedge)); p != "" {
			bad(InvariantDangling, "halfedge %s", p)
			continue
		}
		if m.Origin(r.halfedge) != v {
			bad(InvariantBackReference, "halfedge %d leaves vertex %d", r.halfedge.Index(), m.Origin(r.halfedge).Index())
			continue
		}
		h, n := r.halfedge, 0
		for {
			n++
			h = m.Next(m.Twin(h))
			if h == r.halfedge {
				break
			}
			if m.Origin(h) != v {
				bad(InvariantVertexFan, "fan reaches halfedge %d leaving vertex %d", h.Index(), m.Origin(h).Index())
				break
			}
			if n > limit {
				bad(InvariantVertexFan, "fan does not close after %d steps", n)
				break
			}
		}
		total += n
	}
	return total, errs
}

func (m *Mesh) checkEdges() []ValidationError {
	var errs []ValidationError
	for _, eh := range m.edges.handles() {
		e := EdgeRef(eh)
		r := m.erec(e)
		if p := refProblem(&m.halfedges, handle(r.halfedge)); p != "" {
			errs = append(errs, ValidationError{Kind: KindEdge, Index: e.Index(), ID: r.id,
				Invariant: InvariantDangling, Message: "halfedge " + p})
			continue
		}
		if m.EdgeOf(r.halfedge) != e {
			errs = append(errs, ValidationError{Kind: KindEdge, Index: e.Index(), ID: r.id,
				Invariant: InvariantBackReference,
				Message:   fmt.Sprintf("halfedge %d belongs to edge %d", r.halfedge.Index(), m.EdgeOf(r.halfedge).Index())})
		}
	}
	return errs
}

func (m *Mesh) checkFaces() (int, []ValidationError) {
	var errs []ValidationError
	total := 0
	limit := m.NumHalfedges()
	for _, fh := range m.faces.handles() {
		f := FaceRef(fh)
		r := m.frec(f)
		bad := func(inv Invariant, format string, args ...interface{}) {
			errs = append(errs, ValidationError{Kind: KindFace, Index: f.Index(), ID: r.id,
				Invariant: inv, Message: fmt.Sprintf(format, args...)})
		}
		if p := refProblem(&m.halfedges, handle(r.halfedge)); p != "" {
			bad(InvariantDangling, "halfedge %s", p)
			continue
		}
		if m.FaceOf(r.halfedge) != f {
			bad(InvariantBackReference, "halfedge %d belongs to face %d", r.halfedge.Index(), m.FaceOf(r.halfedge).Index())
			continue
		}
		h, n, closed := r.halfedge, 0, true
		for {
			n++
			h = m.Next(h)
			if h == r.halfedge {
				break
			}
			if n > limit {
				bad(InvariantFaceLoop, "loop does not close after %d steps", n)
				closed = false
				break
			}
		}
		total += n
		if closed && !r.boundary && n < 3 {
			bad(InvariantDegree, "polygon has %d sides", n)
		}
	}
	return total, errs
}
