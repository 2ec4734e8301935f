package halfedge

import "fmt"

// handle addresses a slot in an arena. gen is never 0 for a handle that was
// produced by an allocation, so the zero handle is always invalid.
type handle struct {
	idx uint32
	gen uint32
}

// VertexRef is a stable, comparable reference to a vertex record.
type VertexRef handle

// EdgeRef is a stable, comparable reference to an edge record.
type EdgeRef handle

// FaceRef is a stable, comparable reference to a face or boundary loop.
type FaceRef handle

// HalfedgeRef is a stable, comparable reference to a halfedge record.
type HalfedgeRef handle

// Nil handles. No allocation ever returns one of these.
var (
	NoVertex   VertexRef
	NoEdge     EdgeRef
	NoFace     FaceRef
	NoHalfedge HalfedgeRef
)

func (r VertexRef) Index() int     { return int(r.idx) }
func (r VertexRef) IsNil() bool    { return r.gen == 0 }
func (r VertexRef) String() string { return fmt.Sprintf("v%d#%d", r.idx, r.gen) }

func (r EdgeRef) Index() int     { return int(r.idx) }
func (r EdgeRef) IsNil() bool    { return r.gen == 0 }
func (r EdgeRef) String() string { return fmt.Sprintf("e%d#%d", r.idx, r.gen) }

func (r FaceRef) Index() int     { return int(r.idx) }
func (r FaceRef) IsNil() bool    { return r.gen == 0 }
func (r FaceRef) String() string { return fmt.Sprintf("f%d#%d", r.idx, r.gen) }

func (r HalfedgeRef) Index() int     { return int(r.idx) }
func (r HalfedgeRef) IsNil() bool    { return r.gen == 0 }
func (r HalfedgeRef) String() string { return fmt.Sprintf("h%d#%d", r.idx, r.gen) }
