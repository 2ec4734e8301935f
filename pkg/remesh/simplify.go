package remesh

import (
	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// edgeRecord is the queued collapse of one edge.
type edgeRecord struct {
	edge    halfedge.EdgeRef
	id      uint32
	cost    float64
	optimal v3.Vec
}

func newEdgeRecord(m *halfedge.Mesh, quadrics map[halfedge.VertexRef]Quadric, e halfedge.EdgeRef) edgeRecord {
	a, b := m.EdgeVertices(e)
	q := quadrics[a].Add(quadrics[b])
	p, ok := q.Minimize()
	if !ok {
		p = m.EdgeCenter(e)
	}
	return edgeRecord{edge: e, id: m.EdgeID(e), cost: q.Error(p), optimal: p}
}

// edgeQueue orders records by ascending cost, then by edge id, and lets any
// record be removed by edge.
type edgeQueue struct {
	tree    redblacktree.Tree
	records map[halfedge.EdgeRef]edgeRecord
}

func newEdgeQueue() *edgeQueue {
	return &edgeQueue{
		tree: redblacktree.Tree{
			Comparator: func(A, B interface{}) int {
				a, b := A.(edgeRecord), B.(edgeRecord)
				switch {
				case a.cost < b.cost:
					return -1
				case a.cost > b.cost:
					return 1
				case a.id < b.id:
					return -1
				case a.id > b.id:
					return 1
				}
				return 0
			},
		},
		records: make(map[halfedge.EdgeRef]edgeRecord),
	}
}

func (q *edgeQueue) insert(r edgeRecord) {
	q.remove(r.edge)
	q.records[r.edge] = r
	q.tree.Put(r, nil)
}

func (q *edgeQueue) remove(e halfedge.EdgeRef) {
	if r, ok := q.records[e]; ok {
		q.tree.Remove(r)
		delete(q.records, e)
	}
}

func (q *edgeQueue) pop() (edgeRecord, bool) {
	n := q.tree.Left()
	if n == nil {
		return edgeRecord{}, false
	}
	r := n.Key.(edgeRecord)
	q.remove(r.edge)
	return r, true
}

func (q *edgeQueue) size() int { return q.tree.Size() }

// minVertices keeps simplification from collapsing past a tetrahedron.
const minVertices = 4

// Simplify collapses the cheapest edges by quadric error until the mesh has
// at most opts.TargetEdges edges or no collapse is left. Collapsed vertices
// move to the point minimizing the summed quadrics of both endpoints.
// Collapses the mesh refuses are skipped, so an unreachable target ends
// the run once every remaining edge has been refused.
func Simplify(m *halfedge.Mesh, opts SimplifyOptions) error {
	const op = "simplify"
	if !m.IsTriangleMesh() {
		return unsupported(op, "mesh has non-triangle faces")
	}
	work := m.Clone()
	target := opts.TargetEdges
	if target <= 0 {
		target = work.NumEdges() / 4
	}

	quadrics := vertexQuadrics(work)
	queue := newEdgeQueue()
	for _, e := range work.Edges() {
		queue.insert(newEdgeRecord(work, quadrics, e))
	}

	collapses, skipped := 0, 0
	for work.NumEdges() > target && work.NumVertices() > minVertices {
		r, ok := queue.pop()
		if !ok {
			break
		}
		if opts.MaxCost > 0 && r.cost > opts.MaxCost {
			break
		}
		a, b := work.EdgeVertices(r.edge)
		touching := append(work.IncidentEdges(a), work.IncidentEdges(b)...)
		v, err := work.CollapseEdge(r.edge)
		if err != nil {
			if !errors.Is(err, halfedge.ErrRefused) {
				return errors.Wrap(err, op)
			}
			// A refused edge stays out of the queue until a collapse next
			// to it requeues it with a new cost.
			skipped++
			continue
		}
		collapses++
		for _, e := range touching {
			queue.remove(e)
		}
		work.SetPos(v, r.optimal)
		quadrics[v] = quadrics[a].Add(quadrics[b])
		delete(quadrics, a)
		delete(quadrics, b)
		for _, e := range work.IncidentEdges(v) {
			queue.insert(newEdgeRecord(work, quadrics, e))
		}
	}
	if err := commit(m, work); err != nil {
		return err
	}
	klog.V(2).Infof("%s: %d collapses, %d skipped, %d edges left, %d queued",
		op, collapses, skipped, m.NumEdges(), queue.size())
	return nil
}
