package session

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chazu/meshedit/pkg/halfedge"
)

func openSession(t *testing.T, m *halfedge.Mesh, opts Options) *Session {
	t.Helper()
	s, err := Open(m, opts)
	if err != nil {
		t.Fatalf("unexpected Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Apply compacts the mesh after each op, so handles are taken inside ops.
func splitFirst(m *halfedge.Mesh) error {
	_, err := m.SplitEdge(m.Edges()[0])
	return err
}

func flipFirst(m *halfedge.Mesh) error {
	_, err := m.FlipEdge(m.Edges()[0])
	return err
}

// corrupt breaks next/twin continuity on the first halfedge.
func corrupt(m *halfedge.Mesh) error {
	h := m.Halfedges()[0]
	m.SetNext(h, h)
	return nil
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestApplyRecordsHistory(t *testing.T) {
	s := openSession(t, halfedge.Tetrahedron(), DefaultOptions())
	for i := 0; i < 3; i++ {
		if err := s.Apply("split", splitFirst); err != nil {
			t.Fatalf("unexpected Apply error: %v", err)
		}
	}
	if got := s.History(); !reflect.DeepEqual(got, []string{"split", "split", "split"}) {
		t.Errorf("History() = %v", got)
	}
	if s.Checkpoints() != 3 {
		t.Errorf("Checkpoints() = %d, want 3", s.Checkpoints())
	}
	if st := s.Mesh().Stats(); st.Vertices != 7 {
		t.Errorf("vertices = %d, want 7", st.Vertices)
	}
}

func TestApplyRefusalLeavesMesh(t *testing.T) {
	s := openSession(t, halfedge.Tetrahedron(), DefaultOptions())
	before := s.Mesh().Stats()
	err := s.Apply("flip", flipFirst)
	if !errors.Is(err, halfedge.ErrRefused) {
		t.Fatalf("error = %v, want ErrRefused", err)
	}
	if s.Mesh().Stats() != before {
		t.Errorf("stats changed: %+v -> %+v", before, s.Mesh().Stats())
	}
	if len(s.History()) != 0 || s.Checkpoints() != 0 {
		t.Errorf("refusal was recorded: history %v, %d checkpoints", s.History(), s.Checkpoints())
	}
	if s.Aborted() {
		t.Error("refusal aborted the session")
	}
}

func TestApplyCorruptionRollsBack(t *testing.T) {
	s := openSession(t, halfedge.Cube(), DefaultOptions())
	if err := s.Apply("split", splitFirst); err != nil {
		t.Fatalf("unexpected Apply error: %v", err)
	}
	before := s.Mesh().Stats()

	err := s.Apply("corrupt", corrupt)
	var cerr *halfedge.CorruptionError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *CorruptionError", err)
	}
	if !s.Aborted() {
		t.Fatal("expected the session to abort")
	}
	if err := s.Mesh().Validate(); err != nil {
		t.Fatalf("rolled back mesh does not validate: %v", err)
	}
	if s.Mesh().Stats() != before {
		t.Errorf("stats after rollback = %+v, want %+v", s.Mesh().Stats(), before)
	}

	if err := s.Apply("split", splitFirst); !errors.Is(err, ErrAborted) {
		t.Errorf("Apply after abort = %v, want ErrAborted", err)
	}
	if err := s.Undo(); !errors.Is(err, ErrAborted) {
		t.Errorf("Undo after abort = %v, want ErrAborted", err)
	}
	if got := s.History(); !reflect.DeepEqual(got, []string{"split"}) {
		t.Errorf("History() = %v", got)
	}
}

func TestApplyOpReportingCorruption(t *testing.T) {
	s := openSession(t, halfedge.Octahedron(), DefaultOptions())
	err := s.Apply("bad", func(m *halfedge.Mesh) error {
		m.DropVertex(m.Vertices()[0])
		return m.Validate()
	})
	if !errors.Is(err, halfedge.ErrCorrupt) {
		t.Fatalf("error = %v, want ErrCorrupt", err)
	}
	if st := s.Mesh().Stats(); st.Vertices != 6 {
		t.Errorf("vertices after rollback = %d, want 6", st.Vertices)
	}
}

func TestApplyRecoversPanic(t *testing.T) {
	s := openSession(t, halfedge.Cube(), DefaultOptions())
	stale := s.Mesh().Edges()[0]
	if err := s.Apply("rebuild", func(m *halfedge.Mesh) error {
		return m.Rebuild(halfedge.Cube().Export())
	}); err != nil {
		t.Fatalf("unexpected Apply error: %v", err)
	}
	err := s.Apply("stale split", func(m *halfedge.Mesh) error {
		_, err := m.SplitEdge(stale)
		return err
	})
	if err == nil {
		t.Fatal("expected an error from a stale handle")
	}
	if s.Aborted() {
		t.Error("a recovered panic aborted the session")
	}
	if st := s.Mesh().Stats(); st.Vertices != 8 || st.Faces != 6 {
		t.Errorf("stats = %+v, want the cube", st)
	}
}

// ---------------------------------------------------------------------------
// Undo
// ---------------------------------------------------------------------------

func TestUndo(t *testing.T) {
	s := openSession(t, halfedge.Octahedron(), DefaultOptions())
	steps := []struct {
		name string
		op   Op
	}{
		{"split", splitFirst},
		{"bisect", func(m *halfedge.Mesh) error {
			_, err := m.BisectEdge(m.Edges()[0])
			return err
		}},
	}
	var stats []halfedge.Stats
	for _, step := range steps {
		stats = append(stats, s.Mesh().Stats())
		if err := s.Apply(step.name, step.op); err != nil {
			t.Fatalf("unexpected %s error: %v", step.name, err)
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if err := s.Undo(); err != nil {
			t.Fatalf("unexpected Undo error: %v", err)
		}
		if got := s.Mesh().Stats(); got != stats[i] {
			t.Errorf("after undo of %s: stats %+v, want %+v", steps[i].name, got, stats[i])
		}
		if err := s.Mesh().Validate(); err != nil {
			t.Fatalf("undone mesh does not validate: %v", err)
		}
	}
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() = %v, want ErrNothingToUndo", err)
	}
	if len(s.History()) != 0 {
		t.Errorf("History() = %v, want empty", s.History())
	}
}

func TestCheckpointLimit(t *testing.T) {
	s := openSession(t, halfedge.Icosahedron(), Options{MaxCheckpoints: 2, ValidateAfterApply: true})
	for i := 0; i < 4; i++ {
		if err := s.Apply("split", splitFirst); err != nil {
			t.Fatalf("unexpected Apply error: %v", err)
		}
	}
	if s.Checkpoints() != 2 {
		t.Fatalf("Checkpoints() = %d, want 2", s.Checkpoints())
	}
	for i := 0; i < 2; i++ {
		if err := s.Undo(); err != nil {
			t.Fatalf("unexpected Undo error: %v", err)
		}
	}
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() = %v, want ErrNothingToUndo", err)
	}
	if v := s.Mesh().NumVertices(); v != 14 {
		t.Errorf("vertices = %d, want 14", v)
	}
	if len(s.History()) != 2 {
		t.Errorf("History() = %v, want 2 entries", s.History())
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	tests := []struct {
		name string
		mesh *halfedge.Mesh
	}{
		{"tetrahedron", halfedge.Tetrahedron()},
		{"grid", halfedge.Grid(8)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.mesh, DefaultOptions())
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()
			if s.Checkpoints() != 0 || len(s.History()) != 0 {
				t.Errorf("new session has %d checkpoints, history %v", s.Checkpoints(), s.History())
			}
			if err := s.Mesh().Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestOpenRejectsInvalidMesh(t *testing.T) {
	m := halfedge.Cube()
	m.SetNext(m.Halfedges()[0], m.Halfedges()[0])
	if _, err := Open(m, DefaultOptions()); !errors.Is(err, halfedge.ErrCorrupt) {
		t.Fatalf("Open() = %v, want ErrCorrupt", err)
	}
}

func TestEmptySession(t *testing.T) {
	s := openSession(t, nil, Options{})
	if s.opts.MaxCheckpoints != DefaultOptions().MaxCheckpoints {
		t.Errorf("MaxCheckpoints = %d", s.opts.MaxCheckpoints)
	}
	if err := s.Apply("cube", func(m *halfedge.Mesh) error {
		return m.Rebuild(halfedge.Cube().Export())
	}); err != nil {
		t.Fatalf("unexpected Apply error: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("unexpected Undo error: %v", err)
	}
	if s.Mesh().NumVertices() != 0 {
		t.Errorf("vertices = %d, want 0", s.Mesh().NumVertices())
	}
}

func TestClose(t *testing.T) {
	s, err := Open(halfedge.Cube(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected Open error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := s.Apply("split", splitFirst); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply after Close = %v, want ErrClosed", err)
	}
	if s.Mesh().NumVertices() != 8 {
		t.Error("mesh unusable after Close")
	}
}
