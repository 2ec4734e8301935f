// Package session runs an edit session over a half-edge mesh. Each applied
// operation is checkpointed first and the mesh is validated afterwards;
// corruption rolls the mesh back to the checkpoint and ends the session.
//
// Checkpoints are msgpack-encoded exports kept in an in-memory badger store,
// keyed by a big-endian sequence number so iteration order is apply order.
package session

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/meshedit/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/ugorji/go/codec"
)

var (
	// ErrAborted is returned by every Apply after a corruption rollback.
	ErrAborted = errors.New("session aborted")

	// ErrNothingToUndo is returned by Undo when no checkpoint is left.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("session closed")
)

// Options configures a Session.
type Options struct {
	// MaxCheckpoints bounds the undo history. Older checkpoints are dropped.
	MaxCheckpoints int

	// ValidateAfterApply runs Validate after every successful operation.
	// Validation also compacts erased records.
	ValidateAfterApply bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxCheckpoints:     64,
		ValidateAfterApply: true,
	}
}

// Op is one edit applied to the session mesh.
type Op func(m *halfedge.Mesh) error

// Session owns a mesh for the duration of an edit session. It is not safe
// for concurrent use.
type Session struct {
	mesh *halfedge.Mesh
	opts Options
	db   *badger.DB
	mh   codec.MsgpackHandle

	oldest, next uint64 // live checkpoint keys are [oldest, next)
	history      []string
	abortedBy    error
}

// checkpoint is the stored form of a mesh before an operation.
type checkpoint struct {
	Op        string       `codec:"op"`
	Positions [][3]float64 `codec:"pos"`
	Polygons  [][]int      `codec:"poly"`
}

// Open starts a session on m, which must validate. A nil mesh starts an
// empty session.
func Open(m *halfedge.Mesh, opts Options) (*Session, error) {
	if m == nil {
		m = halfedge.New()
	}
	if opts.MaxCheckpoints <= 0 {
		opts.MaxCheckpoints = DefaultOptions().MaxCheckpoints
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "session: initial mesh")
	}

	dbOpts := badger.DefaultOptions("").
		WithInMemory(true).
		WithMetricsEnabled(false).
		WithLogger(badgerLogger{})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "session: open checkpoint store")
	}
	return &Session{mesh: m, opts: opts, db: db}, nil
}

// Close releases the checkpoint store. The mesh stays usable.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Mesh returns the session mesh. Handles into it are invalidated by Undo
// and by rollbacks.
func (s *Session) Mesh() *halfedge.Mesh { return s.mesh }

// History lists the names of applied operations, oldest first.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Aborted reports whether a corruption ended the session.
func (s *Session) Aborted() bool { return s.abortedBy != nil }

// Checkpoints returns the number of operations Undo can still revert.
func (s *Session) Checkpoints() int { return int(s.next - s.oldest) }

// Apply checkpoints the mesh, runs op and validates the result.
//
// A refused or unsupported op leaves the mesh untouched and its error is
// returned as is. A corruption restores the checkpoint, aborts the session
// and returns the *halfedge.CorruptionError.
func (s *Session) Apply(name string, op Op) (err error) {
	if s.db == nil {
		return ErrClosed
	}
	if s.abortedBy != nil {
		return errors.Wrapf(ErrAborted, "%s: after %v", name, s.abortedBy)
	}

	key, err := s.save(name)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("session: %s panicked: %v", name, r)
			if rerr := s.restore(key); rerr != nil {
				panic(r)
			}
			err = errors.Errorf("session: %s: %v", name, r)
		}
	}()

	if err = op(s.mesh); err != nil {
		if errors.Is(err, halfedge.ErrCorrupt) {
			return s.rollback(name, key, err)
		}
		klog.Warningf("session: %s: %v", name, err)
		s.drop(key)
		return err
	}
	if s.opts.ValidateAfterApply {
		if verr := s.mesh.Validate(); verr != nil {
			return s.rollback(name, key, verr)
		}
	}

	s.history = append(s.history, name)
	s.trim()
	st := s.mesh.Stats()
	klog.V(2).Infof("session: %s: %d vertices, %d edges, %d faces", name, st.Vertices, st.Edges, st.Faces)
	return nil
}

// Undo restores the mesh as it was before the last applied operation.
func (s *Session) Undo() error {
	if s.db == nil {
		return ErrClosed
	}
	if s.abortedBy != nil {
		return errors.Wrap(ErrAborted, "undo")
	}
	if s.next == s.oldest {
		return ErrNothingToUndo
	}
	key := s.next - 1
	if err := s.restore(key); err != nil {
		return err
	}
	name := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	klog.V(2).Infof("session: undo %s", name)
	return nil
}

func (s *Session) rollback(name string, key uint64, cause error) error {
	klog.Errorf("session: %s corrupted the mesh, rolling back: %v", name, cause)
	if err := s.restore(key); err != nil {
		return errors.Wrapf(err, "session: rollback of %s failed after %v", name, cause)
	}
	s.abortedBy = cause
	return cause
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// save writes a checkpoint of the current mesh and returns its key.
func (s *Session) save(name string) (uint64, error) {
	positions, polygons := s.mesh.Export()
	cp := checkpoint{Op: name, Polygons: polygons, Positions: make([][3]float64, len(positions))}
	for i, p := range positions {
		cp.Positions[i] = [3]float64{p.X, p.Y, p.Z}
	}

	var buf []byte
	if err := codec.NewEncoderBytes(&buf, &s.mh).Encode(&cp); err != nil {
		return 0, errors.Wrap(err, "session: encode checkpoint")
	}
	key := s.next
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey(key), buf)
	})
	if err != nil {
		return 0, errors.Wrap(err, "session: store checkpoint")
	}
	s.next++
	return key, nil
}

func (s *Session) load(key uint64) (*checkpoint, error) {
	var buf []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seqKey(key))
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "session: load checkpoint %d", key)
	}
	cp := &checkpoint{}
	if err := codec.NewDecoderBytes(buf, &s.mh).Decode(cp); err != nil {
		return nil, errors.Wrapf(err, "session: decode checkpoint %d", key)
	}
	return cp, nil
}

// restore rebuilds the mesh from the checkpoint at key, which must be the
// newest one, and drops it.
func (s *Session) restore(key uint64) error {
	cp, err := s.load(key)
	if err != nil {
		return err
	}
	positions := make([]v3.Vec, len(cp.Positions))
	for i, p := range cp.Positions {
		positions[i] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	if err := s.mesh.Rebuild(positions, cp.Polygons); err != nil {
		return errors.Wrapf(err, "session: restore checkpoint %d (%s)", key, cp.Op)
	}
	s.drop(key)
	return nil
}

// drop deletes the newest checkpoint.
func (s *Session) drop(key uint64) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(seqKey(key))
	})
	if err != nil {
		klog.Warningf("session: drop checkpoint %d: %v", key, err)
	}
	s.next = key
}

// trim forgets the oldest checkpoints beyond MaxCheckpoints.
func (s *Session) trim() {
	for int(s.next-s.oldest) > s.opts.MaxCheckpoints {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(seqKey(s.oldest))
		})
		if err != nil {
			klog.Warningf("session: trim checkpoint %d: %v", s.oldest, err)
		}
		s.oldest++
	}
}

// badgerLogger routes badger's internal logging through klog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	klog.Errorf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	klog.Warningf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	klog.V(3).Infof("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	klog.V(4).Infof("badger: "+format, args...)
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%d ops, %d checkpoints)", len(s.history), s.Checkpoints())
}
