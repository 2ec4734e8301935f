package halfedge

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrRefused means a local operator declined because a topological
	// precondition would be violated. The mesh is unchanged.
	ErrRefused = errors.New("operation refused")

	// ErrUnsupported means a global algorithm declined because the mesh does
	// not meet its configuration requirements (triangle-only, closed, ...).
	ErrUnsupported = errors.New("unsupported mesh configuration")

	// ErrCorrupt means validation found a broken invariant. Editing must stop.
	ErrCorrupt = errors.New("mesh invariants violated")

	// ErrNonManifold is returned by imports whose polygons do not form a
	// combinatorial 2-manifold.
	ErrNonManifold = errors.New("polygons are not manifold")

	// ErrBadIndex is returned by imports with malformed polygon indices.
	ErrBadIndex = errors.New("bad polygon index")

	// ErrStaleHandle means a handle no longer names a live element, usually
	// because the mesh was rebuilt, compacted or rolled back since it was
	// taken.
	ErrStaleHandle = errors.New("stale handle")
)

func refuse(op string, ref fmt.Stringer, format string, args ...interface{}) error {
	return errors.Wrapf(ErrRefused, "%s %v: %s", op, ref, fmt.Sprintf(format, args...))
}

// CorruptionError is returned by Validate when Check reports findings.
type CorruptionError struct {
	Findings []ValidationError
}

func (e *CorruptionError) Error() string {
	if len(e.Findings) == 0 {
		return ErrCorrupt.Error()
	}
	var b strings.Builder
	b.WriteString(ErrCorrupt.Error())
	b.WriteString(": ")
	b.WriteString(e.Findings[0].Error())
	if n := len(e.Findings) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

func (e *CorruptionError) Unwrap() error { return ErrCorrupt }
