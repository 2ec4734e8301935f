package remesh

import (
	"fmt"

	"github.com/chazu/meshedit/pkg/halfedge"
	"github.com/pkg/errors"
)

// RemeshOptions configures IsotropicRemesh.
type RemeshOptions struct {
	Iterations       int     // split / collapse / flip / smooth rounds
	SmoothIterations int     // tangential smoothing steps per round
	Damping          float64 // fraction of the tangential offset applied per step
}

// DefaultRemeshOptions returns the usual settings: 6 rounds of 15 smoothing
// steps at 0.2 damping.
func DefaultRemeshOptions() RemeshOptions {
	return RemeshOptions{Iterations: 6, SmoothIterations: 15, Damping: 0.2}
}

// SimplifyOptions configures Simplify.
type SimplifyOptions struct {
	// TargetEdges is the edge budget. Zero means a quarter of the current
	// edge count.
	TargetEdges int
	// MaxCost stops simplification once the cheapest collapse costs more.
	// Zero means no limit.
	MaxCost float64
}

func DefaultSimplifyOptions() SimplifyOptions {
	return SimplifyOptions{}
}

func unsupported(op, format string, args ...interface{}) error {
	return errors.Wrapf(halfedge.ErrUnsupported, "%s: %s", op, fmt.Sprintf(format, args...))
}

// commit replaces m with a validated work copy.
func commit(m, work *halfedge.Mesh) error {
	if err := work.Validate(); err != nil {
		return err
	}
	*m = *work
	return nil
}
