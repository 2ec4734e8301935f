//go:build !manifold

// Package manifold is a kernel.Kernel backed by the Manifold C library.
// Without the "manifold" build tag only this stub is compiled, and New
// reports that the kernel is unavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"github.com/chazu/meshedit/pkg/kernel"
	"github.com/pkg/errors"
)

// ErrUnavailable is returned by New when built without manifoldc.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New returns ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
