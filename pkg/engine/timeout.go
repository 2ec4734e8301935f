package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/plan-systems/klog"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 10 * time.Second

// evalResult passes an evaluation outcome through a channel.
type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch for at most timeout. A result
// whose generation is no longer current is discarded: a newer Evaluate call
// superseded it.
//
// On timeout the evaluation goroutine keeps running until its script ends;
// its session is private, so the abandoned result is simply dropped.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	timeout time.Duration,
) (*Result, []EvalError, error) {
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation %d superseded by %d", gen, current)
		}
		return res.result, res.errors, res.err

	case <-timer.C:
		klog.Warningf("engine: evaluation %d timed out after %s", gen, timeout)
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}
