// Package engine evaluates mesh edit scripts. It wraps zygomys in a
// sandboxed environment whose builtins drive an edit session: seed a mesh,
// select elements, apply local operators and global algorithms.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/meshedit/pkg/halfedge"
	"github.com/chazu/meshedit/pkg/kernel"
	"github.com/chazu/meshedit/pkg/kernel/sdfx"
	"github.com/chazu/meshedit/pkg/session"
	"github.com/chazu/meshedit/pkg/tessellate"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/plan-systems/klog"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or mesh corruption.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning records an operation that was refused or unsupported. The
// script keeps running and the mesh is unchanged by that operation.
type EvalWarning struct {
	Op      string
	Message string
}

func (w EvalWarning) String() string {
	return w.Op + ": " + w.Message
}

// Result is the outcome of a successful evaluation.
type Result struct {
	Mesh     *halfedge.Mesh
	Export   *kernel.Mesh
	Stats    halfedge.Stats
	History  []string
	Warnings []EvalWarning
	Value    string // printed value of the last expression
}

// Options configures an Engine.
type Options struct {
	Kernel  kernel.Kernel
	Session session.Options
	Import  tessellate.ImportOptions
	Timeout time.Duration // zero means EvalTimeout
}

// DefaultOptions uses the sdfx kernel at its default resolution.
func DefaultOptions() Options {
	return Options{
		Kernel:  sdfx.New(),
		Session: session.DefaultOptions(),
		Import:  tessellate.DefaultImportOptions(),
		Timeout: EvalTimeout,
	}
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandbox and session for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	opts       Options
}

// NewEngine creates an Engine with DefaultOptions.
func NewEngine() *Engine {
	return NewEngineWithOptions(DefaultOptions())
}

// NewEngineWithOptions creates an Engine. A nil kernel falls back to sdfx.
func NewEngineWithOptions(opts Options) *Engine {
	if opts.Kernel == nil {
		opts.Kernel = sdfx.New()
	}
	return &Engine{opts: opts}
}

// Evaluate runs an edit script against a new, empty session.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure or corruption: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.opts.Timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	sess, err := session.Open(nil, e.opts.Session)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()

	st := &evalState{sess: sess, kernel: e.opts.Kernel, importOpts: e.opts.Import}
	value := ""

	// Empty source is a valid program that produces an empty mesh.
	if strings.TrimSpace(source) != "" {
		// Sandbox mode prevents user code from accessing the filesystem or syscalls.
		env := zygo.NewZlispSandbox()
		defer env.Stop()
		registerBuiltins(env, st)

		if err := env.LoadString(preprocessSource(source)); err != nil {
			return nil, parseZygomysError(err), nil
		}
		out, err := env.Run()
		if err != nil {
			return nil, parseZygomysError(err), nil
		}
		if out != nil && out != zygo.SexpNull {
			value = out.SexpString(nil)
		}
	}

	m := sess.Mesh()
	res := &Result{
		Mesh:     m,
		Export:   tessellate.Export(m),
		Stats:    m.Stats(),
		History:  sess.History(),
		Warnings: st.warnings,
		Value:    value,
	}
	klog.V(1).Infof("engine: evaluated %d ops, %d warnings: %d vertices, %d edges, %d faces",
		len(res.History), len(res.Warnings), res.Stats.Vertices, res.Stats.Edges, res.Stats.Faces)
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
