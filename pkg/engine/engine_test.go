package engine

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvaluateEmptySource(t *testing.T) {
	for _, source := range []string{"", "   \n\t  \n  ", ";; only a comment\n"} {
		res, evalErrs, err := NewEngine().Evaluate(source)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if res == nil {
			t.Fatal("expected non-nil result")
		}
		if res.Stats.Vertices != 0 || res.Export.VertexCount() != 0 {
			t.Errorf("expected an empty mesh, got %+v", res.Stats)
		}
		if len(res.History) != 0 {
			t.Errorf("History = %v, want empty", res.History)
		}
	}
}

func TestEvaluatePlainExpressions(t *testing.T) {
	source := `
(def x 10)
(def y 20)
(+ x y)
`
	res, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "30" {
		t.Errorf("Value = %q, want 30", res.Value)
	}
	if res.Stats.Vertices != 0 {
		t.Errorf("arithmetic changed the mesh: %+v", res.Stats)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	// Unmatched paren is a parse error.
	res, evalErrs, err := NewEngine().Evaluate("(cube")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	res, evalErrs, err := NewEngine().Evaluate("(cube) (split undefined-edge)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateErrorOnLaterLine(t *testing.T) {
	source := "(cube)\n(split (edge 99))"
	res, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	e := evalErrs[0]
	if !strings.Contains(e.Message, "out of range") {
		t.Errorf("message = %q, want the range error", e.Message)
	}
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvalWarningString(t *testing.T) {
	w := EvalWarning{Op: "flip", Message: "refused"}
	if w.String() != "flip: refused" {
		t.Errorf("String() = %q", w.String())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := "(cube) (split (edge 3)) (triangulate)"

	var first *Result
	for i := 0; i < 5; i++ {
		res, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if first == nil {
			first = res
			continue
		}
		if res.Stats != first.Stats {
			t.Errorf("iteration %d: stats %+v, want %+v", i, res.Stats, first.Stats)
		}
		for j, p := range res.Export.Vertices {
			if p != first.Export.Vertices[j] {
				t.Fatalf("iteration %d: vertex data differs at %d", i, j)
			}
		}
	}
}

func TestEvaluateRecoversBetweenScripts(t *testing.T) {
	// Sequential on purpose: zygomys sandbox creation shares global state.
	eng := NewEngine()
	sources := []string{
		"(octahedron) (split (edge 0))",
		"(cube",
		"(tetrahedron) (flip (edge 0))",
		"(cube) (vertex 40)",
		"(octahedron) (split (edge 0))",
	}
	for i, source := range sources {
		res, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			continue
		}
		if res.Stats.Vertices == 0 {
			t.Errorf("iteration %d: empty mesh", i)
		}
	}
	res, _, _ := eng.Evaluate(sources[len(sources)-1])
	if res == nil || res.Stats.Vertices != 7 {
		t.Fatalf("final evaluation = %+v, want the split octahedron", res)
	}
}

// ---------------------------------------------------------------------------
// Timeout and generations
// ---------------------------------------------------------------------------

func TestEvaluateTimeout(t *testing.T) {
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult) // never sends

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen, 50*time.Millisecond)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, time.Second)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestWaitPassesResultThrough(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(3)

	want := &Result{Value: "ok"}
	ch := make(chan evalResult, 1)
	ch <- evalResult{result: want}

	// A zero timeout falls back to EvalTimeout.
	got, evalErrs, err := waitWithTimeout(ch, 3, &mu, &gen, 0)
	if err != nil || len(evalErrs) != 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "split: e0#1: stale handle",
			wantLine: 0,
			wantMsg:  "stale handle",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: vertex: index 9 out of range [0, 8)",
			wantLine: 3,
			wantMsg:  "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
