package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/meshedit/pkg/engine"
	"github.com/chazu/meshedit/pkg/kernel"
	"github.com/chazu/meshedit/pkg/kernel/manifold"
	"github.com/chazu/meshedit/pkg/kernel/sdfx"
	"github.com/chazu/meshedit/pkg/session"
	"github.com/chazu/meshedit/pkg/tessellate"
	"github.com/plan-systems/klog"
	"github.com/ugorji/go/codec"
)

func main() {
	fset := flag.NewFlagSet("meshedit", flag.ExitOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	kernelName := fset.String("kernel", "sdfx", "solid kernel for load: sdfx or manifold")
	cells := fset.Int("cells", sdfx.DefaultMeshCells, "marching cubes resolution for loaded solids")
	timeout := fset.Duration("timeout", engine.EvalTimeout, "evaluation time limit")
	checkpoints := fset.Int("checkpoints", session.DefaultOptions().MaxCheckpoints, "undo depth")
	weld := fset.Float64("weld", tessellate.DefaultWeldTolerance, "vertex weld tolerance when loading solids")
	out := fset.String("o", "", "write the JSON result here instead of stdout")
	fset.Parse(os.Args[1:])

	code := run(fset.Args(), options{
		kernel:      *kernelName,
		cells:       *cells,
		timeout:     *timeout,
		checkpoints: *checkpoints,
		weld:        *weld,
		out:         *out,
	})
	klog.Flush()
	os.Exit(code)
}

type options struct {
	kernel      string
	cells       int
	timeout     time.Duration
	checkpoints int
	weld        float64
	out         string
}

// run evaluates one script file, or stdin when no file is named, and writes
// the result as JSON. It returns the process exit code.
func run(args []string, o options) int {
	var (
		source []byte
		err    error
	)
	switch len(args) {
	case 0:
		source, err = io.ReadAll(os.Stdin)
	case 1:
		source, err = os.ReadFile(args[0])
	default:
		fmt.Fprintln(os.Stderr, "usage: meshedit [flags] [script]")
		return 2
	}
	if err != nil {
		klog.Errorf("read script: %v", err)
		return 1
	}

	k, err := newKernel(o.kernel, o.cells)
	if err != nil {
		klog.Errorf("kernel: %v", err)
		return 1
	}
	opts := engine.DefaultOptions()
	opts.Kernel = k
	opts.Timeout = o.timeout
	opts.Session.MaxCheckpoints = o.checkpoints
	opts.Import.WeldTolerance = o.weld
	result := NewAppWithOptions(opts).Evaluate(string(source))

	w := io.Writer(os.Stdout)
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			klog.Errorf("create output: %v", err)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := writeResult(w, result); err != nil {
		klog.Errorf("write result: %v", err)
		return 1
	}

	for _, warn := range result.Warnings {
		klog.Warning(warn.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			klog.Errorf("line %d: %s", e.Line, e.Message)
		}
		return 1
	}
	klog.Infof("%d vertices, %d edges, %d faces after %d ops",
		result.Stats.Vertices, result.Stats.Edges, result.Stats.Faces, len(result.History))
	return 0
}

func newKernel(name string, cells int) (kernel.Kernel, error) {
	switch name {
	case "sdfx":
		return sdfx.NewWithCells(cells), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("unknown kernel %q", name)
}

func writeResult(w io.Writer, result EvalResult) error {
	var jh codec.JsonHandle
	jh.Indent = 2
	return codec.NewEncoder(w, &jh).Encode(result)
}
