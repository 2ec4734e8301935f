package main

import (
	"github.com/chazu/meshedit/pkg/engine"
	"github.com/chazu/meshedit/pkg/kernel/sdfx"
	"github.com/plan-systems/klog"
)

// App runs edit scripts and shapes the outcome for display or export.
type App struct {
	engine *engine.Engine
}

// MeshData is the JSON-serializable mesh format handed to a viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices" codec:"vertices"`
	Normals  []float32 `json:"normals" codec:"normals"`
	Indices  []uint32  `json:"indices" codec:"indices"`
	Name     string    `json:"name" codec:"name"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line" codec:"line"`
	Col     int    `json:"col" codec:"col"`
	Message string `json:"message" codec:"message"`
}

// StatsData summarizes the edited mesh.
type StatsData struct {
	Vertices      int  `json:"vertices" codec:"vertices"`
	Edges         int  `json:"edges" codec:"edges"`
	Faces         int  `json:"faces" codec:"faces"`
	BoundaryLoops int  `json:"boundaryLoops" codec:"boundaryLoops"`
	Triangles     bool `json:"triangles" codec:"triangles"`
}

// EvalResult is the full result of one script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes" codec:"meshes"`
	Errors   []EvalErrorData `json:"errors" codec:"errors"`
	Warnings []EvalErrorData `json:"warnings" codec:"warnings"`
	Stats    StatsData       `json:"stats" codec:"stats"`
	History  []string        `json:"history" codec:"history"`
	Value    string          `json:"value" codec:"value"`
}

// NewApp creates an App with the default engine.
func NewApp() *App {
	return &App{engine: engine.NewEngine()}
}

// NewAppWithOptions creates an App whose engine uses opts.
func NewAppWithOptions(opts engine.Options) *App {
	return &App{engine: engine.NewEngineWithOptions(opts)}
}

// newAppWithCells is NewApp with a marching cubes resolution for solids.
func newAppWithCells(cells int) *App {
	opts := engine.DefaultOptions()
	opts.Kernel = sdfx.NewWithCells(cells)
	return NewAppWithOptions(opts)
}

// Evaluate runs source and returns the mesh, diagnostics and history.
// The slices are never nil so they serialize as [].
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
		History:  []string{},
	}

	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		klog.Errorf("evaluate: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}
	result.History = append(result.History, res.History...)
	result.Value = res.Value
	result.Stats = StatsData{
		Vertices:      res.Stats.Vertices,
		Edges:         res.Stats.Edges,
		Faces:         res.Stats.Faces,
		BoundaryLoops: res.Stats.BoundaryLoops,
		Triangles:     res.Stats.Triangles,
	}

	// An empty session has nothing to draw.
	if res.Export.IsEmpty() {
		return result
	}
	name := res.Export.Name
	if name == "" && len(res.History) > 0 {
		name = res.History[0]
	}
	result.Meshes = append(result.Meshes, MeshData{
		Vertices: res.Export.Vertices,
		Normals:  res.Export.Normals,
		Indices:  res.Export.Indices,
		Name:     name,
	})
	return result
}
