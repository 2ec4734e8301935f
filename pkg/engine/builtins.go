package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/meshedit/pkg/halfedge"
	"github.com/chazu/meshedit/pkg/kernel"
	"github.com/chazu/meshedit/pkg/remesh"
	"github.com/chazu/meshedit/pkg/session"
	"github.com/chazu/meshedit/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/pkg/errors"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms edit scripts before passing them to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     options like :catmull-clark need no global symbols.
//
//  2. Kebab-case to underscore: loop-subdivide -> loop_subdivide, since
//     zygomys reads a hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i, '"')
			result = append(result, b[i:j]...)
			i = j
		case b[i] == '`':
			j := skipQuoted(b, i, '`')
			result = append(result, b[i:j]...)
			i = j
		case b[i] == ';':
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, ':', '=')
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
			i++
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipQuoted returns the index just past the literal opening at b[i].
// Backslash escapes apply to double quotes only.
func skipQuoted(b []byte, i int, quote byte) int {
	j := i + 1
	for j < len(b) && b[j] != quote {
		if quote == '"' && b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Sexp types for passing handles and solids between builtins
// ---------------------------------------------------------------------------

type sexpVertex struct{ ref halfedge.VertexRef }

func (v *sexpVertex) SexpString(ps *zygo.PrintState) string { return "(vertex " + v.ref.String() + ")" }
func (v *sexpVertex) Type() *zygo.RegisteredType            { return nil }

type sexpEdge struct{ ref halfedge.EdgeRef }

func (e *sexpEdge) SexpString(ps *zygo.PrintState) string { return "(edge " + e.ref.String() + ")" }
func (e *sexpEdge) Type() *zygo.RegisteredType            { return nil }

// bevelKind records which bevel produced a face, selecting the position
// pass bevel-offset runs on it.
type bevelKind int

const (
	notBeveled bevelKind = iota
	beveledVertex
	beveledEdge
	beveledFace
)

// sexpFace is a face handle. Faces returned by bevel also carry the corner
// positions captured right after the bevel.
type sexpFace struct {
	ref   halfedge.FaceRef
	bevel bevelKind
	start []v3.Vec
}

func (f *sexpFace) SexpString(ps *zygo.PrintState) string { return "(face " + f.ref.String() + ")" }
func (f *sexpFace) Type() *zygo.RegisteredType            { return nil }

type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpSolid) Type() *zygo.RegisteredType            { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A keyword
// with no following value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// floats extracts exactly n numbers.
func floats(op string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d numbers, got %d arguments", op, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", op, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Session plumbing
// ---------------------------------------------------------------------------

// evalState is shared by the builtins of one evaluation.
type evalState struct {
	sess       *session.Session
	kernel     kernel.Kernel
	importOpts tessellate.ImportOptions
	warnings   []EvalWarning
}

// apply runs op through the session. Refused and unsupported operations
// become warnings and report false; any other failure, including
// corruption, is returned as an error and stops the script.
func (st *evalState) apply(name string, op session.Op) (bool, error) {
	err := st.sess.Apply(name, op)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, halfedge.ErrRefused), errors.Is(err, halfedge.ErrUnsupported):
		st.warnings = append(st.warnings, EvalWarning{Op: name, Message: err.Error()})
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", name, err)
	}
}

// replace seeds the session with a fresh mesh.
func (st *evalState) replace(name string, build func() (*halfedge.Mesh, error)) error {
	_, err := st.apply(name, func(m *halfedge.Mesh) error {
		next, err := build()
		if err != nil {
			return err
		}
		return m.Rebuild(next.Export())
	})
	return err
}

func (st *evalState) vertex(op string, s zygo.Sexp) (halfedge.VertexRef, error) {
	v, ok := s.(*sexpVertex)
	if !ok {
		return halfedge.NoVertex, fmt.Errorf("%s: expected vertex, got %T (%s)", op, s, s.SexpString(nil))
	}
	if !st.sess.Mesh().VertexAlive(v.ref) {
		return halfedge.NoVertex, fmt.Errorf("%s: %v: %w", op, v.ref, halfedge.ErrStaleHandle)
	}
	return v.ref, nil
}

func (st *evalState) edge(op string, s zygo.Sexp) (halfedge.EdgeRef, error) {
	e, ok := s.(*sexpEdge)
	if !ok {
		return halfedge.NoEdge, fmt.Errorf("%s: expected edge, got %T (%s)", op, s, s.SexpString(nil))
	}
	if !st.sess.Mesh().EdgeAlive(e.ref) {
		return halfedge.NoEdge, fmt.Errorf("%s: %v: %w", op, e.ref, halfedge.ErrStaleHandle)
	}
	return e.ref, nil
}

func (st *evalState) face(op string, s zygo.Sexp) (*sexpFace, error) {
	f, ok := s.(*sexpFace)
	if !ok {
		return nil, fmt.Errorf("%s: expected face, got %T (%s)", op, s, s.SexpString(nil))
	}
	if !st.sess.Mesh().FaceAlive(f.ref) {
		return nil, fmt.Errorf("%s: %v: %w", op, f.ref, halfedge.ErrStaleHandle)
	}
	return f, nil
}

// oneArg checks a builtin got exactly one argument.
func oneArg(op string, args []zygo.Sexp) error {
	if len(args) != 1 {
		return fmt.Errorf("%s requires exactly 1 argument, got %d", op, len(args))
	}
	return nil
}

func vertexResult(ok bool, v halfedge.VertexRef) zygo.Sexp {
	if !ok {
		return zygo.SexpNull
	}
	return &sexpVertex{ref: v}
}

func edgeResult(ok bool, e halfedge.EdgeRef) zygo.Sexp {
	if !ok {
		return zygo.SexpNull
	}
	return &sexpEdge{ref: e}
}

func faceResult(ok bool, f *sexpFace) zygo.Sexp {
	if !ok {
		return zygo.SexpNull
	}
	return f
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// zfunc is the zygomys builtin signature.
type zfunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the edit builtins into a zygomys environment.
// Source code must be preprocessed with preprocessSource() first so that
// :keyword tokens and kebab-case names are recognizable.
func registerBuiltins(env *zygo.Zlisp, st *evalState) {
	for name, fn := range meshBuiltins(st) {
		env.AddFunction(name, fn)
	}
	for name, fn := range solidBuiltins(st) {
		env.AddFunction(name, fn)
	}
	for name, fn := range operatorBuiltins(st) {
		env.AddFunction(name, fn)
	}
	for name, fn := range algorithmBuiltins(st) {
		env.AddFunction(name, fn)
	}
}

// meshBuiltins seed the session and select elements.
func meshBuiltins(st *evalState) map[string]zfunc {
	primitive := func(build func() *halfedge.Mesh) zfunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 0 {
				return zygo.SexpNull, fmt.Errorf("%s takes no arguments", name)
			}
			return zygo.SexpNull, st.replace(name, func() (*halfedge.Mesh, error) { return build(), nil })
		}
	}

	return map[string]zfunc{
		// (tetrahedron) (cube) (octahedron) (icosahedron) (quad)
		"tetrahedron": primitive(halfedge.Tetrahedron),
		"cube":        primitive(halfedge.Cube),
		"octahedron":  primitive(halfedge.Octahedron),
		"icosahedron": primitive(halfedge.Icosahedron),
		"quad":        primitive(halfedge.Quad),

		// (grid 4)
		"grid": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			n, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %w", err)
			}
			if n < 1 {
				return zygo.SexpNull, fmt.Errorf("grid: size must be positive, got %d", n)
			}
			return zygo.SexpNull, st.replace("grid", func() (*halfedge.Mesh, error) { return halfedge.Grid(n), nil })
		},

		// (load (sphere 1))
		"load": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("load: %w", err)
			}
			return zygo.SexpNull, st.replace("load", func() (*halfedge.Mesh, error) {
				return tessellate.FromSolid(st.kernel, s, st.importOpts)
			})
		},

		// (vertex 0) (edge 3) (face 1): the i-th live element in storage order.
		"vertex": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			i, err := elementIndex(name, args, st.sess.Mesh().NumVertices())
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpVertex{ref: st.sess.Mesh().Vertices()[i]}, nil
		},
		"edge": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			i, err := elementIndex(name, args, st.sess.Mesh().NumEdges())
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpEdge{ref: st.sess.Mesh().Edges()[i]}, nil
		},
		"face": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			i, err := elementIndex(name, args, st.sess.Mesh().NumFaces())
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpFace{ref: st.sess.Mesh().Faces()[i]}, nil
		},

		// (count :vertices)
		"count": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			what, err := toKeywordString(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("count: %w", err)
			}
			stats := st.sess.Mesh().Stats()
			var n int
			switch what {
			case "vertices":
				n = stats.Vertices
			case "edges":
				n = stats.Edges
			case "faces":
				n = stats.Faces
			case "boundary-loops":
				n = stats.BoundaryLoops
			default:
				return zygo.SexpNull, fmt.Errorf("count: unknown element kind %q", what)
			}
			return &zygo.SexpInt{Val: int64(n)}, nil
		},

		// (validate)
		"validate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := st.sess.Mesh().Validate(); err != nil {
				return zygo.SexpNull, fmt.Errorf("validate: %w", err)
			}
			return zygo.SexpNull, nil
		},

		// (undo)
		"undo": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			err := st.sess.Undo()
			if errors.Is(err, session.ErrNothingToUndo) {
				st.warnings = append(st.warnings, EvalWarning{Op: name, Message: err.Error()})
				return zygo.SexpNull, nil
			}
			return zygo.SexpNull, err
		},
	}
}

func elementIndex(op string, args []zygo.Sexp, n int) (int, error) {
	if err := oneArg(op, args); err != nil {
		return 0, err
	}
	i, err := toInt(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%s: index %d out of range [0, %d)", op, i, n)
	}
	return i, nil
}

// solidBuiltins build kernel solids for load.
func solidBuiltins(st *evalState) map[string]zfunc {
	k := st.kernel
	return map[string]zfunc{
		// (box 1 2 3)
		"box": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			f, err := floats(name, args, 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: k.Box(f[0], f[1], f[2]), desc: fmt.Sprintf("(box %g %g %g)", f[0], f[1], f[2])}, nil
		},
		// (sphere 1)
		"sphere": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			f, err := floats(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: k.Sphere(f[0]), desc: fmt.Sprintf("(sphere %g)", f[0])}, nil
		},
		// (cylinder 2 0.5)
		"cylinder": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			f, err := floats(name, args, 2)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: k.Cylinder(f[0], f[1]), desc: fmt.Sprintf("(cylinder %g %g)", f[0], f[1])}, nil
		},
		"union":        booleanBuiltin(k.Union),
		"difference":   booleanBuiltin(k.Difference),
		"intersection": booleanBuiltin(k.Intersection),
		"translate":    transformBuiltin(k.Translate),
		"rotate":       transformBuiltin(k.Rotate),
	}
}

// booleanBuiltin wraps (union a b) style builtins.
func booleanBuiltin(op func(a, b kernel.Solid) kernel.Solid) zfunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 solids, got %d arguments", name, len(args))
		}
		a, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		b, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		desc := fmt.Sprintf("(%s %s %s)", name, args[0].SexpString(nil), args[1].SexpString(nil))
		return &sexpSolid{solid: op(a, b), desc: desc}, nil
	}
}

// transformBuiltin wraps (translate s x y z) style builtins.
func transformBuiltin(op func(s kernel.Solid, x, y, z float64) kernel.Solid) zfunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid and 3 numbers, got %d arguments", name, len(args))
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		f, err := floats(name, args[1:], 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		desc := fmt.Sprintf("(%s %s %g %g %g)", name, args[0].SexpString(nil), f[0], f[1], f[2])
		return &sexpSolid{solid: op(s, f[0], f[1], f[2]), desc: desc}, nil
	}
}

// operatorBuiltins expose the local operators. Each returns the element the
// operator produced, or nil when it was refused.
func operatorBuiltins(st *evalState) map[string]zfunc {
	return map[string]zfunc{
		// (flip e)
		"flip": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			e, err := st.edge(name, args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			var out halfedge.EdgeRef
			ok, err := st.apply(name, func(m *halfedge.Mesh) (err error) {
				out, err = m.FlipEdge(e)
				return err
			})
			return edgeResult(ok, out), err
		},

		// (split e) (bisect e)
		"split":  edgeToVertex(st, (*halfedge.Mesh).SplitEdge),
		"bisect": edgeToVertex(st, (*halfedge.Mesh).BisectEdge),

		// (collapse e) or (collapse f)
		"collapse": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			var op session.Op
			var out halfedge.VertexRef
			switch args[0].(type) {
			case *sexpEdge:
				e, err := st.edge(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				op = func(m *halfedge.Mesh) (err error) {
					out, err = m.CollapseEdge(e)
					return err
				}
			case *sexpFace:
				f, err := st.face(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				op = func(m *halfedge.Mesh) (err error) {
					out, err = m.CollapseFace(f.ref)
					return err
				}
			default:
				return zygo.SexpNull, fmt.Errorf("collapse: expected edge or face, got %s", args[0].SexpString(nil))
			}
			ok, err := st.apply(name, op)
			return vertexResult(ok, out), err
		},

		// (erase v) or (erase e)
		"erase": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			var op session.Op
			var out halfedge.FaceRef
			switch args[0].(type) {
			case *sexpVertex:
				v, err := st.vertex(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				op = func(m *halfedge.Mesh) (err error) {
					out, err = m.EraseVertex(v)
					return err
				}
			case *sexpEdge:
				e, err := st.edge(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				op = func(m *halfedge.Mesh) (err error) {
					out, err = m.EraseEdge(e)
					return err
				}
			default:
				return zygo.SexpNull, fmt.Errorf("erase: expected vertex or edge, got %s", args[0].SexpString(nil))
			}
			ok, err := st.apply(name, op)
			return faceResult(ok, &sexpFace{ref: out}), err
		},

		// (inset f)
		"inset": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			f, err := st.face(name, args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			var out halfedge.VertexRef
			ok, err := st.apply(name, func(m *halfedge.Mesh) (err error) {
				out, err = m.InsetVertex(f.ref)
				return err
			})
			return vertexResult(ok, out), err
		},

		// (bevel v), (bevel e) or (bevel f)
		"bevel": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			res := &sexpFace{}
			var op session.Op
			switch args[0].(type) {
			case *sexpVertex:
				v, err := st.vertex(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				res.bevel = beveledVertex
				op = func(m *halfedge.Mesh) (err error) {
					res.ref, err = m.BevelVertex(v)
					return err
				}
			case *sexpEdge:
				e, err := st.edge(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				res.bevel = beveledEdge
				op = func(m *halfedge.Mesh) (err error) {
					res.ref, err = m.BevelEdge(e)
					return err
				}
			case *sexpFace:
				f, err := st.face(name, args[0])
				if err != nil {
					return zygo.SexpNull, err
				}
				res.bevel = beveledFace
				op = func(m *halfedge.Mesh) (err error) {
					res.ref, err = m.BevelFace(f.ref)
					return err
				}
			default:
				return zygo.SexpNull, fmt.Errorf("bevel: expected vertex, edge or face, got %s", args[0].SexpString(nil))
			}
			ok, err := st.apply(name, op)
			if ok {
				res.start = st.sess.Mesh().FacePositions(res.ref)
			}
			return faceResult(ok, res), err
		},

		// (bevel-offset f :tangent 0.2 :normal 0.1)
		"bevel_offset": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("bevel-offset requires a beveled face")
			}
			f, err := st.face("bevel-offset", pa.positional[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if f.bevel == notBeveled {
				return zygo.SexpNull, fmt.Errorf("bevel-offset: %v was not produced by bevel", f.ref)
			}
			var tangent, normal float64
			if v, ok := pa.kw["tangent"]; ok {
				if tangent, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("bevel-offset: tangent: %w", err)
				}
			}
			if v, ok := pa.kw["normal"]; ok {
				if normal, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("bevel-offset: normal: %w", err)
				}
			}
			_, err = st.apply("bevel-offset", func(m *halfedge.Mesh) error {
				switch f.bevel {
				case beveledVertex:
					return m.BevelVertexPositions(f.start, f.ref, tangent)
				case beveledEdge:
					return m.BevelEdgePositions(f.start, f.ref, tangent)
				default:
					return m.BevelFacePositions(f.start, f.ref, tangent, normal)
				}
			})
			return f, err
		},

		// (extrude v)
		"extrude": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := oneArg(name, args); err != nil {
				return zygo.SexpNull, err
			}
			v, err := st.vertex(name, args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			out := &sexpFace{}
			ok, err := st.apply(name, func(m *halfedge.Mesh) (err error) {
				out.ref, err = m.ExtrudeVertex(v)
				return err
			})
			return faceResult(ok, out), err
		},
	}
}

// edgeToVertex wraps operators that take an edge and produce a vertex.
func edgeToVertex(st *evalState, op func(*halfedge.Mesh, halfedge.EdgeRef) (halfedge.VertexRef, error)) zfunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := oneArg(name, args); err != nil {
			return zygo.SexpNull, err
		}
		e, err := st.edge(name, args[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		var out halfedge.VertexRef
		ok, err := st.apply(name, func(m *halfedge.Mesh) (err error) {
			out, err = op(m, e)
			return err
		})
		return vertexResult(ok, out), err
	}
}

// algorithmBuiltins expose the global algorithms.
func algorithmBuiltins(st *evalState) map[string]zfunc {
	return map[string]zfunc{
		// (triangulate)
		"triangulate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			_, err := st.apply(name, remesh.Triangulate)
			return zygo.SexpNull, err
		},

		// (subdivide) (subdivide :linear) (subdivide :catmull-clark)
		"subdivide": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			scheme := remesh.Linear
			if len(args) > 0 {
				s, err := toKeywordString(args[0])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("subdivide: %w", err)
				}
				switch s {
				case remesh.Linear.String():
				case remesh.CatmullClark.String():
					scheme = remesh.CatmullClark
				default:
					return zygo.SexpNull, fmt.Errorf("subdivide: unknown scheme %q", s)
				}
			}
			_, err := st.apply("subdivide "+scheme.String(), func(m *halfedge.Mesh) error {
				return remesh.Subdivide(m, scheme)
			})
			return zygo.SexpNull, err
		},

		// (loop-subdivide)
		"loop_subdivide": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			_, err := st.apply("loop-subdivide", remesh.LoopSubdivide)
			return zygo.SexpNull, err
		},

		// (remesh :iterations 4 :smooth 10)
		"remesh": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			opts := remesh.DefaultRemeshOptions()
			if v, ok := pa.kw["iterations"]; ok {
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("remesh: iterations: %w", err)
				}
				opts.Iterations = n
			}
			if v, ok := pa.kw["smooth"]; ok {
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("remesh: smooth: %w", err)
				}
				opts.SmoothIterations = n
			}
			_, err := st.apply(name, func(m *halfedge.Mesh) error {
				return remesh.IsotropicRemesh(m, opts)
			})
			return zygo.SexpNull, err
		},

		// (simplify :target 100 :max-cost 0.01)
		"simplify": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			opts := remesh.DefaultSimplifyOptions()
			if v, ok := pa.kw["target"]; ok {
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("simplify: target: %w", err)
				}
				opts.TargetEdges = n
			}
			if v, ok := pa.kw["max-cost"]; ok {
				c, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("simplify: max-cost: %w", err)
				}
				opts.MaxCost = c
			}
			_, err := st.apply(name, func(m *halfedge.Mesh) error {
				return remesh.Simplify(m, opts)
			})
			return zygo.SexpNull, err
		},
	}
}
