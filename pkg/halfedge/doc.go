// Package halfedge implements an editable polygon mesh on a half-edge
// connectivity structure.
//
// Vertices, edges, faces and halfedges live in per-kind arenas owned by a
// Mesh and are addressed by generational handles. Every cross reference is
// a handle lookup, so a handle to a freed record is detected instead of
// silently aliasing a reused slot. Erasure is logical: erased records stay
// readable until Validate succeeds and compacts the arenas.
//
// The local operators (FlipEdge, SplitEdge, CollapseEdge, BevelFace, ...)
// either complete and return the element they produced, or refuse with an
// error wrapping ErrRefused and leave the mesh untouched.
package halfedge
