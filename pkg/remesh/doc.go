// Package remesh implements the whole-mesh algorithms: triangulation,
// linear and Catmull-Clark subdivision, Loop subdivision, isotropic
// remeshing and quadric-error simplification.
//
// Every algorithm works on a clone of the input and only replaces the
// caller's mesh once the result validates, so a failed run leaves the mesh
// untouched. Handles taken before a successful run must be re-acquired.
package remesh
