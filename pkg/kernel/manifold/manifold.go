//go:build manifold

// Package manifold is a kernel.Kernel backed by the Manifold C library
// (https://github.com/elalish/manifold). Its booleans are exact and its
// meshes come out indexed and closed, so they import into a half-edge mesh
// without welding.
//
// Requires manifoldc. Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/meshedit/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Solid = (*solid)(nil)

// DefaultSegments is the circular resolution of spheres and cylinders.
const DefaultSegments = 32

type solid struct {
	ptr *C.ManifoldManifold
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{
		float64(C.manifold_box_min_x(bbox)),
		float64(C.manifold_box_min_y(bbox)),
		float64(C.manifold_box_min_z(bbox)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(bbox)),
		float64(C.manifold_box_max_y(bbox)),
		float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// wrap takes ownership of ptr; the finalizer frees it.
func wrap(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*solid).ptr
}

// Kernel builds Manifold solids. Primitives are centered on the origin.
type Kernel struct {
	segments int
}

// New returns a Kernel at DefaultSegments.
func New() (kernel.Kernel, error) {
	return NewWithSegments(DefaultSegments), nil
}

// NewWithSegments returns a Kernel whose round primitives use the given
// number of segments, at least 3.
func NewWithSegments(segments int) *Kernel {
	if segments < 3 {
		segments = 3
	}
	return &Kernel{segments: segments}
}

func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return wrap(C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(x), C.double(y), C.double(z), C.int(1)))
}

func (k *Kernel) Sphere(radius float64) kernel.Solid {
	return wrap(C.manifold_sphere(C.manifold_alloc_manifold(),
		C.double(radius), C.int(k.segments)))
}

// Cylinder runs along Z.
func (k *Kernel) Cylinder(height, radius float64) kernel.Solid {
	return wrap(C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(radius), C.double(radius), C.int(k.segments), C.int(1)))
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(C.manifold_translate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z)))
}

// Rotate takes Euler angles in degrees.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(C.manifold_rotate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z)))
}

// ToMesh reads the solid's MeshGL. Only the first three vertex properties
// (the position) are used; normals are averaged from the triangles.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(gl)

	numVert := int(C.manifold_meshgl_num_vert(gl))
	numTri := int(C.manifold_meshgl_num_tri(gl))
	numProp := int(C.manifold_meshgl_num_prop(gl))
	if numVert == 0 || numTri == 0 {
		return nil, fmt.Errorf("manifold: solid is empty")
	}
	if numProp < 3 {
		return nil, fmt.Errorf("manifold: %d vertex properties, need 3", numProp)
	}

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), gl)

	out := &kernel.Mesh{
		Vertices: make([]float32, 0, numVert*3),
		Indices:  indices,
	}
	for i := 0; i < numVert; i++ {
		out.Vertices = append(out.Vertices, props[i*numProp:i*numProp+3]...)
	}
	out.Normals = vertexNormals(out)
	return out, nil
}

// vertexNormals averages the area-weighted normals of the triangles around
// each vertex.
func vertexNormals(m *kernel.Mesh) []float32 {
	acc := make([][3]float64, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := m.Vertex(int(tri[0])), m.Vertex(int(tri[1])), m.Vertex(int(tri[2]))
		var u, v [3]float64
		for i := 0; i < 3; i++ {
			u[i] = float64(b[i] - a[i])
			v[i] = float64(c[i] - a[i])
		}
		n := [3]float64{
			u[1]*v[2] - u[2]*v[1],
			u[2]*v[0] - u[0]*v[2],
			u[0]*v[1] - u[1]*v[0],
		}
		for _, idx := range tri {
			for i := 0; i < 3; i++ {
				acc[idx][i] += n[i]
			}
		}
	}

	normals := make([]float32, 0, 3*len(acc))
	for _, n := range acc {
		l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l < 1e-12 {
			normals = append(normals, 0, 0, 0)
			continue
		}
		normals = append(normals, float32(n[0]/l), float32(n[1]/l), float32(n[2]/l))
	}
	return normals
}
