package halfedge

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func mustBuild(positions []v3.Vec, polygons [][]int) *Mesh {
	m, err := FromPolygons(positions, polygons)
	if err != nil {
		panic("halfedge: bad primitive: " + err.Error())
	}
	return m
}

// Tetrahedron returns a closed regular tetrahedron centered on the origin.
func Tetrahedron() *Mesh {
	return mustBuild(
		[]v3.Vec{{X: 1, Y: 1, Z: 1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}},
		[][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	)
}

// Cube returns a closed quad cube spanning [-1, 1] on every axis.
func Cube() *Mesh {
	var pos []v3.Vec
	for i := 0; i < 8; i++ {
		pos = append(pos, v3.Vec{
			X: float64(i&1)*2 - 1,
			Y: float64(i>>1&1)*2 - 1,
			Z: float64(i>>2&1)*2 - 1,
		})
	}
	return mustBuild(pos, [][]int{
		{0, 2, 3, 1}, {4, 5, 7, 6},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 4, 6, 2}, {1, 3, 7, 5},
	})
}

// Octahedron returns a closed octahedron with unit-distance corners.
func Octahedron() *Mesh {
	return mustBuild(
		[]v3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}},
		[][]int{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	)
}

// Icosahedron returns a closed icosahedron.
func Icosahedron() *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	return mustBuild(
		[]v3.Vec{
			{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
			{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
			{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
		},
		[][]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	)
}

// Quad returns a single unit square with one boundary loop.
func Quad() *Mesh {
	return mustBuild(
		[]v3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		[][]int{{0, 1, 2, 3}},
	)
}

// Grid returns an open n-by-n patch of unit quads in the XY plane.
func Grid(n int) *Mesh {
	if n < 1 {
		n = 1
	}
	var pos []v3.Vec
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			pos = append(pos, v3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	var polys [][]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*(n+1) + i
			polys = append(polys, []int{a, a + 1, a + n + 2, a + n + 1})
		}
	}
	return mustBuild(pos, polys)
}
