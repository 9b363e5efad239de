package picking

import (
	"cmp"
	"context"
	"math"
	"slices"
)

// Mesh is an indexed triangle mesh in world space. Every vertex carries its
// own Z; the viewer looks down +Z, so smaller Z is nearer.
type Mesh struct {
	Entity   Entity
	Name     string
	Vertices []Vec3
	Indices  []uint16
	// Pickable=false skips the mesh entirely.
	Pickable bool
	// Blocking hides everything behind the mesh when it is hit.
	Blocking bool

	aabb      Rect
	aabbDirty bool
}

// NewMesh creates a pickable mesh. Indices are read three at a time; a
// trailing partial triangle is ignored.
func NewMesh(name string, vertices []Vec3, indices []uint16) *Mesh {
	return &Mesh{
		Entity:    NewEntity(),
		Name:      name,
		Vertices:  vertices,
		Indices:   indices,
		Pickable:  true,
		aabbDirty: true,
	}
}

// NewPolygonMesh creates a flat mesh at depth z from a convex polygon using
// fan triangulation. N points give 3*(N-2) indices.
func NewPolygonMesh(name string, points []Vec2, z float64) *Mesh {
	verts, inds := buildPolygonFan(points, z)
	return NewMesh(name, verts, inds)
}

// buildPolygonFan generates vertices and indices for a fan-triangulated polygon.
func buildPolygonFan(points []Vec2, z float64) ([]Vec3, []uint16) {
	n := len(points)
	if n < 3 {
		return nil, nil
	}
	verts := make([]Vec3, n)
	for i, p := range points {
		verts[i] = Vec3{X: p.X, Y: p.Y, Z: z}
	}
	// Vertex 0 is the hub.
	inds := make([]uint16, (n-2)*3)
	for i := 0; i < n-2; i++ {
		inds[i*3+0] = 0
		inds[i*3+1] = uint16(i + 1)
		inds[i*3+2] = uint16(i + 2)
	}
	return verts, inds
}

// Invalidate marks the cached AABB as needing recomputation. Call this after
// modifying Vertices.
func (m *Mesh) Invalidate() {
	m.aabbDirty = true
}

// AABB returns the mesh's XY bounding box.
func (m *Mesh) AABB() Rect {
	if m.aabbDirty {
		m.aabb = computeMeshAABB(m.Vertices)
		m.aabbDirty = false
	}
	return m.aabb
}

// computeMeshAABB returns the XY bounding box of verts.
func computeMeshAABB(verts []Vec3) Rect {
	if len(verts) == 0 {
		return Rect{}
	}
	minX, minY := verts[0].X, verts[0].Y
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MeshHit is the Extra payload of hits reported by a MeshBackend.
type MeshHit struct {
	Mesh *Mesh
	// Triangle is the index of the hit triangle's first entry in Indices.
	Triangle int
	// Barycentric weights of the hit point for the triangle's three vertices.
	Barycentric Vec3
}

// intersect casts an orthographic ray along +Z through (x, y) and returns
// the nearest triangle hit.
func (m *Mesh) intersect(x, y float64) (HitData, bool) {
	if !m.AABB().Contains(x, y) {
		return HitData{}, false
	}
	var (
		best   HitData
		found  bool
		bestZ  = math.Inf(1)
		nVerts = len(m.Vertices)
	)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := int(m.Indices[t]), int(m.Indices[t+1]), int(m.Indices[t+2])
		if i0 >= nVerts || i1 >= nVerts || i2 >= nVerts {
			continue
		}
		a, b, c := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
		w, ok := barycentric(a, b, c, x, y)
		if !ok {
			continue
		}
		z := w.X*a.Z + w.Y*b.Z + w.Z*c.Z
		if z >= bestZ {
			continue
		}
		bestZ = z
		normal := triangleNormal(a, b, c)
		best = HitData{
			Entity:   m.Entity,
			Depth:    z,
			Position: &Vec3{X: x, Y: y, Z: z},
			Normal:   &normal,
			Blocking: m.Blocking,
			Extra:    MeshHit{Mesh: m, Triangle: t, Barycentric: w},
		}
		found = true
	}
	return best, found
}

// barycentric returns the weights of (x, y) in the XY projection of triangle
// abc. Points on edges count as inside; degenerate triangles never match.
func barycentric(a, b, c Vec3, x, y float64) (Vec3, bool) {
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < 1e-12 {
		return Vec3{}, false
	}
	w0 := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / det
	w1 := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / det
	w2 := 1 - w0 - w1
	const eps = -1e-9
	if w0 < eps || w1 < eps || w2 < eps {
		return Vec3{}, false
	}
	return Vec3{X: w0, Y: w1, Z: w2}, true
}

// triangleNormal returns the unit normal of abc facing the viewer (-Z).
func triangleNormal(a, b, c Vec3) Vec3 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	n := Vec3{X: uy*vz - uz*vy, Y: uz*vx - ux*vz, Z: ux*vy - uy*vx}
	if n.Z > 0 {
		n = Vec3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	l := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z)
	if l == 0 {
		return Vec3{Z: -1}
	}
	return Vec3{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
}

// MeshBackend hit-tests a set of meshes. Depth is the interpolated Z of the
// nearest triangle under the pointer, so meshes interleave by distance.
type MeshBackend struct {
	name      string
	layer     Layer
	cameras   Cameras
	meshes    []*Mesh
	onDespawn []func(Entity)
}

// NewMeshBackend creates an empty mesh backend on LayerWorld.
func NewMeshBackend(name string) *MeshBackend {
	return &MeshBackend{name: name, layer: LayerWorld}
}

// Name implements Backend.
func (b *MeshBackend) Name() string { return b.name }

// Layer implements Backend.
func (b *MeshBackend) Layer() Layer { return b.layer }

// SetLayer changes the layer the backend reports its hits on.
func (b *MeshBackend) SetLayer(l Layer) {
	b.layer = l
}

// Cameras returns the backend's viewport cameras.
func (b *MeshBackend) Cameras() *Cameras {
	return &b.cameras
}

// Add appends a mesh.
func (b *MeshBackend) Add(m *Mesh) {
	b.meshes = append(b.meshes, m)
}

// Remove drops a mesh and reports its entity to the despawn callbacks.
func (b *MeshBackend) Remove(m *Mesh) {
	i := slices.Index(b.meshes, m)
	if i < 0 {
		return
	}
	b.meshes = slices.Delete(b.meshes, i, i+1)
	for _, fn := range b.onDespawn {
		fn(m.Entity)
	}
}

// OnDespawn registers fn to be called with the entity of every removed mesh.
func (b *MeshBackend) OnDespawn(fn func(Entity)) {
	b.onDespawn = append(b.onDespawn, fn)
}

// Alive implements Liveness for the backend's meshes.
func (b *MeshBackend) Alive(e Entity) bool {
	return slices.ContainsFunc(b.meshes, func(m *Mesh) bool { return m.Entity == e })
}

// HitTest implements Backend.
func (b *MeshBackend) HitTest(ctx context.Context, q Query) ([]HitData, error) {
	p, ok := b.cameras.ToWorld(q.Location)
	if !ok {
		return nil, nil
	}
	var hits []HitData
	for _, m := range b.meshes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !m.Pickable {
			continue
		}
		if h, ok := m.intersect(p.X, p.Y); ok {
			hits = append(hits, h)
		}
	}
	slices.SortStableFunc(hits, func(x, y HitData) int { return cmp.Compare(x.Depth, y.Depth) })
	return hits, nil
}
