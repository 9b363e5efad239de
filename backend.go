package picking

import "context"

// HitData is one backend's report that a pointer intersects an entity.
type HitData struct {
	// Entity is the entity that was hit.
	Entity Entity
	// Depth orders hits within a layer; smaller is nearer. Its unit is
	// backend-defined (view-space distance, paint rank, ...).
	Depth float64
	// Position is the world-space hit point, if the backend computes one.
	Position *Vec3
	// Normal is the surface normal at Position, if known.
	Normal *Vec3
	// Blocking hides every hit ordered after this one from the pointer.
	Blocking bool
	// Extra carries backend-specific metadata.
	Extra any

	// Backend and Layer are stamped by the aggregator.
	Backend string
	Layer   Layer
}

// Query is what a backend tests against for one pointer in one frame.
type Query struct {
	Frame    uint64
	Pointer  PointerID
	Location Location
}

// Backend is a pluggable hit-test provider.
//
// HitTest is called once per frame for every pointer that has a location.
// Implementations must not block past ctx; an error, a cancelled context or
// a late return count as zero hits for that pointer this frame. Reporting an
// entity more than once for one pointer is a protocol violation: the first
// report wins. Backends run concurrently with one another but never with
// themselves, and must treat the scene as read-only while testing.
type Backend interface {
	// Name identifies the backend in logs and in Config.BackendOrder.
	Name() string
	// Layer is the coarse priority of every hit this backend reports.
	Layer() Layer
	HitTest(ctx context.Context, q Query) ([]HitData, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc struct {
	BackendName  string
	BackendLayer Layer
	Fn           func(ctx context.Context, q Query) ([]HitData, error)
}

func (b BackendFunc) Name() string { return b.BackendName }

func (b BackendFunc) Layer() Layer { return b.BackendLayer }

func (b BackendFunc) HitTest(ctx context.Context, q Query) ([]HitData, error) {
	if b.Fn == nil {
		return nil, nil
	}
	return b.Fn(ctx, q)
}

// Submission is a batch of hits for one pointer from one source. Picker.Submit
// accepts submissions from push-style backends that compute hits outside the
// frame's hit-test phase.
type Submission struct {
	Backend string
	Layer   Layer
	Pointer PointerID
	Hits    []HitData
}
