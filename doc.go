// Package picking is a frame-driven pointer picking and interaction
// pipeline for games and interactive 2D/3D tools.
//
// Each frame the host hands a [Picker] the raw pointer input it collected
// (mouse, touch, pen or custom pointers). The picker hit-tests every
// registered [Backend] in parallel, merges their results into one ordered
// hit list per pointer, runs the hover, press, click and drag state machine
// and delivers the resulting [Event] values to listeners, bubbling them up
// an entity [Hierarchy].
//
// # Quick start
//
//	p := picking.NewPicker(picking.DefaultConfig())
//	scene := picking.NewScene("world")
//	scene.Attach(p)
//
//	button := picking.NewSprite("button", 80, 24)
//	scene.Root().AddChild(button)
//	p.Dispatcher().On(button.Entity, picking.EventClick, func(c *picking.Context) {
//		// ...
//	})
//
//	// Once per frame:
//	p.Update(ctx, inputs)
//
// Adapters in picking/ebiteninput and picking/tcellinput turn Ebitengine
// and terminal input into the per-frame batch.
//
// # Backends
//
// A backend answers one question: which entities are under this pointer
// location, and how deep. [Scene] tests a 2D node tree through viewport
// cameras, [UIBackend] tests screen-space widgets on [LayerUI] and
// [MeshBackend] tests triangle meshes. Anything else can implement
// [Backend] or push results with [Picker.Submit]. Hits are ordered by layer
// first and depth second; the same entity reported by two backends keeps
// only its highest-priority hit.
//
// # Events
//
// Hover produces Entered and Over when an entity comes under the pointer
// and Out and Left when it stops being. A press followed by a release on the
// same entity produces Click. Moving past [Config.DragThreshold] while held
// starts a drag instead: DragStart, Drag, DragEnter/DragOver/DragLeave on
// the entities underneath, then Drop and DragEnd on release. Removing a
// pointer, [Picker.CancelPointer] or [Picker.Despawn] ends any press or drag
// with a Cancel, which never bubbles.
//
// Events are also written to [Picker.Events], a double-buffered log that
// pull-style consumers can read once per frame with an [EventCursor].
//
// # Configuration
//
// [Config] can be built in code or loaded from TOML with [LoadConfig].
// Diagnostics are logged through zerolog; see [Picker.SetLogger].
//
// # ECS integration
//
// The picking/ecs module publishes events into a [Donburi] world.
//
// [Donburi]: https://github.com/yohamta/donburi
package picking
