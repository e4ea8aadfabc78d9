// Package render defines the boundary between the terrain engine and the
// rendering system. The engine only ever holds opaque scene-object handles;
// it never inspects scene-graph structure.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies a scene object owned by a Backend. The zero value is
// never a valid object.
type Handle uint64

// Nil is the invalid handle.
const Nil Handle = 0

// Backend creates and manages renderable scene objects. All methods are
// called from the scheduler thread only.
type Backend interface {
	// CreateObject creates an empty scene object parented under parent
	// (Nil for the scene root) with the given local transform.
	CreateObject(parent Handle, transform mgl32.Mat4) Handle

	// AttachMesh uploads mesh geometry to the object. Attaching to a
	// handle that already has a mesh replaces it.
	AttachMesh(h Handle, positions []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3, indices []uint32)

	// Destroy releases the object and any attached mesh. Children are not
	// destroyed implicitly; callers own their full object trees.
	Destroy(h Handle)

	// SetVisible toggles whether the object is drawn.
	SetVisible(h Handle, visible bool)
}
