package streaming

import (
	"github.com/Faultbox/terrastream/internal/engine/render"
	"github.com/Faultbox/terrastream/internal/engine/task"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// ChunkState is the lifecycle state of a resident chunk.
type ChunkState int

const (
	// StatePending: the id entered the target set; no work issued yet.
	StatePending ChunkState = iota

	// StateGenerating: height buffers acquired, per-LOD build tasks in
	// flight.
	StateGenerating

	// StateFinalized: render objects exist; transient build buffers are
	// gone.
	StateFinalized

	// StateUnloading: flagged for removal while generation was still in
	// flight; waiting for tasks to drain. Render objects are never
	// created on this path.
	StateUnloading

	// StateRemoved: terminal; the entry is unlinked on the next sweep.
	StateRemoved
)

func (s ChunkState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerating:
		return "generating"
	case StateFinalized:
		return "finalized"
	case StateUnloading:
		return "unloading"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// lodBuild holds the in-flight build pipeline of one LOD: the mesh task
// produces the vertex grid, the normals task depends on it. Both buffers
// are transient and dropped at finalization or unload.
type lodBuild struct {
	build       *terrain.MeshBuildResult
	meshTask    *task.Task
	normalsTask *task.Task
}

// LodInfo is the finalized renderable state of one LOD.
type LodInfo struct {
	Object render.Handle
	Skirt  render.Handle

	// Border keeps the finalized border normals for cross-chunk normal
	// blending.
	Border terrain.BorderStrip
}

// LoadedChunk is one entry per resident chunk id, owned exclusively by the
// Scheduler.
type LoadedChunk struct {
	id     ChunkID
	state  ChunkState
	unload bool

	// buffers is the 3x3 neighborhood of height buffer references this
	// chunk holds, slot layout per terrain.Slot*. All nine are released
	// together on removal.
	buffers     [9]*HeightBuffer
	buffersHeld bool

	builds []*lodBuild
	lods   []LodInfo

	// activeLod is the currently visible LOD index, -1 for none.
	activeLod int

	// lodSlot staggers LOD re-evaluation across frames.
	lodSlot int
}

// ID returns the chunk id.
func (c *LoadedChunk) ID() ChunkID { return c.id }

// State returns the lifecycle state.
func (c *LoadedChunk) State() ChunkState { return c.state }

// ActiveLod returns the visible LOD index, -1 for none.
func (c *LoadedChunk) ActiveLod() int { return c.activeLod }

// UnloadRequested reports whether the chunk left the target set.
func (c *LoadedChunk) UnloadRequested() bool { return c.unload }

// buildTasksReady reports whether every per-LOD pipeline has completed.
func (c *LoadedChunk) buildTasksReady() bool {
	for _, lb := range c.builds {
		if !lb.normalsTask.IsReady() {
			return false
		}
	}
	return true
}
