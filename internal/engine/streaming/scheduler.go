// Package streaming drives the terrain chunk lifecycle: it tracks which
// chunk ids should be resident around the viewer, issues parallel height
// and mesh-build work, time-slices finalization across frames, manages the
// ref-counted height cache, and selects per-chunk LOD.
//
// The Scheduler is single-threaded: all methods must be called from one
// goroutine (the frame loop). Workers only ever touch write-once height
// data and per-LOD build buffers handed to them.
package streaming

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/heightfield"
	"github.com/Faultbox/terrastream/internal/engine/render"
	"github.com/Faultbox/terrastream/internal/engine/task"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// heightBufferMargin is the extra sample ring generated around each chunk
// footprint. One ring covers the densest LOD's scaffold; coarser LODs read
// through the neighbor buffers.
const heightBufferMargin = 1

// skirtDepthFactor scales a LOD's stride into its skirt curtain depth.
const skirtDepthFactor = 4

// Config holds the scheduler's tuning. StridePerLOD and DistancePerLOD
// must be equal length; every stride must be a multiple of StridePerLOD[0]
// and divide ChunkSize exactly.
type Config struct {
	ChunkSize          float32
	MaxWorldCoordinate float32
	StridePerLOD       []float32
	DistancePerLOD     []float32

	// FinalizeBudget caps scheduler work per Tick when the caller passes
	// no explicit budget.
	FinalizeBudget time.Duration

	// LodUpdatePeriod is the stagger period, in frames, for per-chunk
	// LOD re-evaluation.
	LodUpdatePeriod int
}

// Scheduler owns every LoadedChunk and the height cache.
type Scheduler struct {
	cfg      Config
	layout   Layout
	builder  *terrain.Builder
	cache    *HeightCache
	pool     *task.Pool
	backend  render.Backend
	parent   render.Handle
	selector *LodSelector

	chunks map[ChunkID]*LoadedChunk
	// target is the id set computed on the last zone transition. Removed
	// ids still in it are revived on the sweep, so a chunk that died
	// mid-unload comes back without waiting for another transition.
	target map[ChunkID]struct{}
	// order preserves insertion order for the time-sliced pass; the
	// cursor rotates the starting point so a tight budget cannot starve
	// late entries forever.
	order  []ChunkID
	cursor int

	frame       uint64
	nextLodSlot int
	viewerChunk ChunkID
	hasViewer   bool
	lastViewer  mgl32.Vec3

	log *zap.Logger
}

// New wires a scheduler from its collaborators. parent is the scene object
// all chunk objects are created under. Config violations panic: they are
// configuration bugs, not runtime conditions.
func New(cfg Config, gen *heightfield.Generator, pool *task.Pool, backend render.Backend, parent render.Handle, log *zap.Logger) *Scheduler {
	if len(cfg.StridePerLOD) == 0 || len(cfg.StridePerLOD) != len(cfg.DistancePerLOD) {
		panic(fmt.Sprintf("streaming: LOD tables must be equal non-zero length, got %d strides and %d distances",
			len(cfg.StridePerLOD), len(cfg.DistancePerLOD)))
	}
	if cfg.LodUpdatePeriod <= 0 {
		panic(fmt.Sprintf("streaming: LOD update period must be positive, got %d", cfg.LodUpdatePeriod))
	}
	if log == nil {
		log = zap.NewNop()
	}

	layout := NewLayout(cfg.ChunkSize, cfg.MaxWorldCoordinate)
	builder := terrain.NewBuilder(cfg.ChunkSize, cfg.StridePerLOD[0], heightBufferMargin)
	// Builder panics on misaligned strides up front rather than in a
	// worker task mid-stream.
	for _, stride := range cfg.StridePerLOD[1:] {
		if s := stride / cfg.StridePerLOD[0]; s != float32(int(s)) {
			panic(fmt.Sprintf("streaming: stride %g is not a multiple of base stride %g", stride, cfg.StridePerLOD[0]))
		}
	}

	return &Scheduler{
		cfg:      cfg,
		layout:   layout,
		builder:  builder,
		cache:    NewHeightCache(layout, gen, pool, cfg.StridePerLOD[0], builder.SamplesPerRow(), heightBufferMargin, log.Named("cache")),
		pool:     pool,
		backend:  backend,
		parent:   parent,
		selector: NewLodSelector(cfg.DistancePerLOD),
		chunks:   make(map[ChunkID]*LoadedChunk),
		log:      log,
	}
}

// Layout exposes the world/chunk coordinate mapping.
func (s *Scheduler) Layout() Layout { return s.layout }

// Cache exposes the height cache, mainly for invariant checks in tests.
func (s *Scheduler) Cache() *HeightCache { return s.cache }

// Len returns the number of resident chunks.
func (s *Scheduler) Len() int { return len(s.chunks) }

// Chunk returns the resident entry for id, or nil.
func (s *Scheduler) Chunk(id ChunkID) *LoadedChunk { return s.chunks[id] }

// Tick runs one frame of streaming work: target-set recomputation on zone
// transition, one time-sliced service pass bounded by budget (<= 0 uses
// the configured default), and the staggered LOD pass.
func (s *Scheduler) Tick(viewer mgl32.Vec3, budget time.Duration) {
	s.frame++
	s.lastViewer = viewer
	if budget <= 0 {
		budget = s.cfg.FinalizeBudget
	}

	vid := s.layout.IDOfClamped(viewer.X(), viewer.Z())
	if !s.hasViewer || vid != s.viewerChunk {
		s.viewerChunk = vid
		s.hasViewer = true
		s.retarget(viewer)
	}

	s.servicePass(budget)
	s.lodPass(viewer)
}

// Close releases every resident chunk unconditionally. Pending task results
// are abandoned to the pool; callers close the pool afterwards to drain.
func (s *Scheduler) Close() {
	for _, c := range s.chunks {
		if c.state == StateFinalized {
			s.destroyRenderObjects(c)
		}
		if c.buffersHeld {
			// In-flight tasks still reference the buffers' backing
			// arrays; the cache entries themselves can go.
			s.releaseBuffers(c)
		}
	}
	s.chunks = make(map[ChunkID]*LoadedChunk)
	s.target = nil
	s.order = nil
	s.cursor = 0
}

// retarget recomputes the target chunk-id set: every chunk whose
// chunk-aligned bounding box intersects the square of half-width
// maxLODDistance + ChunkSize centered on the viewer, intersected with the
// world grid. Runs only on zone transitions, not every frame.
func (s *Scheduler) retarget(viewer mgl32.Vec3) {
	maxDist := s.cfg.DistancePerLOD[len(s.cfg.DistancePerLOD)-1]
	half := maxDist + s.cfg.ChunkSize

	minGX := s.clampTargetGrid(s.layout.gridCoord(viewer.X() - half))
	maxGX := s.clampTargetGrid(s.layout.gridCoord(viewer.X() + half))
	minGZ := s.clampTargetGrid(s.layout.gridCoord(viewer.Z() - half))
	maxGZ := s.clampTargetGrid(s.layout.gridCoord(viewer.Z() + half))

	target := make(map[ChunkID]struct{}, (maxGX-minGX+1)*(maxGZ-minGZ+1))
	added := 0
	for gz := minGZ; gz <= maxGZ; gz++ {
		for gx := minGX; gx <= maxGX; gx++ {
			id := s.layout.idOfGrid(gx, gz)
			target[id] = struct{}{}
			if c, ok := s.chunks[id]; ok {
				// Rescue entries re-entering the target set before
				// their unload was serviced. Unloading is past the
				// point of no return; it finishes dying and is
				// revived by the sweep.
				if c.unload && c.state != StateUnloading {
					c.unload = false
				}
				continue
			}
			c := &LoadedChunk{
				id:        id,
				state:     StatePending,
				activeLod: -1,
				lodSlot:   s.nextLodSlot,
			}
			s.nextLodSlot = (s.nextLodSlot + 1) % s.cfg.LodUpdatePeriod
			s.chunks[id] = c
			s.order = append(s.order, id)
			added++
		}
	}

	flagged := 0
	for id, c := range s.chunks {
		if _, ok := target[id]; !ok && !c.unload {
			c.unload = true
			flagged++
		}
	}
	s.target = target

	s.log.Debug("zone transition",
		zap.Int("viewer_chunk", int(s.viewerChunk)),
		zap.Int("target", len(target)),
		zap.Int("added", added),
		zap.Int("flagged_unload", flagged),
	)
}

// clampTargetGrid keeps target chunks one ring in from the world edge so
// that every resident chunk has a full 3x3 height neighborhood on the grid.
func (s *Scheduler) clampTargetGrid(g int) int {
	if g < 1 {
		return 1
	}
	if g > s.layout.ChunksPerRow-2 {
		return s.layout.ChunksPerRow - 2
	}
	return g
}

// servicePass advances each resident chunk by at most one state transition,
// stopping once the wall-clock budget is spent. Remaining chunks wait for
// later frames.
func (s *Scheduler) servicePass(budget time.Duration) {
	if len(s.order) == 0 {
		return
	}
	start := time.Now()

	n := len(s.order)
	if s.cursor >= n {
		s.cursor = 0
	}
	visited := 0
	for i := s.cursor; visited < n; i, visited = i+1, visited+1 {
		if i >= n {
			i = 0
		}
		c, ok := s.chunks[s.order[i]]
		if !ok || c.state == StateRemoved {
			continue
		}
		s.advance(c)
		if c.state == StateRemoved {
			delete(s.chunks, c.id)
			s.reviveIfTargeted(c.id)
		}
		if time.Since(start) > budget {
			s.cursor = i + 1
			break
		}
	}
	if visited >= n {
		s.cursor = 0
	}

	// Compact removed ids out of the iteration order.
	live := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.chunks[id]; ok {
			live = append(live, id)
		}
	}
	if len(live) != len(s.order) {
		s.cursor = 0
	}
	s.order = live
}

// reviveIfTargeted re-inserts a swept id as a fresh Pending chunk when the
// current target set still wants it. This covers an Unloading chunk whose id
// re-entered the target set: it finishes dying, then comes straight back
// even if the viewer never crosses another zone boundary.
func (s *Scheduler) reviveIfTargeted(id ChunkID) {
	if _, want := s.target[id]; !want {
		return
	}
	s.chunks[id] = &LoadedChunk{
		id:        id,
		state:     StatePending,
		activeLod: -1,
		lodSlot:   s.nextLodSlot,
	}
	s.nextLodSlot = (s.nextLodSlot + 1) % s.cfg.LodUpdatePeriod
	s.log.Debug("chunk revived", zap.Int("chunk", int(id)))
}

// advance performs at most one state transition for c.
func (s *Scheduler) advance(c *LoadedChunk) {
	switch c.state {
	case StatePending:
		if c.unload {
			// Fast path: nothing was issued, nothing is held.
			c.state = StateRemoved
			return
		}
		s.startGeneration(c)

	case StateGenerating:
		if c.unload {
			c.state = StateUnloading
			return
		}
		if c.buildTasksReady() {
			s.finalize(c)
		}

	case StateUnloading:
		// In-flight tasks always run to completion; only their results
		// are discarded. Render objects were never created here.
		if c.buildTasksReady() {
			c.builds = nil
			s.releaseBuffers(c)
			c.state = StateRemoved
		}

	case StateFinalized:
		if c.unload {
			s.destroyRenderObjects(c)
			s.releaseBuffers(c)
			c.state = StateRemoved
		}
	}
}

// startGeneration acquires the 3x3 height neighborhood and spawns the
// per-LOD build pipelines. Mesh tasks depend on all nine generation tasks;
// each normals task depends on its mesh task.
func (s *Scheduler) startGeneration(c *LoadedChunk) {
	heightTasks := make([]*task.Task, 9)
	var data [9][]float32
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			slot := (dz+1)*3 + (dx + 1)
			hb := s.cache.Acquire(s.layout.Shift(c.id, dx, dz))
			c.buffers[slot] = hb
			heightTasks[slot] = hb.Task()
			data[slot] = hb.Data()
		}
	}
	c.buffersHeld = true
	heightsReady := task.Combine(heightTasks...)

	c.builds = make([]*lodBuild, len(s.cfg.StridePerLOD))
	for k, stride := range s.cfg.StridePerLOD {
		lb := &lodBuild{}
		stride := stride
		lb.meshTask = s.pool.SpawnAfter(func() {
			nb := terrain.NewNeighborhood(data, s.builder.CellsPerEdge(), s.builder.Margin())
			lb.build = s.builder.BuildMesh(nb, stride)
		}, heightsReady)
		lb.normalsTask = s.pool.SpawnAfter(func() {
			s.builder.ComputeNormals(lb.build)
		}, lb.meshTask)
		c.builds[k] = lb
	}

	c.state = StateGenerating
	s.log.Debug("generation started", zap.Int("chunk", int(c.id)))
}

// finalize turns completed build results into render objects and drops the
// transient build buffers. This is the expensive per-chunk step the frame
// budget exists for.
func (s *Scheduler) finalize(c *LoadedChunk) {
	originX, originZ := s.layout.OriginOf(c.id)
	transform := mgl32.Translate3D(originX, 0, originZ)

	c.lods = make([]LodInfo, len(c.builds))
	for k, lb := range c.builds {
		mesh, border := s.builder.Finalize(lb.build)

		obj := s.backend.CreateObject(s.parent, transform)
		s.backend.AttachMesh(obj, mesh.Positions, mesh.UVs, mesh.Normals, mesh.Indices)
		s.backend.SetVisible(obj, false)

		skirt := terrain.BuildSkirt(border, s.cfg.StridePerLOD[k]*skirtDepthFactor)
		sk := s.backend.CreateObject(obj, mgl32.Ident4())
		s.backend.AttachMesh(sk, skirt.Positions, skirt.UVs, skirt.Normals, skirt.Indices)
		s.backend.SetVisible(sk, false)

		c.lods[k] = LodInfo{Object: obj, Skirt: sk, Border: border}
	}
	c.builds = nil
	c.state = StateFinalized

	// Make the chunk visible at the right LOD immediately instead of
	// waiting for its stagger slot.
	s.applyLod(c, s.selectLod(c, s.lastViewer))
	s.log.Debug("chunk finalized", zap.Int("chunk", int(c.id)), zap.Int("lod", c.activeLod))
}

func (s *Scheduler) destroyRenderObjects(c *LoadedChunk) {
	for _, li := range c.lods {
		s.backend.Destroy(li.Skirt)
		s.backend.Destroy(li.Object)
	}
	c.lods = nil
	c.activeLod = -1
}

func (s *Scheduler) releaseBuffers(c *LoadedChunk) {
	if !c.buffersHeld {
		return
	}
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			s.cache.Release(s.layout.Shift(c.id, dx, dz))
		}
	}
	c.buffers = [9]*HeightBuffer{}
	c.buffersHeld = false
}

// lodPass re-evaluates LOD for finalized chunks whose stagger slot matches
// the current frame.
func (s *Scheduler) lodPass(viewer mgl32.Vec3) {
	slot := int(s.frame % uint64(s.cfg.LodUpdatePeriod))
	for _, c := range s.chunks {
		if c.state != StateFinalized || c.lodSlot != slot {
			continue
		}
		s.applyLod(c, s.selectLod(c, viewer))
	}
}

func (s *Scheduler) selectLod(c *LoadedChunk, viewer mgl32.Vec3) int {
	center := s.layout.CenterOf(c.id)
	d := viewer.Sub(center)
	return s.selector.Select(d.Dot(d), c.activeLod)
}

// applyLod switches visibility to the given LOD. Only actual changes touch
// the backend; a stable LOD costs nothing per frame.
func (s *Scheduler) applyLod(c *LoadedChunk, lod int) {
	if lod == c.activeLod {
		return
	}
	if c.activeLod >= 0 {
		s.backend.SetVisible(c.lods[c.activeLod].Object, false)
		s.backend.SetVisible(c.lods[c.activeLod].Skirt, false)
	}
	if lod >= 0 {
		s.backend.SetVisible(c.lods[lod].Object, true)
		s.backend.SetVisible(c.lods[lod].Skirt, true)
	}
	c.activeLod = lod
}
