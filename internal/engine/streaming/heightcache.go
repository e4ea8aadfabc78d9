package streaming

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/heightfield"
	"github.com/Faultbox/terrastream/internal/engine/task"
)

// HeightBuffer is one chunk's shared height data: the chunk footprint plus
// a fixed border margin, sampled at the densest LOD spacing. The buffer is
// written exactly once, by its generation task; any reader must order
// itself after that task. Up to nine chunks hold a reference at a time.
type HeightBuffer struct {
	id   ChunkID
	data []float32
	task *task.Task
	refs int
}

// Task returns the generation task that fills the buffer.
func (b *HeightBuffer) Task() *task.Task { return b.task }

// Data returns the raw sample slice. Immutable once Task has completed.
func (b *HeightBuffer) Data() []float32 { return b.data }

// HeightCache is the ref-counted store of height buffers shared across
// neighboring chunks. It is confined to the scheduler goroutine: ref counts
// and map mutations happen serially there, so no locking is needed, while
// the buffers themselves are read concurrently by workers after their
// generation tasks complete.
type HeightCache struct {
	layout  Layout
	gen     *heightfield.Generator
	pool    *task.Pool
	spacing float32
	rowLen  int
	margin  int

	entries map[ChunkID]*HeightBuffer
	log     *zap.Logger
}

// NewHeightCache creates an empty cache. rowLen is the per-axis sample
// count of one buffer (footprint plus margins); spacing the world distance
// between samples.
func NewHeightCache(layout Layout, gen *heightfield.Generator, pool *task.Pool, spacing float32, rowLen, margin int, log *zap.Logger) *HeightCache {
	return &HeightCache{
		layout:  layout,
		gen:     gen,
		pool:    pool,
		spacing: spacing,
		rowLen:  rowLen,
		margin:  margin,
		entries: make(map[ChunkID]*HeightBuffer),
		log:     log,
	}
}

// Acquire returns the height buffer for id, creating it and scheduling its
// generation task on first request. Each call increments the ref count and
// must be paired with exactly one Release. A buffer is never generated
// twice concurrently: later acquirers share the original task.
func (c *HeightCache) Acquire(id ChunkID) *HeightBuffer {
	if e, ok := c.entries[id]; ok {
		e.refs++
		return e
	}

	e := &HeightBuffer{
		id:   id,
		data: make([]float32, c.rowLen*c.rowLen),
		refs: 1,
	}
	originX, originZ := c.layout.OriginOf(id)
	originX -= float32(c.margin) * c.spacing
	originZ -= float32(c.margin) * c.spacing

	e.task = c.pool.Spawn(func() {
		c.gen.FillGrid(e.data, originX, originZ, c.spacing, c.rowLen, c.rowLen)
	})
	c.entries[id] = e
	c.log.Debug("height buffer created", zap.Int("chunk", int(id)))
	return e
}

// Release drops one reference. The buffer is freed and removed from the
// cache exactly when the count reaches zero. Releasing an id that is not
// resident, or driving the count negative, is a resource-accounting bug.
func (c *HeightCache) Release(id ChunkID) {
	e, ok := c.entries[id]
	if !ok {
		panic(fmt.Sprintf("streaming: release of height buffer %d which is not cached", id))
	}
	e.refs--
	if e.refs < 0 {
		panic(fmt.Sprintf("streaming: height buffer %d ref count went negative", id))
	}
	if e.refs == 0 {
		delete(c.entries, id)
		c.log.Debug("height buffer freed", zap.Int("chunk", int(id)))
	}
}

// Refs returns the current reference count for id, 0 if not resident.
func (c *HeightCache) Refs(id ChunkID) int {
	if e, ok := c.entries[id]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of resident buffers.
func (c *HeightCache) Len() int { return len(c.entries) }
