package streaming

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/heightfield"
	"github.com/Faultbox/terrastream/internal/engine/task"
)

func newTestCache(t *testing.T) (*HeightCache, *task.Pool) {
	t.Helper()
	layout := NewLayout(64, 1024)
	gen := heightfield.New("test", 2048)
	pool := task.NewPool(2)
	t.Cleanup(pool.Close)
	// 8 cells per edge, margin 1
	return NewHeightCache(layout, gen, pool, 8, 11, 1, zap.NewNop()), pool
}

func TestAcquireCreatesOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	id := ChunkID(100)

	a := cache.Acquire(id)
	b := cache.Acquire(id)

	if a != b {
		t.Fatal("second acquire returned a different buffer")
	}
	if a.Task() != b.Task() {
		t.Fatal("second acquire returned a different generation task")
	}
	if got := cache.Refs(id); got != 2 {
		t.Errorf("refs = %d, want 2", got)
	}
	if cache.Len() != 1 {
		t.Errorf("cache has %d entries, want 1", cache.Len())
	}
}

func TestReleaseFreesAtZero(t *testing.T) {
	cache, _ := newTestCache(t)
	id := ChunkID(7)

	cache.Acquire(id)
	cache.Acquire(id)

	cache.Release(id)
	if cache.Len() != 1 {
		t.Error("buffer freed while references remain")
	}
	cache.Release(id)
	if cache.Len() != 0 {
		t.Error("buffer not freed at ref count zero")
	}
	if cache.Refs(id) != 0 {
		t.Errorf("refs after free = %d, want 0", cache.Refs(id))
	}
}

func TestReleaseUnknownPanics(t *testing.T) {
	cache, _ := newTestCache(t)

	defer func() {
		if recover() == nil {
			t.Error("expected panic releasing an uncached chunk id")
		}
	}()
	cache.Release(ChunkID(3))
}

func TestGenerationFillsBuffer(t *testing.T) {
	cache, _ := newTestCache(t)
	layout := NewLayout(64, 1024)
	gen := heightfield.New("test", 2048)

	id := layout.IDOf(0, 0)
	hb := cache.Acquire(id)
	hb.Task().Join()

	// Buffer origin sits one margin sample before the chunk origin.
	want := gen.Sample(-8, -8)
	if got := hb.Data()[0]; got != want {
		t.Errorf("first sample = %g, want %g", got, want)
	}
	want = gen.Sample(0, 0)
	if got := hb.Data()[1*11+1]; got != want {
		t.Errorf("chunk-origin sample = %g, want %g", got, want)
	}
}

func TestReacquireAfterFreeRegenerates(t *testing.T) {
	cache, _ := newTestCache(t)
	id := ChunkID(42)

	first := cache.Acquire(id)
	cache.Release(id)

	second := cache.Acquire(id)
	if first == second {
		t.Error("acquire after free returned the stale buffer")
	}
	cache.Release(id)
}
