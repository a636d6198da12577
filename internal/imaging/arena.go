package imaging

import (
	"image"
	"sync"
)

// BufferPool recycles single-channel image buffers between detection ticks.
//
// BufferPool is safe for concurrent use. Buffers are handed out through an
// Arena, which scopes their lifetime to one tick.
type BufferPool struct {
	bytes  sync.Pool
	floats sync.Pool
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// NewArena returns an arena drawing from the pool. The caller must call
// Release, typically with defer, before the tick ends.
func (p *BufferPool) NewArena() *Arena {
	return &Arena{pool: p}
}

func (p *BufferPool) getBytes(n int) []byte {
	if v, ok := p.bytes.Get().(*[]byte); ok && cap(*v) >= n {
		buf := (*v)[:n]
		clear(buf)
		return buf
	}
	return make([]byte, n)
}

func (p *BufferPool) getFloats(n int) []float32 {
	if v, ok := p.floats.Get().(*[]float32); ok && cap(*v) >= n {
		buf := (*v)[:n]
		clear(buf)
		return buf
	}
	return make([]float32, n)
}

// Arena hands out intermediate buffers for a single tick and returns all of
// them to the pool on Release. No buffer obtained from an arena may be used
// after Release.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	pool     *BufferPool
	held     []*image.Gray
	floats   [][]float32
	released bool
}

// Gray returns a zeroed width×height grayscale buffer owned by the arena.
// A nil arena allocates an unpooled buffer.
func (a *Arena) Gray(width, height int) *image.Gray {
	rect := image.Rect(0, 0, width, height)
	if a == nil {
		return image.NewGray(rect)
	}
	if a.released {
		panic("imaging: arena used after Release")
	}
	img := &image.Gray{Pix: a.pool.getBytes(width * height), Stride: width, Rect: rect}
	a.held = append(a.held, img)
	return img
}

// Floats returns a zeroed float32 scratch slice of length n owned by the arena.
func (a *Arena) Floats(n int) []float32 {
	if a == nil {
		return make([]float32, n)
	}
	if a.released {
		panic("imaging: arena used after Release")
	}
	buf := a.pool.getFloats(n)
	a.floats = append(a.floats, buf)
	return buf
}

// Live returns the number of buffers currently held.
func (a *Arena) Live() int {
	return len(a.held) + len(a.floats)
}

// Release returns every held buffer to the pool. It is idempotent.
func (a *Arena) Release() {
	if a == nil || a.released {
		return
	}
	for _, img := range a.held {
		buf := img.Pix
		a.pool.bytes.Put(&buf)
		img.Pix = nil
	}
	for _, f := range a.floats {
		buf := f
		a.pool.floats.Put(&buf)
	}
	a.held = nil
	a.floats = nil
	a.released = true
}
