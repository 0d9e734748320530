package app

import (
	"sync"

	"github.com/cordite/nespipe/internal/graphics"
	"github.com/cordite/nespipe/internal/input"
)

// ioAdapter satisfies nes.IO by composing a pixel sink and a controller
// pair: graphics supplies SetPixel, input supplies the controller methods.
//
// The PPU writes pixels into the machine's goroutine as it ticks; the frame
// the graphics backend presents is handed off through a mutex-guarded swap
// rather than a channel, since the core always runs on the caller's
// goroutine and Ebitengine's own Update/Draw callbacks are already
// serialized by the engine. The mutex exists for the one case that isn't
// already serial: a headless caller rendering from a different goroutine
// than the one stepping frames.
type ioAdapter struct {
	*input.Pair

	mu      sync.Mutex
	writing graphics.FrameBuffer
	ready   [256 * 240]uint32
}

func newIOAdapter() *ioAdapter {
	return &ioAdapter{Pair: input.NewPair()}
}

func (io *ioAdapter) SetPixel(row, col uint16, r, g, b uint8) {
	io.mu.Lock()
	defer io.mu.Unlock()
	io.writing.SetPixel(row, col, r, g, b)
}

// latestFrame swaps the frame just finished into place and returns it.
func (io *ioAdapter) latestFrame() [256 * 240]uint32 {
	io.mu.Lock()
	defer io.mu.Unlock()
	io.ready = io.writing.Pixels()
	return io.ready
}
