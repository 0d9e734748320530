// Package app wires the NES core (internal/nes), a cartridge, a controller
// adapter, an optional movie player, and a graphics backend into a runnable
// frame loop.
package app

import "github.com/cordite/nespipe/internal/graphics"

// Config is the small, flag-driven configuration the CLI builds. There is no
// file-based config layer here: window scale and backend choice are the only
// knobs a core-focused rewrite needs, and both come from command-line flags.
type Config struct {
	ROMPath   string
	MoviePath string
	Headless  bool
	Scale     int
	Backend   graphics.BackendType
}

// DefaultScale is used when a caller leaves Config.Scale at its zero value.
const DefaultScale = 3

func (c Config) scale() int {
	if c.Scale <= 0 {
		return DefaultScale
	}
	return c.Scale
}
