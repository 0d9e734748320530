package app

import (
	"fmt"
	"os"

	"github.com/cordite/nespipe/internal/cartridge"
	"github.com/cordite/nespipe/internal/graphics"
	"github.com/cordite/nespipe/internal/input"
	"github.com/cordite/nespipe/internal/movie"
	"github.com/cordite/nespipe/internal/nes"
)

// Application wires a Machine, a cartridge, an input pair, an optional movie
// player and a graphics backend into a runnable frame loop.
type Application struct {
	cfg Config

	io      *ioAdapter
	machine *nes.Machine

	backend graphics.Backend
	window  graphics.Window
	video   *graphics.VideoProcessor

	mv      *movie.Movie
	mvFrame int

	held    input.Buttons
	running bool
}

// New loads the configured ROM, wires the machine to a graphics backend, and
// returns a ready-to-run Application. If cfg.MoviePath is set, the movie
// drives both controller ports instead of the window's input events.
func New(cfg Config) (*Application, error) {
	cart, err := loadCartridge(cfg.ROMPath)
	if err != nil {
		return nil, fmt.Errorf("app: loading ROM: %w", err)
	}

	app := &Application{cfg: cfg, io: newIOAdapter()}
	app.machine = nes.New(app.io)
	app.machine.InsertCartridge(cart)
	app.machine.Reset()

	if cfg.MoviePath != "" {
		mv, err := loadMovie(cfg.MoviePath)
		if err != nil {
			return nil, fmt.Errorf("app: loading movie: %w", err)
		}
		app.mv = mv
		if mv.Port1Device == movie.DeviceGamepad {
			app.io.Pair.Port2 = input.New()
		}
	}

	if err := app.initializeGraphics(); err != nil {
		return nil, fmt.Errorf("app: initializing graphics: %w", err)
	}

	return app, nil
}

func loadCartridge(path string) (cartridge.Mapper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return cartridge.New(f)
}

func loadMovie(path string) (*movie.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return movie.Parse(f)
}

func (app *Application) initializeGraphics() error {
	backendType := app.cfg.Backend
	if app.cfg.Headless {
		backendType = graphics.BackendHeadless
	}

	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}
	app.backend = backend

	graphicsConfig := graphics.Config{
		WindowTitle:  "nespipe",
		WindowWidth:  256 * app.cfg.scale(),
		WindowHeight: 240 * app.cfg.scale(),
		Filter:       "nearest",
		AspectRatio:  "4:3",
		Headless:     app.cfg.Headless,
	}
	if err := backend.Initialize(graphicsConfig); err != nil {
		return err
	}

	if !backend.IsHeadless() {
		window, err := backend.CreateWindow(graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
		if err != nil {
			return err
		}
		app.window = window
	}

	app.video = graphics.NewVideoProcessor(1.0, 1.0, 1.0)
	return nil
}

// Run drives the frame loop until the window closes, the movie runs out, or
// Stop is called. It returns nil on a clean exit.
func (app *Application) Run() error {
	app.running = true

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			return app.runOneFrame()
		})
		return ebitengineWindow.Run()
	}

	for app.running {
		if err := app.runOneFrame(); err != nil {
			return err
		}
		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}
	}
	return nil
}

func (app *Application) runOneFrame() error {
	if !app.running {
		return nil
	}

	if app.mv != nil {
		if !app.feedMovieFrame() {
			app.Stop()
			return nil
		}
	} else {
		app.processWindowInput()
	}

	app.machine.StepFrame()
	return app.render()
}

// feedMovieFrame sets both controller ports from the next recorded movie
// frame, returning false once the movie is exhausted.
func (app *Application) feedMovieFrame() bool {
	if app.mvFrame >= len(app.mv.Frames) {
		return false
	}
	frame := app.mv.Frames[app.mvFrame]
	app.mvFrame++

	app.io.Pair.Port1.SetButtons(frame.Port0)
	if app.io.Pair.Port2 != nil {
		app.io.Pair.Port2.SetButtons(frame.Port1)
	}
	return true
}

var keyToButton = map[graphics.Button]input.Buttons{
	graphics.ButtonA:      input.ButtonA,
	graphics.ButtonB:      input.ButtonB,
	graphics.ButtonSelect: input.ButtonSelect,
	graphics.ButtonStart:  input.ButtonStart,
	graphics.ButtonUp:     input.ButtonUp,
	graphics.ButtonDown:   input.ButtonDown,
	graphics.ButtonLeft:   input.ButtonLeft,
	graphics.ButtonRight:  input.ButtonRight,
}

// processWindowInput applies the window's reported button transitions (press
// and release) onto the accumulated held-button state, since the backend
// only reports changes, not a live snapshot.
func (app *Application) processWindowInput() {
	if app.window == nil {
		return
	}

	changed := false
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return
		case graphics.InputEventTypeButton:
			if b, ok := keyToButton[event.Button]; ok {
				changed = true
				if event.Pressed {
					app.held |= b
				} else {
					app.held &^= b
				}
			}
		}
	}
	if changed {
		app.io.Pair.Port1.SetButtons(app.held)
	}
}

func (app *Application) render() error {
	if app.window == nil {
		return nil
	}

	frame := app.io.latestFrame()
	pixels := app.video.ProcessFrame(frame[:])

	var out [256 * 240]uint32
	copy(out[:], pixels)
	if err := app.window.RenderFrame(out); err != nil {
		return fmt.Errorf("app: rendering frame: %w", err)
	}
	app.window.SwapBuffers()
	return nil
}

// Stop ends the frame loop after the current frame.
func (app *Application) Stop() {
	app.running = false
}

// IsRunning reports whether the frame loop is still active.
func (app *Application) IsRunning() bool {
	return app.running
}

// Cleanup releases the graphics backend and window.
func (app *Application) Cleanup() error {
	var lastErr error
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
		}
	}
	if app.backend != nil {
		if err := app.backend.Cleanup(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
