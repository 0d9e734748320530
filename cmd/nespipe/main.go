// Command nespipe runs the NES core as a standalone emulator: load a ROM,
// optionally drive it with a recorded FM2 movie, and display it through an
// Ebitengine window (or run headless for CI/automation).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cordite/nespipe/internal/app"
	"github.com/cordite/nespipe/internal/graphics"
	"github.com/cordite/nespipe/internal/version"
)

func main() {
	var (
		moviePath   = flag.String("movie", "", "Path to an FM2 movie file to drive playback")
		headless    = flag.Bool("headless", false, "Run without a display window")
		scale       = flag.Int("scale", app.DefaultScale, "Window scale factor")
		showVersion = flag.Bool("version", false, "Print version information and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintBuildInfo()
		return
	}

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	cfg := app.Config{
		ROMPath:   flag.Arg(0),
		MoviePath: *moviePath,
		Headless:  *headless,
		Scale:     *scale,
		Backend:   graphics.BackendEbitengine,
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer application.Cleanup()

	if err := application.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: nespipe [flags] ROMFILE")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "flags:")
	flag.PrintDefaults()
}
