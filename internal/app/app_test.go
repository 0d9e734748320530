package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeNROM(t *testing.T) string {
	t.Helper()
	var buf []byte
	buf = append(buf, 0x4E, 0x45, 0x53, 0x1A, 1, 1, 0, 0)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, make([]byte, 16384)...)
	buf = append(buf, make([]byte, 8192)...)

	path := filepath.Join(t.TempDir(), "test.nes")
	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

func writeMovie(t *testing.T, frames int) string {
	t.Helper()
	header := "version 3\nemuVersion 22\nrerecordCount 0\npalFlag 0\nromFilename test\nromChecksum 0\nguid g\nport0 1\nport1 0\nport2 0\n"
	body := ""
	for i := 0; i < frames; i++ {
		body += "|0|A.......||0|\n"
	}
	path := filepath.Join(t.TempDir(), "test.fm2")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0644))
	return path
}

func TestNewLoadsCartridgeAndRunsHeadlessFrame(t *testing.T) {
	romPath := writeNROM(t)

	a, err := New(Config{ROMPath: romPath, Headless: true})
	require.NoError(t, err)
	defer a.Cleanup()

	require.NoError(t, a.runOneFrame())
}

func TestNewRejectsMissingROM(t *testing.T) {
	_, err := New(Config{ROMPath: "/nonexistent/path.nes", Headless: true})
	require.Error(t, err)
}

func TestMovieDrivenRunStopsWhenMovieIsExhausted(t *testing.T) {
	romPath := writeNROM(t)
	moviePath := writeMovie(t, 3)

	a, err := New(Config{ROMPath: romPath, MoviePath: moviePath, Headless: true})
	require.NoError(t, err)
	defer a.Cleanup()

	require.NoError(t, a.Run())
	require.False(t, a.IsRunning())
	require.Equal(t, 3, a.mvFrame)
}

func TestMovieFrameDrivesControllerPort1(t *testing.T) {
	romPath := writeNROM(t)
	moviePath := writeMovie(t, 1)

	a, err := New(Config{ROMPath: romPath, MoviePath: moviePath, Headless: true})
	require.NoError(t, err)
	defer a.Cleanup()

	require.True(t, a.feedMovieFrame())
	a.io.Pair.ControllerLatchChange(true)
	a.io.Pair.ControllerLatchChange(false)
	require.Equal(t, uint8(1), a.io.Pair.Port1.Read())
}
