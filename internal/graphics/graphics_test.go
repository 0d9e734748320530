package graphics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateBackendDefaultsToEbitengineForUnknownType(t *testing.T) {
	b, err := CreateBackend(BackendType("nonsense"))
	require.NoError(t, err)
	require.Equal(t, "Ebitengine", b.GetName())
}

func TestHeadlessBackendCreatesRunningWindow(t *testing.T) {
	b := NewHeadlessBackend()
	require.NoError(t, b.Initialize(Config{Headless: true}))
	require.True(t, b.IsHeadless())

	w, err := b.CreateWindow("test", 256, 240)
	require.NoError(t, err)
	require.False(t, w.ShouldClose())
	require.Empty(t, w.PollEvents())
}

func TestHeadlessBackendRequiresInitializeBeforeCreateWindow(t *testing.T) {
	b := NewHeadlessBackend()
	_, err := b.CreateWindow("test", 256, 240)
	require.Error(t, err)
}

func TestTerminalBackendReportsNotHeadless(t *testing.T) {
	b := NewTerminalBackend()
	require.NoError(t, b.Initialize(Config{}))
	require.False(t, b.IsHeadless())
}

func TestFrameBufferPacksPixelsRowMajor(t *testing.T) {
	var fb FrameBuffer
	fb.SetPixel(1, 2, 0x11, 0x22, 0x33)

	pixels := fb.Pixels()
	require.Equal(t, uint32(0x112233), pixels[1*256+2])
}

func TestFrameBufferDropsOutOfRangeCoordinates(t *testing.T) {
	var fb FrameBuffer
	require.NotPanics(t, func() { fb.SetPixel(240, 0, 1, 2, 3) })
	require.NotPanics(t, func() { fb.SetPixel(0, 256, 1, 2, 3) })
}

func TestVideoProcessorIsNoOpAtDefaults(t *testing.T) {
	vp := NewVideoProcessor(1.0, 1.0, 1.0)
	in := []uint32{0x112233, 0xAABBCC}
	out := vp.ProcessFrame(in)
	require.Equal(t, in, out)
}

func TestVideoProcessorBrightnessDarkensPixels(t *testing.T) {
	vp := NewVideoProcessor(0.5, 1.0, 1.0)
	out := vp.ProcessFrame([]uint32{0x808080})
	r := (out[0] >> 16) & 0xFF
	require.Less(t, r, uint32(0x80))
}
