package movie

import (
	"strings"
	"testing"

	"github.com/cordite/nespipe/internal/input"
	"github.com/stretchr/testify/require"
)

func header() string {
	return strings.Join([]string{
		"version 3",
		"emuVersion 22",
		"rerecordCount 0",
		"palFlag 0",
		"NewPPU 0",
		"fds 0",
		"fourscore 0",
		"port0 1",
		"port1 0",
		"port2 0",
		"binary 0",
		"romFilename smb.nes",
		"guid 452DE2C3-EF43-2FA9-77AC-0677FC51543B",
		"romChecksum deadbeef",
	}, "\n")
}

func TestParseHeaderAndSingleFrame(t *testing.T) {
	src := header() + "\n|0|A...U..R||0|\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, 3, m.Version)
	require.Equal(t, 22, m.EmuVersion)
	require.Equal(t, "smb.nes", m.ROMFilename)
	require.Len(t, m.Frames, 1)
	require.Equal(t, input.ButtonA|input.ButtonUp|input.ButtonRight, m.Frames[0].Port0)
	require.Equal(t, input.Buttons(0), m.Frames[0].Port1)
}

func TestParseMultipleFramesInOrder(t *testing.T) {
	src := header() + "\n" + strings.Join([]string{
		"|0|A.......||0|",
		"|0|.B......||0|",
		"|0|........||0|",
	}, "\n") + "\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Frames, 3)
	require.Equal(t, input.ButtonA, m.Frames[0].Port0)
	require.Equal(t, input.ButtonB, m.Frames[1].Port0)
	require.Equal(t, input.Buttons(0), m.Frames[2].Port0)
}

func TestLengthTruncatesTrailingData(t *testing.T) {
	src := strings.Replace(header(), "port2 0", "port2 0\nlength 1", 1) +
		"\n|0|A.......||0|\n|0|.B......||0|\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Frames, 1)
}

func TestMissingRequiredKeyReturnsParseError(t *testing.T) {
	src := strings.Replace(header(), "guid 452DE2C3-EF43-2FA9-77AC-0677FC51543B\n", "", 1) +
		"\n|0|A.......||0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "guid", pe.Key)
}

func TestNonIntegerRequiredFieldReturnsParseError(t *testing.T) {
	src := strings.Replace(header(), "version 3", "version nope", 1) +
		"\n|0|A.......||0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "version", pe.Key)
}

func TestDuplicateHeaderKeyIsRejected(t *testing.T) {
	src := header() + "\nversion 4\n|0|A.......||0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestBinaryFormatIsRejected(t *testing.T) {
	src := strings.Replace(header(), "binary 0", "binary 1", 1) +
		"\n|0|A.......||0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestMalformedInputLineIsRejected(t *testing.T) {
	src := header() + "\n|0|A.......|0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestInputGivenForDisconnectedPortIsRejected(t *testing.T) {
	src := header() + "\n|0|A.......|XXXXXXXX|0|\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestNoInputLinesIsRejected(t *testing.T) {
	_, err := Parse(strings.NewReader(header()))
	require.Error(t, err)
}
