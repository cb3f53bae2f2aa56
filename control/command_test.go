package control

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dewarp/camera"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"mode fisheye", Command{Op: OpMode, Kind: camera.KindFisheye}},
		{"MODE opencv undistort", Command{Op: OpMode, Kind: camera.KindUndistort}},
		{"mode omnidirectional", Command{Op: OpMode, Kind: camera.KindOmnidir}},
		{"set k1 0.25", Command{Op: OpSet, Param: "k1", Value: 0.25}},
		{"set distort_radial_1 -1e-1", Command{Op: OpSet, Param: "distort_radial_1", Value: -0.1}},
		{"nudge zoom +5", Command{Op: OpNudge, Param: "zoom", Steps: 5}},
		{"nudge xi -2", Command{Op: OpNudge, Param: "xi", Steps: -2}},
		{"reset", Command{Op: OpReset}},
		{"show", Command{Op: OpShow}},
		{"snapshot", Command{Op: OpSnapshot}},
		{"snapshot out.png", Command{Op: OpSnapshot, Path: "out.png"}},
		{"  quit  ", Command{Op: OpQuit}},
		{"exit", Command{Op: OpQuit}},
		{"help", Command{Op: OpHelp}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"jump",
		"mode",
		"mode barrel",
		"set k1",
		"set k1 abc",
		"nudge zoom 1.5",
		"snapshot a b",
		"reset now",
	} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrBadCommand, "line %q", line)
	}
}

func TestApply(t *testing.T) {
	c := New()

	changed, err := c.Apply(Command{Op: OpMode, Kind: camera.KindOmnidir})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, camera.KindOmnidir, c.Mode())

	changed, err = c.Apply(Command{Op: OpSet, Param: "xi", Value: 0.9})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.Apply(Command{Op: OpNudge, Param: "xi", Steps: 10})
	require.NoError(t, err)
	assert.True(t, changed)
	v, _ := c.Value(ParamXi)
	assert.InDelta(t, 1.0, v, 1e-9)

	changed, err = c.Apply(Command{Op: OpReset})
	require.NoError(t, err)
	assert.True(t, changed)
	v, _ = c.Value(ParamXi)
	assert.Equal(t, 1.2, v)

	changed, err = c.Apply(Command{Op: OpShow})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = c.Apply(Command{Op: OpSet, Param: "radial_1", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownParam)

	_, err = c.Apply(Command{Op: OpInvalid})
	assert.ErrorIs(t, err, ErrBadCommand)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "snapshot", OpSnapshot.String())
	assert.Equal(t, "invalid", Op(99).String())
}

func TestConsole(t *testing.T) {
	in := strings.NewReader("mode fisheye\n\n# comment\nset k2 0.1\nbogus\n")
	con := NewConsole(in)

	var got []Command
	deadline := time.After(2 * time.Second)
	for len(got) < 3 {
		if cmd, ok := con.Poll(); ok {
			got = append(got, cmd)
			continue
		}
		select {
		case <-deadline:
			t.Fatalf("timed out with %d commands", len(got))
		case <-time.After(time.Millisecond):
		}
	}

	assert.Equal(t, Command{Op: OpMode, Kind: camera.KindFisheye}, got[0])
	assert.Equal(t, Command{Op: OpSet, Param: "k2", Value: 0.1}, got[1])
	assert.Equal(t, OpInvalid, got[2].Op)
	assert.ErrorIs(t, got[2].Err, ErrBadCommand)
}
