package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navmodel/internal/navmodel"
)

func recordedFrame(v float32) []float32 {
	f := make([]float32, navmodel.OutputSize)
	for i := range f {
		f[i] = v
	}
	return f
}

func writeRecording(t *testing.T, frames ...[]float32) string {
	t.Helper()
	data, err := Encode(frames...)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "navmodel_fixture.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDecode_RoundTrip(t *testing.T) {
	data, err := Encode(recordedFrame(1.5), recordedFrame(-2))
	require.NoError(t, err)
	assert.Len(t, data, 2*navmodel.OutputSize*4)

	frames, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, float32(1.5), frames[0][0])
	assert.Equal(t, float32(-2), frames[1][navmodel.OutputSize-1])
}

func TestDecode_BadLength(t *testing.T) {
	_, err := Decode(make([]byte, navmodel.OutputSize*4+1))
	assert.Error(t, err)

	_, err = Encode(make([]float32, 3))
	assert.Error(t, err)
}

func TestRunner_CyclesFrames(t *testing.T) {
	path := writeRecording(t, recordedFrame(1), recordedFrame(2))
	out := make([]float32, navmodel.OutputSize)

	r, err := New(path, out, navmodel.DefaultRunnerOptions())
	require.NoError(t, err)
	require.NoError(t, r.AddInput(navmodel.InputName, make([]float32, 4)))

	for _, want := range []float32{1, 2, 1} {
		require.NoError(t, r.Execute())
		assert.Equal(t, want, out[0])
		assert.Equal(t, want, out[navmodel.OutputSize-1])
	}
	require.NoError(t, r.Close())
}

func TestRunner_MissingRecordingWritesZeros(t *testing.T) {
	out := recordedFrame(9)

	r, err := New(filepath.Join(t.TempDir(), "absent.bin"), out, navmodel.RunnerOptions{})
	require.NoError(t, err)
	require.NoError(t, r.Execute())
	assert.Equal(t, make([]float32, navmodel.OutputSize), out)
}

func TestRunner_Inputs(t *testing.T) {
	r, err := New("", make([]float32, navmodel.OutputSize), navmodel.RunnerOptions{})
	require.NoError(t, err)

	assert.Error(t, r.SetInputBuffer("map", nil), "input must be added first")
	require.NoError(t, r.AddInput("map", nil))
	assert.Error(t, r.AddInput("map", nil))
	assert.NoError(t, r.SetInputBuffer("map", nil))
}

func TestRunner_WrongOutputSize(t *testing.T) {
	_, err := New("", make([]float32, 10), navmodel.RunnerOptions{})
	assert.Error(t, err)
}

func TestExecutorWithFixture(t *testing.T) {
	frame := recordedFrame(0)
	frame[66] = 0.6931472 // ln 2
	path := writeRecording(t, frame)

	e, err := navmodel.NewExecutor(path, navmodel.BackendFixture, navmodel.DefaultRunnerOptions())
	require.NoError(t, err)
	defer e.Close()

	res, _, err := e.Execute(make([]byte, navmodel.NavInputSize))
	require.NoError(t, err)
	ev := navmodel.BuildPacket(res, navmodel.PacketMeta{Valid: true})
	assert.InDelta(t, 2.0, ev.NavModel.Position.XStd[0], 1e-5)
	assert.InDelta(t, 1.0, ev.NavModel.Position.YStd[0], 1e-6)
}
