package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesValidWAV(t *testing.T) {
	synth := NewSynth(0)
	defer synth.Close() //nolint:errcheck

	for _, cue := range []Cue{CuePositive, CueNegative} {
		buf, err := synth.Render(cue)
		require.NoError(t, err, "cue %s", cue)
		require.Greater(t, len(buf), 44, "cue %s", cue)
		assert.Equal(t, "RIFF", string(buf[:4]))
		assert.Equal(t, "WAVE", string(buf[8:12]))
	}
}

func TestRenderMemoizesBuffers(t *testing.T) {
	synth := NewSynth(22050)
	defer synth.Close() //nolint:errcheck

	first, err := synth.Render(CuePositive)
	require.NoError(t, err)
	second, err := synth.Render(CuePositive)
	require.NoError(t, err)
	assert.Equal(t, &first[0], &second[0], "expected the cached buffer back")
}

func TestRenderAfterCloseFails(t *testing.T) {
	synth := NewSynth(22050)
	require.NoError(t, synth.Close())

	_, err := synth.Render(CueNegative)
	assert.Error(t, err)
}

func TestParseCue(t *testing.T) {
	cue, err := ParseCue("positive")
	require.NoError(t, err)
	assert.Equal(t, CuePositive, cue)

	_, err = ParseCue("loud")
	assert.Error(t, err)
}
