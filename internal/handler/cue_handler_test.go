package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/pkg/audio"
)

func TestCueHandlerServesWAV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	synth := audio.NewSynth(0)
	defer synth.Close() //nolint:errcheck
	handler := NewCueHandler(synth)

	c, w := newGinContext(http.MethodGet, "/api/cues/positive", nil)
	c.Params = gin.Params{{Key: "kind", Value: "positive"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])
}

func TestCueHandlerUnknownKindIs404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	synth := audio.NewSynth(0)
	defer synth.Close() //nolint:errcheck
	handler := NewCueHandler(synth)

	c, w := newGinContext(http.MethodGet, "/api/cues/loud", nil)
	c.Params = gin.Params{{Key: "kind", Value: "loud"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
