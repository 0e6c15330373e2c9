package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/pkg/audio"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// CueHandler serves the pre-rendered feedback chimes the client plays after
// logging an incident.
type CueHandler struct {
	synth *audio.Synth
}

// NewCueHandler constructs a new CueHandler.
func NewCueHandler(synth *audio.Synth) *CueHandler {
	return &CueHandler{synth: synth}
}

// Get godoc
// @Summary Fetch a feedback chime as WAV audio
// @Tags Cues
// @Produce audio/wav
// @Param kind path string true "Cue kind (positive or negative)"
// @Success 200
// @Router /cues/{kind} [get]
func (h *CueHandler) Get(c *gin.Context) {
	cue, err := audio.ParseCue(c.Param("kind"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown cue"))
		return
	}
	wav, err := h.synth.Render(cue)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render cue"))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "audio/wav", wav)
}
