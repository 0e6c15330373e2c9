package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Cue identifies one of the two feedback sounds played after logging an
// incident.
type Cue string

const (
	CuePositive Cue = "positive"
	CueNegative Cue = "negative"
)

// ParseCue validates a raw cue name.
func ParseCue(raw string) (Cue, error) {
	switch Cue(raw) {
	case CuePositive, CueNegative:
		return Cue(raw), nil
	default:
		return "", fmt.Errorf("unknown cue %q", raw)
	}
}

// Synth renders short WAV chimes. It is an explicitly constructed resource:
// buffers are rendered lazily on first use, memoized, and released by Close.
type Synth struct {
	sampleRate int

	mu     sync.Mutex
	cache  map[Cue][]byte
	closed bool
}

// NewSynth constructs a synth. A non-positive sample rate falls back to
// 22.05 kHz, plenty for a feedback chime.
func NewSynth(sampleRate int) *Synth {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &Synth{
		sampleRate: sampleRate,
		cache:      make(map[Cue][]byte),
	}
}

// Render returns the WAV bytes for the cue, rendering on first use.
func (s *Synth) Render(cue Cue) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("synth is closed")
	}
	if buf, ok := s.cache[cue]; ok {
		return buf, nil
	}

	var samples []float64
	switch cue {
	case CuePositive:
		samples = s.renderPositive()
	case CueNegative:
		samples = s.renderNegative()
	default:
		return nil, fmt.Errorf("unknown cue %q", cue)
	}

	buf, err := encodeWAV(samples, s.sampleRate)
	if err != nil {
		return nil, err
	}
	s.cache[cue] = buf
	return buf, nil
}

// Close releases rendered buffers. Render fails after Close.
func (s *Synth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cache = nil
	return nil
}

// renderPositive is a bright chime: a sine sliding 800→1200 Hz with a long
// decay, plus a quieter 1600 Hz harmonic.
func (s *Synth) renderPositive() []float64 {
	const duration = 1.5
	n := int(duration * float64(s.sampleRate))
	out := make([]float64, n)

	addTone(out, s.sampleRate, toneSpec{
		shape:     shapeSine,
		startFreq: 800, endFreq: 1200, slideDur: 0.1,
		attack: 0.05, peak: 0.3, decay: 1.5,
	})
	addTone(out, s.sampleRate, toneSpec{
		shape:     shapeSine,
		startFreq: 1600, endFreq: 1600, slideDur: 0,
		attack: 0.05, peak: 0.1, decay: 1.0,
	})
	return out
}

// renderNegative is the fail buzz: a sawtooth dropping 150→40 Hz with a
// short decay.
func (s *Synth) renderNegative() []float64 {
	const duration = 0.5
	n := int(duration * float64(s.sampleRate))
	out := make([]float64, n)

	addTone(out, s.sampleRate, toneSpec{
		shape:     shapeSawtooth,
		startFreq: 150, endFreq: 40, slideDur: 0.4,
		attack: 0.05, peak: 0.5, decay: 0.4,
	})
	return out
}

type shape int

const (
	shapeSine shape = iota
	shapeSawtooth
)

type toneSpec struct {
	shape     shape
	startFreq float64
	endFreq   float64
	slideDur  float64
	attack    float64
	peak      float64
	decay     float64
}

func addTone(out []float64, sampleRate int, spec toneSpec) {
	phase := 0.0
	for i := range out {
		t := float64(i) / float64(sampleRate)

		freq := spec.endFreq
		if spec.slideDur > 0 && t < spec.slideDur {
			// Exponential slide between the two frequencies.
			ratio := spec.endFreq / spec.startFreq
			freq = spec.startFreq * math.Pow(ratio, t/spec.slideDur)
		} else if spec.slideDur == 0 {
			freq = spec.startFreq
		}

		phase += 2 * math.Pi * freq / float64(sampleRate)

		var sample float64
		switch spec.shape {
		case shapeSawtooth:
			sample = 2*math.Mod(phase/(2*math.Pi), 1) - 1
		default:
			sample = math.Sin(phase)
		}

		out[i] += sample * envelope(t, spec.attack, spec.peak, spec.decay)
	}
}

// envelope is a linear attack followed by an exponential decay down to near
// silence.
func envelope(t, attack, peak, decay float64) float64 {
	if t < attack {
		return peak * t / attack
	}
	if decay <= 0 {
		return 0
	}
	const floor = 0.01
	progress := (t - attack) / decay
	if progress >= 1 {
		return 0
	}
	return peak * math.Pow(floor/peak, progress)
}

// encodeWAV packs samples into a 16-bit mono PCM WAV container.
func encodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	dataSize := len(samples) * 2
	buf := &bytes.Buffer{}

	buf.WriteString("RIFF")
	if err := binary.Write(buf, binary.LittleEndian, uint32(36+dataSize)); err != nil {
		return nil, fmt.Errorf("encode wav header: %w", err)
	}
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	fmtChunk := struct {
		Size          uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, 1, uint32(sampleRate), uint32(sampleRate * 2), 2, 16}
	if err := binary.Write(buf, binary.LittleEndian, fmtChunk); err != nil {
		return nil, fmt.Errorf("encode wav fmt chunk: %w", err)
	}

	buf.WriteString("data")
	if err := binary.Write(buf, binary.LittleEndian, uint32(dataSize)); err != nil {
		return nil, fmt.Errorf("encode wav data size: %w", err)
	}
	for _, sample := range samples {
		clamped := math.Max(-1, math.Min(1, sample))
		if err := binary.Write(buf, binary.LittleEndian, int16(clamped*math.MaxInt16)); err != nil {
			return nil, fmt.Errorf("encode wav sample: %w", err)
		}
	}
	return buf.Bytes(), nil
}
