package source

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegAudioSource extracts the full PCM buffer of a file up front and
// serves sample windows from memory. Speed changes re-derive the effective
// playback buffer through an injected time-stretch function so the numeric
// mapping stays in the clip layer and the DSP stays external.
type FFmpegAudioSource struct {
	mu        sync.Mutex
	path      string
	meta      AudioMetadata
	original  []float64
	effective []float64
	log       zerolog.Logger
}

// FFmpegAudioOptions configures extraction
type FFmpegAudioOptions struct {
	SampleRate int // default 44100
	Channels   int // default 2
	Logger     zerolog.Logger
}

// NewFFmpegAudioSource probes and decodes the file's audio track to PCM
func NewFFmpegAudioSource(path string, opts FFmpegAudioOptions) (*FFmpegAudioSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("media file not found: %s", path)
	}

	rate := opts.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	channels := opts.Channels
	if channels <= 0 {
		channels = 2
	}

	s := &FFmpegAudioSource{
		path: path,
		log:  opts.Logger.With().Str("component", "ffmpeg-audio").Str("path", path).Logger(),
	}

	if err := s.extract(rate, channels); err != nil {
		return nil, err
	}
	return s, nil
}

// Metadata returns the decoded buffer description
func (s *FFmpegAudioSource) Metadata() AudioMetadata {
	return s.meta
}

// Samples returns the effective playback buffer, interleaved by channel
func (s *FFmpegAudioSource) Samples() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effective
}

// Restretch re-derives the playback buffer for a speed ratio. The original
// decode is kept so repeated speed changes never compound. A nil stretch
// falls back to ResampleStretch.
func (s *FFmpegAudioSource) Restretch(ratio float64, stretch TimeStretchFunc) {
	if stretch == nil {
		stretch = ResampleStretch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.effective = stretch(s.original, ratio)
	s.log.Debug().
		Float64("ratio", ratio).
		Int("samples", len(s.effective)).
		Msg("re-derived playback buffer")
}

// Cleanup releases the PCM buffers
func (s *FFmpegAudioSource) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = nil
	s.effective = nil
	return nil
}

func (s *FFmpegAudioSource) extract(rate, channels int) error {
	data, err := ffmpeg.Probe(s.path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", s.path, err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return fmt.Errorf("parse probe output: %w", err)
	}

	hasAudio := false
	for _, st := range out.Streams {
		if st.CodecType == "audio" {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return fmt.Errorf("no audio stream in %s", s.path)
	}

	buf := &bytes.Buffer{}
	err = ffmpeg.Input(s.path).
		Output("pipe:", ffmpeg.KwArgs{
			"format": "f64le",
			"acodec": "pcm_f64le",
			"ar":     rate,
			"ac":     channels,
			"vn":     "",
		}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("extract pcm: %w", err)
	}

	raw := buf.Bytes()
	samples := make([]float64, len(raw)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(raw[i*8:])
		samples[i] = math.Float64frombits(bits)
	}

	s.original = samples
	s.effective = samples
	s.meta = AudioMetadata{
		TotalDurationMs: float64(len(samples)) / float64(rate*channels) * 1000,
		SampleRate:      rate,
		Channels:        channels,
	}

	durationSec, _ := strconv.ParseFloat(out.Format.Duration, 64)
	if durationSec > 0 {
		s.meta.TotalDurationMs = durationSec * 1000
	}

	s.log.Debug().
		Int("samples", len(samples)).
		Int("sample_rate", rate).
		Int("channels", channels).
		Msg("extracted pcm buffer")
	return nil
}
