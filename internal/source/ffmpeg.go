package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/keagan/reelcore/pkg/util"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
		SampleRate   string `json:"sample_rate"`
		Channels     int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Packets []struct {
		PtsTime string `json:"pts_time"`
	} `json:"packets"`
}

// FFmpegSource decodes frames from a media file on demand through ffmpeg,
// keeping a bounded cache of decoded frames. Prefetching runs in the
// background and swaps decoded frames into the cache under the lock, so a
// lower-quality or missing frame stays valid until its replacement lands.
type FFmpegSource struct {
	mu       sync.Mutex
	path     string
	meta     Metadata
	cache    map[int]image.Image
	order    []int
	limit    int
	inflight map[int]struct{}
	log      zerolog.Logger
}

// FFmpegSourceOptions configures probing and caching
type FFmpegSourceOptions struct {
	// CacheSize bounds the decoded-frame cache. Default 64.
	CacheSize int
	// ProbePacketTimes loads real per-frame capture times, enabling
	// timestamp addressing for variable frame rate material.
	ProbePacketTimes bool
	Logger           zerolog.Logger
}

// NewFFmpegSource probes the file and returns a lazy-decoding frame source
func NewFFmpegSource(path string, opts FFmpegSourceOptions) (*FFmpegSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("media file not found: %s", path)
	}

	limit := opts.CacheSize
	if limit <= 0 {
		limit = 64
	}

	s := &FFmpegSource{
		path:     path,
		cache:    make(map[int]image.Image),
		limit:    limit,
		inflight: make(map[int]struct{}),
		log:      opts.Logger.With().Str("component", "ffmpeg-source").Str("path", path).Logger(),
	}

	if err := s.probe(); err != nil {
		return nil, err
	}

	if opts.ProbePacketTimes {
		if err := s.probePacketTimes(); err != nil {
			// Timestamp addressing is an upgrade, not a requirement.
			s.log.Warn().Err(err).Msg("packet timestamp probe failed, using fixed-fps grid")
		}
	}

	return s, nil
}

// Metadata returns the probed source description
func (s *FFmpegSource) Metadata() Metadata {
	return s.meta
}

// GetFrameAtIndex returns the decoded frame, hitting the cache first and
// decoding through ffmpeg otherwise. A positive prefetchHint kicks off
// background decoding of the following frames.
func (s *FFmpegSource) GetFrameAtIndex(ctx context.Context, index, prefetchHint int) (image.Image, error) {
	if index < 0 || index >= s.frameCount() {
		return nil, nil
	}

	s.mu.Lock()
	img, ok := s.cache[index]
	s.mu.Unlock()

	if !ok {
		var err error
		img, err = s.decodeFrame(ctx, index)
		if err != nil {
			return nil, err
		}
		if img != nil {
			s.store(index, img)
		}
	}

	if prefetchHint > 0 {
		s.prefetch(index+1, prefetchHint)
	}

	return img, nil
}

// Cleanup drops the decoded-frame cache
func (s *FFmpegSource) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[int]image.Image)
	s.order = nil
	return nil
}

func (s *FFmpegSource) probe() error {
	data, err := ffmpeg.Probe(s.path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", s.path, err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return fmt.Errorf("parse probe output: %w", err)
	}

	durationSec, _ := strconv.ParseFloat(out.Format.Duration, 64)

	meta := Metadata{TotalDurationMs: durationSec * 1000}
	for _, st := range out.Streams {
		if st.CodecType != "video" {
			continue
		}
		meta.Width = st.Width
		meta.Height = st.Height
		meta.FPS = util.ParseFrameRate(st.AvgFrameRate)
		if meta.FPS == 0 {
			meta.FPS = util.ParseFrameRate(st.RFrameRate)
		}
		if st.Duration != "" {
			if sec, err := strconv.ParseFloat(st.Duration, 64); err == nil && sec > 0 {
				meta.TotalDurationMs = sec * 1000
			}
		}
		break
	}

	if meta.Width == 0 || meta.Height == 0 {
		return fmt.Errorf("no video stream in %s", s.path)
	}
	if meta.FPS == 0 {
		meta.FPS = 24
	}

	s.meta = meta
	s.log.Debug().
		Int("width", meta.Width).
		Int("height", meta.Height).
		Float64("fps", meta.FPS).
		Float64("duration_ms", meta.TotalDurationMs).
		Msg("probed video source")
	return nil
}

// probePacketTimes reads per-packet presentation times for the video stream
func (s *FFmpegSource) probePacketTimes() error {
	data, err := ffmpeg.Probe(s.path, ffmpeg.KwArgs{
		"select_streams": "v:0",
		"show_packets":   "",
		"show_entries":   "packet=pts_time",
	})
	if err != nil {
		return fmt.Errorf("packet probe: %w", err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return fmt.Errorf("parse packet probe: %w", err)
	}

	times := make([]float64, 0, len(out.Packets))
	for _, p := range out.Packets {
		sec, err := strconv.ParseFloat(p.PtsTime, 64)
		if err != nil {
			continue
		}
		times = append(times, sec)
	}
	if len(times) == 0 {
		return fmt.Errorf("no packet timestamps reported")
	}

	sort.Float64s(times)
	s.meta.Timestamps = times
	return nil
}

func (s *FFmpegSource) frameCount() int {
	if len(s.meta.Timestamps) > 0 {
		return len(s.meta.Timestamps)
	}
	return int(math.Round(s.meta.TotalDurationMs / 1000 * s.meta.FPS))
}

func (s *FFmpegSource) frameTimeSec(index int) float64 {
	if len(s.meta.Timestamps) > 0 {
		return s.meta.Timestamps[index]
	}
	return float64(index) / s.meta.FPS
}

// decodeFrame seeks to the frame's capture time and pipes one raw RGBA frame
func (s *FFmpegSource) decodeFrame(ctx context.Context, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	err := ffmpeg.Input(s.path, ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.6f", s.frameTimeSec(index)),
	}).
		Output("pipe:", ffmpeg.KwArgs{
			"vframes": 1,
			"format":  "rawvideo",
			"pix_fmt": "rgba",
		}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}

	need := s.meta.Width * s.meta.Height * 4
	if buf.Len() < need {
		// Seek landed past the last decodable frame. Treat as not yet
		// available rather than failing the render.
		s.log.Debug().Int("index", index).Int("bytes", buf.Len()).Msg("short frame read")
		return nil, nil
	}

	return &image.RGBA{
		Pix:    buf.Bytes()[:need],
		Stride: s.meta.Width * 4,
		Rect:   image.Rect(0, 0, s.meta.Width, s.meta.Height),
	}, nil
}

// prefetch decodes upcoming frames in the background. Playback never waits
// on it: frames land in the cache whenever their decode completes.
func (s *FFmpegSource) prefetch(from, depth int) {
	s.mu.Lock()
	var wanted []int
	for i := from; i < from+depth && i < s.frameCount(); i++ {
		if _, cached := s.cache[i]; cached {
			continue
		}
		if _, busy := s.inflight[i]; busy {
			continue
		}
		s.inflight[i] = struct{}{}
		wanted = append(wanted, i)
	}
	s.mu.Unlock()

	if len(wanted) == 0 {
		return
	}

	go func() {
		for _, i := range wanted {
			img, err := s.decodeFrame(context.Background(), i)

			s.mu.Lock()
			delete(s.inflight, i)
			s.mu.Unlock()

			if err != nil {
				s.log.Debug().Err(err).Int("index", i).Msg("prefetch decode failed")
				continue
			}
			if img != nil {
				s.store(i, img)
			}
		}
	}()
}

func (s *FFmpegSource) store(index int, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[index]; !ok {
		s.order = append(s.order, index)
	}
	s.cache[index] = img

	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
}
