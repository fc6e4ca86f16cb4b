package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/reelcore/internal/clip"
	"github.com/keagan/reelcore/internal/config"
	"github.com/keagan/reelcore/internal/logging"
	"github.com/keagan/reelcore/internal/source"
	"github.com/keagan/reelcore/internal/surface"
	"github.com/keagan/reelcore/internal/timeline"
	"github.com/keagan/reelcore/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelcore",
	Short: "reelcore - non-linear media timeline engine",
	Long:  "A Go media timeline engine: frame-accurate clips, non-destructive transforms, splits, ripple deletes and variable playback speed.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(cutCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [media file]",
	Short: "Probe a media file and print its timeline metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if !util.FileExists(args[0]) {
			return fmt.Errorf("no such file: %s", args[0])
		}

		src, err := source.NewFFmpegSource(args[0], source.FFmpegSourceOptions{
			CacheSize:        cfg.Source.FrameCacheSize,
			ProbePacketTimes: cfg.Source.ProbePackets,
			Logger:           log.Logger,
		})
		if err != nil {
			return err
		}
		defer src.Cleanup()

		meta := src.Metadata()
		log.Info().
			Str("file", args[0]).
			Int("width", meta.Width).
			Int("height", meta.Height).
			Float64("fps", meta.FPS).
			Str("duration", util.FormatMs(meta.TotalDurationMs)).
			Int("frame_timestamps", len(meta.Timestamps)).
			Msg("probed media")

		return nil
	},
}

var (
	previewAt  string
	previewOut string
)

var previewCmd = &cobra.Command{
	Use:   "preview [media file]",
	Short: "Render one timeline instant to a PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		sess, c, err := buildSession(cmd.Context(), cfg, args[0])
		if err != nil {
			return err
		}
		defer sess.Remove(c.ID())

		at, err := util.ParseTimestamp(previewAt)
		if err != nil {
			return err
		}

		atMs := float64(at.Milliseconds())
		centerClip(cfg, c, atMs)
		return renderPNG(cmd.Context(), cfg, sess, atMs, previewOut)
	},
}

var (
	cutFrom float64
	cutTo   float64
)

var cutCmd = &cobra.Command{
	Use:   "cut [media file]",
	Short: "Ripple-delete an interval and render the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		sess, c, err := buildSession(cmd.Context(), cfg, args[0])
		if err != nil {
			return err
		}
		defer sess.Remove(c.ID())

		before := c.Duration()
		if !sess.RemoveInterval(c.ID(), cutFrom, cutTo) {
			return fmt.Errorf("interval [%g, %g) rejected", cutFrom, cutTo)
		}
		after := c.Duration()

		log.Info().
			Str("removed", util.FormatMs(before-after)).
			Str("duration", util.FormatMs(after)).
			Msg("interval removed")

		at, err := util.ParseTimestamp(previewAt)
		if err != nil {
			return err
		}

		atMs := float64(at.Milliseconds())
		centerClip(cfg, c, atMs)
		return renderPNG(cmd.Context(), cfg, sess, atMs, previewOut)
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewAt, "at", "0", "timeline instant to render (HH:MM:SS.mmm or seconds)")
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "preview.png", "output PNG path")

	cutCmd.Flags().Float64Var(&cutFrom, "from", 0, "interval start in seconds")
	cutCmd.Flags().Float64Var(&cutTo, "to", 0, "interval end in seconds")
	cutCmd.Flags().StringVar(&previewAt, "at", "0", "timeline instant to render after the cut")
	cutCmd.Flags().StringVarP(&previewOut, "out", "o", "preview.png", "output PNG path")
}

// buildSession loads one media file into a fresh session as a video clip
func buildSession(ctx context.Context, cfg *config.Config, path string) (*timeline.Session, *clip.VideoClip, error) {
	if !util.FileExists(path) {
		return nil, nil, fmt.Errorf("no such file: %s", path)
	}

	src, err := source.NewFFmpegSource(path, source.FFmpegSourceOptions{
		CacheSize:        cfg.Source.FrameCacheSize,
		ProbePacketTimes: cfg.Source.ProbePackets,
		Logger:           log.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	c := clip.NewVideoClip(src, clip.Options{
		Name:          path,
		FPS:           cfg.Timeline.FPS,
		PrefetchDepth: cfg.Source.PrefetchDepth,
		Logger:        log.Logger,
	})

	sess := timeline.NewSession(log.Logger)
	id := sess.Add(c)

	if err := sess.Init(ctx); err != nil {
		sess.Remove(id)
		return nil, nil, err
	}

	return sess, c, nil
}

// centerClip positions the clip's frame at atMs on the canvas center
func centerClip(cfg *config.Config, c *clip.VideoClip, atMs float64) {
	x := float64(cfg.Timeline.Width) / 2
	y := float64(cfg.Timeline.Height) / 2
	c.Update(clip.Change{X: &x, Y: &y}, atMs)
}

func renderPNG(ctx context.Context, cfg *config.Config, sess *timeline.Session, atMs float64, outPath string) error {
	canvas := surface.New(cfg.Timeline.Width, cfg.Timeline.Height)
	if err := sess.RenderAll(ctx, canvas, atMs, false); err != nil {
		return err
	}

	if err := util.EnsureDir(cfg.WorkDir); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := canvas.EncodePNG(f); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}

	log.Info().Str("out", outPath).Str("at", util.FormatMs(atMs)).Msg("preview rendered")
	return nil
}
