package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/logbuffer"
	"github.com/friendsincode/newscast/internal/logging"
	"github.com/friendsincode/newscast/internal/media"
	"github.com/friendsincode/newscast/internal/publish"
	"github.com/friendsincode/newscast/internal/render"
	"github.com/friendsincode/newscast/internal/server"
	"github.com/friendsincode/newscast/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
	logBuf *logbuffer.Buffer
)

var rootCmd = &cobra.Command{
	Use:   "newscast",
	Short: "Newscast - automated news broadcast generator",
	Long:  "Newscast composites pre-generated speech segments and host clips into timed news broadcasts, with a live preview server and an offline MP4 renderer.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview server",
	Long:  "Start the HTTP preview server: live playback, event feed, and render endpoint.",
	RunE:  runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render <job-file>",
	Short: "Render a broadcast job to MP4",
	Long:  "Render the broadcast described by a YAML or JSON job file into a finished MP4 and publish it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var (
	serveJobPath  string
	renderOutPath string
	skipPublish   bool
)

func init() {
	serveCmd.Flags().StringVar(&serveJobPath, "job", "", "broadcast job file to preload")
	renderCmd.Flags().StringVarP(&renderOutPath, "out", "o", "", "output path (defaults to the downloads directory)")
	renderCmd.Flags().BoolVar(&skipPublish, "no-publish", false, "skip S3 upload and external hand-off")
	rootCmd.Version = version.String()
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logBuf = logbuffer.New(1000)
	logger = logging.Setup(cfg.Environment, logBuf)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("Newscast starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logBuf, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	if serveJobPath != "" {
		b, err := loadJob(serveJobPath)
		if err != nil {
			return fmt.Errorf("load job: %w", err)
		}
		ctrl := srv.SetBroadcast(b)
		logger.Info().Str("job", serveJobPath).Bool("ready", ctrl.Ready()).Msg("broadcast preloaded")
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info().Msg("Newscast stopped")
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	b, err := loadJob(args[0])
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	mediaSvc := media.NewService(cfg.MediaRoot, cfg.FFmpegBin, cfg.FFprobeBin, logger)
	engine := render.NewEngine(cfg, mediaSvc, bus, logger)

	publisher, err := publish.NewPublisher(ctx, cfg, bus, logger)
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}

	out := renderOutPath
	if out == "" {
		out = publisher.Destination(b)
	}

	logger.Info().Str("broadcast", b.ID).Str("out", out).Msg("rendering")
	if err := engine.Render(ctx, b, out); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if skipPublish {
		fmt.Println(out)
		return nil
	}

	res, err := publisher.Publish(ctx, b, out)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	fmt.Println(res.LocalPath)
	if res.S3URL != "" {
		fmt.Println(res.S3URL)
	}
	return nil
}
