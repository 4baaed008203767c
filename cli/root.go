// Package cli implements the bgswap command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/batch"
	"github.com/chaos-io/bgswap/codec"
	"github.com/chaos-io/bgswap/logging"
	"github.com/chaos-io/bgswap/segment"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitInvalid = 2
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bgswap [flags] <input>...",
		Short: "Replace or remove the background of images",
		Long: `bgswap separates the foreground of each input image with a segmentation
model and composites it over a new background colour or picture, or leaves
the background transparent. The result can be tone adjusted and resized
before it is written as PNG, JPEG, WebP or AVIF, optionally as a set of
responsive widths.

Inputs may be files, glob patterns or http(s) URLs. RAW camera files
(.cr2 .cr3 .nef .arw .dng) need dcraw on the PATH.

Every flag can also be set through the environment (BGSWAP_OUTPUT_DIR,
BGSWAP_QUALITY, ...) or a YAML config file (./bgswap.yaml or --config).

Examples:
  bgswap photo.jpg
  bgswap photo.jpg -c "#ff5733" -f JPG -q 85
  bgswap 'shots/*.png' -b studio.jpg -d out --jobs 4
  bgswap photo.jpg --responsive --breakpoints 480,960 -f WEBP
  bgswap photo.jpg --mask-only -m isnet-general-use`,
		Args:          requireInputs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
	defineFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("color", "bg-image")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	return cmd
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./bgswap.yaml)")

	fs.StringP("output", "o", "", "output path (single input only)")
	fs.StringP("output-dir", "d", "", "output directory (default: next to each input)")
	fs.StringP("format", "f", "PNG", "output format: PNG, JPG, JPEG, WEBP, AVIF")
	fs.String("suffix", "_no_bg", "suffix appended to output file names")
	fs.IntP("quality", "q", 90, "quality 1-100 for lossy formats")

	fs.StringP("color", "c", "", `background colour: name, "#RRGGBB" or "R,G,B"`)
	fs.StringP("bg-image", "b", "", "background image path or URL")

	fs.StringP("model", "m", segment.DefaultModel, "segmentation model (see 'bgswap models')")
	fs.BoolP("alpha-matting", "a", false, "refine mask edges with alpha matting")
	fs.Bool("mask-only", false, "write the mask instead of a composite")

	fs.Float64("brightness", 1, "brightness factor")
	fs.Float64("contrast", 1, "contrast factor")
	fs.Float64("sharpness", 1, "sharpness factor")
	fs.Int("feather", 0, "mask edge blur radius in pixels")
	fs.String("filter", "", "colour filter: warm, cool, cold, sepia, vintage, vibrant, muted")
	fs.Float64("saturation", 1, "saturation factor")

	fs.Int("width", 0, "output width")
	fs.Int("height", 0, "output height")
	fs.Float64("scale", 0, "output scale factor")
	fs.Bool("no-aspect", false, "stretch to --width x --height")

	fs.Bool("progressive", false, "progressive JPEG")
	fs.Bool("strip-metadata", false, "drop metadata from the output")
	fs.Bool("web-optimized", false, "shorthand for --progressive --strip-metadata")
	fs.Bool("responsive", false, "write one image per breakpoint width")
	fs.String("breakpoints", "", "comma separated responsive widths (default 640,768,1024,1280,1920,2560)")

	fs.String("backend", string(segment.BackendRemote), "segmentation backend: remote, onnx")
	fs.String("rembg-url", segment.DefaultRemoteURL, "rembg server for the remote backend")
	fs.Duration("timeout", 2*time.Minute, "per image timeout of the remote backend")
	fs.String("model-dir", "", "directory with .onnx models (default $U2NET_HOME or ~/.u2net)")
	fs.String("onnx-lib", "", "path to the onnxruntime shared library")
	fs.IntP("jobs", "j", 1, "number of images processed concurrently")

	fs.String("log-level", "info", "log level: "+strings.Join(logging.Levels, ", "))
	fs.String("log-file", "", "also write JSON logs to this file")
	fs.BoolP("verbose", "v", false, "debug logging")
	fs.Bool("quiet", false, "only log warnings and errors")
}

func requireInputs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one input is required", apperr.ErrInvalidArguments)
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	opts, err := LoadOptions(cmd.Flags(), configFile)
	if err != nil {
		return err
	}

	log, cleanup, err := logging.New(opts.LogConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidArguments, err)
	}
	defer cleanup()

	return run(cmd.Context(), opts, args, cmd.OutOrStdout(), log)
}

// run processes args and prints each written file to out.
func run(ctx context.Context, opts *Options, args []string, out io.Writer, log *zap.Logger) error {
	loader := codec.NewLoader(log)
	job, err := opts.Job(ctx, args, loader)
	if err != nil {
		return err
	}

	seg, err := segment.New(opts.SegmentConfig(), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := seg.Close(); err != nil {
			log.Warn("close segmenter", zap.Error(err))
		}
	}()

	log.Debug("job",
		zap.Int("inputs", len(job.Inputs)),
		zap.String("background", backgroundName(job)),
		zap.String("format", string(job.Encode.Format)),
		zap.Stringer("resize", job.Resize),
		zap.Int("jobs", job.Jobs))

	driver := batch.NewDriver(loader, seg, codec.NewEncoder(log), log)
	report, err := driver.Run(ctx, job)
	if err != nil {
		return err
	}
	for _, path := range report.Outputs() {
		fmt.Fprintln(out, path)
	}
	return report.Err()
}

func backgroundName(job batch.Job) string {
	if job.Background == nil {
		return "none"
	}
	return job.Background.Spec().String()
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case apperr.IsValidation(err), errors.Is(err, errUsage):
		return ExitInvalid
	default:
		return ExitFailed
	}
}

var errUsage = errors.New("usage error")

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}
