// Package batch runs the background replacement over a list of inputs.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/codec"
	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/segment"
	"github.com/chaos-io/bgswap/util"
)

type Loader interface {
	Load(ctx context.Context, path string) (image.Image, error)
}

type Encoder interface {
	Encode(ctx context.Context, w io.Writer, img image.Image, opts codec.EncodeOptions) error
}

// Job is the resolved configuration of one run. Every input is processed
// with the same Job.
type Job struct {
	Inputs []string
	// Output is an explicit output path, only valid with a single input.
	Output    string
	OutputDir string
	Suffix    string

	Responsive  bool
	Breakpoints []int

	Resize     compose.ResizeSpec
	Settings   compose.Settings
	Background *compose.Background
	Segment    segment.Options
	Encode     codec.EncodeOptions

	// Jobs is the number of inputs processed concurrently.
	Jobs int
}

// Validate reports invocation errors that make the whole run pointless.
func (j Job) Validate() error {
	if len(j.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", apperr.ErrInvalidArguments)
	}
	if j.Output != "" && len(j.Inputs) > 1 && !j.Responsive {
		return fmt.Errorf("%w: --output needs exactly one input, got %d", apperr.ErrInvalidArguments, len(j.Inputs))
	}
	if !j.Settings.MaskOnly && j.Background == nil {
		return fmt.Errorf("%w: no background", apperr.ErrInvalidArguments)
	}
	if j.Responsive && len(j.Breakpoints) == 0 {
		return fmt.Errorf("%w: empty breakpoint list", apperr.ErrInvalidBreakpoints)
	}
	return j.Resize.Validate()
}

type Driver struct {
	loader  Loader
	seg     segment.Segmenter
	encoder Encoder
	log     *zap.Logger
}

func NewDriver(loader Loader, seg segment.Segmenter, encoder Encoder, log *zap.Logger) *Driver {
	return &Driver{loader: loader, seg: seg, encoder: encoder, log: log.Named("batch")}
}

// Run processes every input of job. A failing input is logged and recorded
// in the report without stopping the others; the returned error is only
// set for invalid jobs.
func (d *Driver) Run(ctx context.Context, job Job) (*Report, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	d.warnOnce(job)

	pipeline := compose.NewPipeline(job.Settings)
	d.log.Debug("pipeline", zap.Strings("stages", pipeline.Stages()))

	report := &Report{Results: make([]Result, len(job.Inputs))}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(job.Jobs, 1))
	for i, input := range job.Inputs {
		g.Go(func() error {
			report.Results[i] = d.process(ctx, job, pipeline, input)
			return nil
		})
	}
	_ = g.Wait()

	d.log.Info("batch finished", zap.Int("succeeded", report.Succeeded()), zap.Int("failed", report.Failed()))
	return report, nil
}

func (d *Driver) warnOnce(job Job) {
	for _, w := range job.Encode.Warnings() {
		d.log.Warn("option ignored", zap.Error(w))
	}
	if job.Background != nil && !job.Settings.MaskOnly && job.Background.Substitutes(!job.Encode.Format.SupportsAlpha()) {
		d.log.Warn("format has no alpha channel, using a white background", zap.String("format", string(job.Encode.Format)))
	}
	if job.Responsive {
		if job.Resize.Kind != compose.ResizeNone {
			d.log.Warn("resize options are ignored in responsive mode", zap.Stringer("resize", job.Resize))
		}
		if job.Output != "" {
			d.log.Warn("--output is ignored in responsive mode", zap.String("output", job.Output))
		}
	}
}

func (d *Driver) process(ctx context.Context, job Job, pipeline *compose.Pipeline, input string) Result {
	start := time.Now()
	res := Result{Input: input}
	log := d.log.With(zap.String("file", input))

	composed, err := d.compose(ctx, job, pipeline, input, log)
	if err == nil {
		if job.Responsive {
			res.Outputs, res.Skipped, err = d.writeResponsive(ctx, job, input, composed, log)
		} else {
			var out string
			out, err = d.writeSingle(ctx, job, input, composed)
			if err == nil {
				res.Outputs = []string{out}
			}
		}
	}
	res.Err = err
	res.Elapsed = time.Since(start)

	if err != nil {
		log.Error("failed", zap.Error(err), zap.Duration("elapsed", res.Elapsed))
	} else {
		log.Info("done", zap.Strings("outputs", res.Outputs), zap.Duration("elapsed", res.Elapsed))
	}
	return res
}

// compose runs load, segment and the colour pipeline. The result is at the
// source size.
func (d *Driver) compose(ctx context.Context, job Job, pipeline *compose.Pipeline, input string, log *zap.Logger) (*image.NRGBA, error) {
	img, err := d.loader.Load(ctx, input)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	log.Debug("loaded", zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))

	done := util.Trace(log, "segment", zap.String("model", job.Segment.Model))
	mask, err := d.seg.Segment(ctx, img, job.Segment)
	done()
	if err != nil {
		return nil, err
	}

	var bg *compose.Buffer
	if !job.Settings.MaskOnly {
		bg = job.Background.Buffer(b.Dx(), b.Dy(), !job.Encode.Format.SupportsAlpha())
	}
	out, err := pipeline.Run(img, mask, bg)
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", input, err)
	}
	return out, nil
}

func (d *Driver) writeSingle(ctx context.Context, job Job, input string, img *image.NRGBA) (string, error) {
	resized, err := compose.ApplyResize(img, job.Resize)
	if err != nil {
		return "", err
	}
	path := job.Output
	if path == "" || len(job.Inputs) > 1 {
		path = OutputPath(input, job.OutputDir, job.Suffix, job.Encode.Format)
	}
	return path, d.write(ctx, path, resized, job.Encode)
}

// writeResponsive renders every breakpoint that fits the source. A failed
// breakpoint is reported but does not stop the remaining ones.
func (d *Driver) writeResponsive(ctx context.Context, job Job, input string, img *image.NRGBA, log *zap.Logger) ([]string, []int, error) {
	emit, skip := compose.PlanBreakpoints(img.Rect.Dx(), job.Breakpoints)
	for _, w := range skip {
		log.Info("breakpoint skipped, source is narrower", zap.Int("width", w), zap.Int("source_width", img.Rect.Dx()))
	}

	var outputs []string
	var errs []error
	for _, w := range emit {
		path := ResponsivePath(input, job.OutputDir, job.Suffix, w, job.Encode.Format)
		resized, err := compose.ApplyResize(img, compose.ResizeSpec{Kind: compose.ResizeWidth, Width: w})
		if err == nil {
			err = d.write(ctx, path, resized, job.Encode)
		}
		if err != nil {
			log.Warn("breakpoint failed", zap.Int("width", w), zap.Error(err))
			errs = append(errs, fmt.Errorf("breakpoint %dw: %w", w, err))
			continue
		}
		outputs = append(outputs, path)
	}
	return outputs, skip, errors.Join(errs...)
}

func (d *Driver) write(ctx context.Context, path string, img image.Image, opts codec.EncodeOptions) error {
	return codec.WriteFileAtomic(path, func(w io.Writer) error {
		return d.encoder.Encode(ctx, w, img, opts)
	})
}
