package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/codec"
	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/segment"
)

// halfSegmenter marks the left half of every picture as foreground.
type halfSegmenter struct {
	mu     sync.Mutex
	models []string
}

func (s *halfSegmenter) Segment(_ context.Context, img image.Image, opts segment.Options) (*image.Gray, error) {
	s.mu.Lock()
	s.models = append(s.models, opts.Model)
	s.mu.Unlock()

	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx()/2; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return mask, nil
}

func (s *halfSegmenter) Close() error { return nil }

// failingEncoder fails for images of one width.
type failingEncoder struct {
	inner Encoder
	width int
}

func (f failingEncoder) Encode(ctx context.Context, w io.Writer, img image.Image, opts codec.EncodeOptions) error {
	if img.Bounds().Dx() == f.width {
		return errors.New("disk quota exceeded")
	}
	return f.inner.Encode(ctx, w, img, opts)
}

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func newDriver(t *testing.T, enc Encoder) (*Driver, *halfSegmenter) {
	t.Helper()
	log := zaptest.NewLogger(t)
	if enc == nil {
		enc = codec.NewEncoder(log)
	}
	seg := &halfSegmenter{}
	return NewDriver(codec.NewLoader(log), seg, enc, log), seg
}

func solidBackground(t *testing.T, c compose.RGB) *compose.Background {
	t.Helper()
	bg, err := compose.NewBackground(context.Background(), compose.SolidColor{Color: c}, nil)
	require.NoError(t, err)
	return bg
}

func baseJob(t *testing.T, inputs ...string) Job {
	return Job{
		Inputs:     inputs,
		Suffix:     "_no_bg",
		Settings:   compose.DefaultSettings(),
		Background: solidBackground(t, compose.RGB{R: 0, G: 0, B: 255}),
		Segment:    segment.Options{Model: "u2net"},
		Encode:     codec.EncodeOptions{Format: codec.PNG, Quality: 90},
		Jobs:       1,
	}
}

func TestDriver_OneCorruptInputDoesNotStopTheBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writePNG(t, a, 8, 4, color.NRGBA{255, 0, 0, 255})
	require.NoError(t, os.WriteFile(b, []byte("corrupt"), 0o644))
	writePNG(t, c, 6, 6, color.NRGBA{0, 255, 0, 255})

	d, seg := newDriver(t, nil)
	report, err := d.Run(context.Background(), baseJob(t, a, b, c))
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Results[1].Err, apperr.ErrUnsupportedInputFormat)
	assert.Error(t, report.Err())

	assert.Equal(t, []string{
		filepath.Join(dir, "a_no_bg.png"),
		filepath.Join(dir, "c_no_bg.png"),
	}, report.Outputs())
	for _, out := range report.Outputs() {
		assert.FileExists(t, out)
	}
	assert.NoFileExists(t, filepath.Join(dir, "b_no_bg.png"))
	assert.Equal(t, []string{"u2net", "u2net"}, seg.models)
}

func TestDriver_CompositesOverBackground(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writePNG(t, in, 10, 4, color.NRGBA{255, 0, 0, 255})

	job := baseJob(t, in)
	job.Output = filepath.Join(dir, "out", "final.png")
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, []string{job.Output}, report.Outputs())

	f, err := os.Open(job.Output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, color.NRGBAModel.Convert(img.At(1, 1)))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, color.NRGBAModel.Convert(img.At(8, 1)))
}

func TestDriver_TransparentJPEGGetsWhiteBackground(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writePNG(t, in, 32, 16, color.NRGBA{0, 0, 0, 255})

	transparent, err := compose.NewBackground(context.Background(), compose.Transparent{}, nil)
	require.NoError(t, err)

	job := baseJob(t, in)
	job.Background = transparent
	job.Encode = codec.EncodeOptions{Format: codec.JPG, Quality: 95}
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	f, err := os.Open(filepath.Join(dir, "photo_no_bg.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)

	r, g, b, _ := img.At(28, 8).RGBA()
	assert.GreaterOrEqual(t, r>>8, uint32(245))
	assert.GreaterOrEqual(t, g>>8, uint32(245))
	assert.GreaterOrEqual(t, b>>8, uint32(245))
}

func TestDriver_Resize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writePNG(t, in, 40, 20, color.NRGBA{9, 9, 9, 255})

	job := baseJob(t, in)
	job.Resize = compose.ResizeSpec{Kind: compose.ResizeScale, Scale: 0.5}
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	f, err := os.Open(report.Outputs()[0])
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestDriver_Responsive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "hero.png")
	writePNG(t, in, 2000, 10, color.NRGBA{200, 200, 200, 255})

	job := baseJob(t, in)
	job.Responsive = true
	job.Breakpoints = []int{640, 1920, 3000}
	job.Resize = compose.ResizeSpec{Kind: compose.ResizeWidth, Width: 100}
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	res := report.Results[0]
	assert.Equal(t, []int{3000}, res.Skipped)
	want := []string{
		filepath.Join(dir, "responsive", "hero_no_bg_640w.png"),
		filepath.Join(dir, "responsive", "hero_no_bg_1920w.png"),
	}
	assert.Equal(t, want, res.Outputs)

	for i, width := range []int{640, 1920} {
		f, err := os.Open(want[i])
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(f)
		_ = f.Close()
		require.NoError(t, err)
		assert.Equal(t, width, cfg.Width)
	}
	assert.NoFileExists(t, filepath.Join(dir, "responsive", "hero_no_bg_3000w.png"))
}

func TestDriver_ResponsiveBreakpointFailureIsIsolated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "hero.png")
	writePNG(t, in, 1000, 4, color.NRGBA{1, 2, 3, 255})

	job := baseJob(t, in)
	job.Responsive = true
	job.Breakpoints = []int{320, 640, 800}
	job.OutputDir = filepath.Join(dir, "web")

	log := zaptest.NewLogger(t)
	d, _ := newDriver(t, failingEncoder{inner: codec.NewEncoder(log), width: 640})
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)

	res := report.Results[0]
	assert.Error(t, res.Err)
	assert.ErrorContains(t, res.Err, "breakpoint 640w")
	assert.Equal(t, []string{
		filepath.Join(dir, "web", "hero_no_bg_320w.png"),
		filepath.Join(dir, "web", "hero_no_bg_800w.png"),
	}, res.Outputs)
	assert.NoFileExists(t, filepath.Join(dir, "web", "hero_no_bg_640w.png"))
}

func TestDriver_ConcurrentJobsKeepInputOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"d", "c", "b", "a", "e"} {
		p := filepath.Join(dir, name+".png")
		writePNG(t, p, 6, 6, color.NRGBA{50, 60, 70, 255})
		inputs = append(inputs, p)
	}

	job := baseJob(t, inputs...)
	job.Jobs = 3
	job.OutputDir = filepath.Join(dir, "out")
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	for i, res := range report.Results {
		assert.Equal(t, inputs[i], res.Input)
	}
}

func TestDriver_MaskOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writePNG(t, in, 8, 2, color.NRGBA{255, 0, 0, 255})

	job := baseJob(t, in)
	job.Background = nil
	job.Settings.MaskOnly = true
	job.Suffix = "_mask"
	d, _ := newDriver(t, nil)
	report, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	f, err := os.Open(filepath.Join(dir, "photo_mask.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(7, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestJob_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Job)
		wantErr error
	}{
		{name: "ok", mutate: func(*Job) {}},
		{name: "explicit output with two inputs", mutate: func(j *Job) {
			j.Inputs = []string{"a.jpg", "b.jpg"}
			j.Output = "out.png"
		}, wantErr: apperr.ErrInvalidArguments},
		{name: "explicit output ignored when responsive", mutate: func(j *Job) {
			j.Inputs = []string{"a.jpg", "b.jpg"}
			j.Output = "out.png"
			j.Responsive = true
			j.Breakpoints = []int{640}
		}},
		{name: "no inputs", mutate: func(j *Job) { j.Inputs = nil }, wantErr: apperr.ErrInvalidArguments},
		{name: "bad scale", mutate: func(j *Job) {
			j.Resize = compose.ResizeSpec{Kind: compose.ResizeScale, Scale: -1}
		}, wantErr: apperr.ErrInvalidScale},
		{name: "responsive without breakpoints", mutate: func(j *Job) { j.Responsive = true }, wantErr: apperr.ErrInvalidBreakpoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := baseJob(t, "a.jpg")
			tt.mutate(&job)
			err := job.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	d, _ := newDriver(t, nil)
	job := baseJob(t, "a.jpg", "b.jpg")
	job.Output = "out.png"
	_, err := d.Run(context.Background(), job)
	assert.ErrorIs(t, err, apperr.ErrInvalidArguments)
}
