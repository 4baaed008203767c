package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/util"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the ONNX Runtime shared library once per process.
func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

type onnxSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (s *onnxSession) destroy() {
	if s.session != nil {
		_ = s.session.Destroy()
	}
	if s.input != nil {
		_ = s.input.Destroy()
	}
	if s.output != nil {
		_ = s.output.Destroy()
	}
}

// ONNX runs model files from a local directory with ONNX Runtime. Sessions
// are created on first use and reused; runs are serialised because a
// session is not safe for concurrent use.
type ONNX struct {
	modelDir string
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*onnxSession
}

// NewONNX loads the runtime from libPath (empty for the platform default)
// and serves models from modelDir (empty for DefaultModelDir).
func NewONNX(modelDir, libPath string, log *zap.Logger) (*ONNX, error) {
	if err := initRuntime(libPath); err != nil {
		return nil, fmt.Errorf("%w: onnxruntime unavailable: %v", apperr.ErrSegmentation, err)
	}
	if modelDir == "" {
		modelDir = DefaultModelDir()
	}
	return &ONNX{
		modelDir: modelDir,
		log:      log.Named("segment.onnx"),
		sessions: make(map[string]*onnxSession),
	}, nil
}

func (o *ONNX) Segment(ctx context.Context, img image.Image, opts Options) (*image.Gray, error) {
	preset, ok := Lookup(opts.Model)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", apperr.ErrSegmentation, opts.Model)
	}
	if preset.RemoteOnly {
		return nil, fmt.Errorf("%w: model %q is only available with the remote backend", apperr.ErrSegmentation, preset.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := toTensor(img, preset)

	o.mu.Lock()
	out, err := o.run(preset, input)
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrSegmentation, preset.Name, err)
	}

	mask, err := maskFromOutput(out, preset.Size, preset.Sigmoid)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrSegmentation, preset.Name, err)
	}
	b := img.Bounds()
	mask = fitMask(mask, b.Dx(), b.Dy())
	if opts.AlphaMatting {
		defer util.Trace(o.log, "alpha matting")()
		mask = RefineAlpha(img, mask, DefaultMatting)
	}
	return mask, nil
}

// run must be called with o.mu held.
func (o *ONNX) run(p Preset, input []float32) ([]float32, error) {
	s, err := o.session(p)
	if err != nil {
		return nil, err
	}
	copy(s.input.GetData(), input)

	defer util.Trace(o.log, "inference", zap.String("model", p.Name))()
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return append([]float32(nil), s.output.GetData()...), nil
}

func (o *ONNX) session(p Preset) (*onnxSession, error) {
	if s, ok := o.sessions[p.Name]; ok {
		return s, nil
	}

	path := filepath.Join(o.modelDir, p.File())
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model has no inputs or outputs")
	}

	size := int64(p.Size)
	s := &onnxSession{}
	if s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size)); err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	if s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, size, size)); err != nil {
		s.destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	s.session, err = ort.NewAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{s.input}, []ort.Value{s.output}, nil)
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	o.log.Info("model loaded", zap.String("model", p.Name), zap.String("path", path),
		zap.String("input", inputs[0].Name), zap.String("output", outputs[0].Name))
	o.sessions[p.Name] = s
	return s, nil
}

func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name, s := range o.sessions {
		s.destroy()
		delete(o.sessions, name)
	}
	return nil
}
