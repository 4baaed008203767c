package cli

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/batch"
	"github.com/chaos-io/bgswap/codec"
	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/logging"
	"github.com/chaos-io/bgswap/segment"
)

// EnvPrefix prefixes every environment override, e.g. BGSWAP_OUTPUT_DIR.
const EnvPrefix = "BGSWAP"

// DefaultConfigName is looked up in the working directory when --config
// is not given.
const DefaultConfigName = "bgswap"

// Options is the merged view of flags, environment and config file. The
// mapstructure names are the flag names.
type Options struct {
	Output    string `mapstructure:"output"`
	OutputDir string `mapstructure:"output-dir"`
	Format    string `mapstructure:"format" default:"PNG"`
	Suffix    string `mapstructure:"suffix"`
	Quality   int    `mapstructure:"quality" default:"90" validate:"min=1,max=100"`

	Color   string `mapstructure:"color" validate:"excluded_with=BgImage"`
	BgImage string `mapstructure:"bg-image"`

	Model        string `mapstructure:"model" default:"u2net"`
	AlphaMatting bool   `mapstructure:"alpha-matting"`
	MaskOnly     bool   `mapstructure:"mask-only"`

	Brightness float64 `mapstructure:"brightness" default:"1" validate:"gte=0"`
	Contrast   float64 `mapstructure:"contrast" default:"1" validate:"gte=0"`
	Sharpness  float64 `mapstructure:"sharpness" default:"1" validate:"gte=0"`
	Feather    int     `mapstructure:"feather" validate:"gte=0"`
	Filter     string  `mapstructure:"filter"`
	Saturation float64 `mapstructure:"saturation" default:"1" validate:"gte=0"`

	Width    int     `mapstructure:"width"`
	Height   int     `mapstructure:"height"`
	Scale    float64 `mapstructure:"scale"`
	NoAspect bool    `mapstructure:"no-aspect"`

	Progressive   bool `mapstructure:"progressive"`
	StripMetadata bool `mapstructure:"strip-metadata"`
	WebOptimized  bool `mapstructure:"web-optimized"`

	Responsive  bool   `mapstructure:"responsive"`
	Breakpoints string `mapstructure:"breakpoints"`

	Backend  string        `mapstructure:"backend" default:"remote" validate:"oneof=remote onnx"`
	RembgURL string        `mapstructure:"rembg-url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" default:"2m" validate:"gte=0"`
	ModelDir string        `mapstructure:"model-dir"`
	ONNXLib  string        `mapstructure:"onnx-lib"`
	Jobs     int           `mapstructure:"jobs" default:"1" validate:"min=1"`

	Verbose bool           `mapstructure:"verbose"`
	Quiet   bool           `mapstructure:"quiet"`
	Log     logging.Config `mapstructure:",squash"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report flag names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadOptions merges, in decreasing priority, the flags set on fs, the
// BGSWAP_* environment, the config file and the flag defaults. configFile
// may be empty, in which case ./bgswap.yaml is used when present.
func LoadOptions(fs *pflag.FlagSet, configFile string) (*Options, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config: %v", apperr.ErrInvalidArguments, err)
		}
	}

	opts := &Options{}
	if err := defaults.Set(opts); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidArguments, err)
	}
	return opts, opts.Validate()
}

// Validate checks the value ranges that do not need parsing.
func (o *Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidArguments, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", apperr.ErrInvalidArguments, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := "--" + fe.Field()
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", name, fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", name, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s is not a URL: %q", name, fe.Value())
	case "excluded_with":
		return "--color and --bg-image cannot be used together"
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}

// LogConfig applies --verbose and --quiet on top of the log settings.
func (o *Options) LogConfig() logging.Config {
	cfg := o.Log
	switch {
	case o.Verbose:
		cfg.Level = "debug"
	case o.Quiet:
		cfg.Level = "warn"
	}
	return cfg
}

func (o *Options) SegmentConfig() segment.Config {
	return segment.Config{
		Backend:     segment.Backend(o.Backend),
		RemoteURL:   o.RembgURL,
		Timeout:     o.Timeout,
		ModelDir:    o.ModelDir,
		ONNXLibrary: o.ONNXLib,
	}
}

func (o *Options) EncodeOptions() (codec.EncodeOptions, error) {
	format, err := codec.ParseFormat(o.Format)
	if err != nil {
		return codec.EncodeOptions{}, err
	}
	return codec.EncodeOptions{
		Format:        format,
		Quality:       o.Quality,
		Progressive:   o.Progressive || o.WebOptimized,
		StripMetadata: o.StripMetadata || o.WebOptimized,
	}, nil
}

// BackgroundSpec picks the background from --color and --bg-image.
func (o *Options) BackgroundSpec() (compose.BackgroundSpec, error) {
	switch {
	case o.Color != "" && o.BgImage != "":
		return nil, fmt.Errorf("%w: --color and --bg-image cannot be used together", apperr.ErrInvalidArguments)
	case o.Color != "":
		c, err := compose.ParseColor(o.Color)
		if err != nil {
			return nil, err
		}
		return compose.SolidColor{Color: c}, nil
	case o.BgImage != "":
		return compose.ImageFile{Path: o.BgImage}, nil
	default:
		return compose.Transparent{}, nil
	}
}

func (o *Options) Settings() (compose.Settings, error) {
	filter, err := compose.ParseFilter(o.Filter)
	if err != nil {
		return compose.Settings{}, err
	}
	return compose.Settings{
		Feather: float64(o.Feather),
		Enhancement: compose.Enhancement{
			Brightness: o.Brightness,
			Contrast:   o.Contrast,
			Sharpness:  o.Sharpness,
		},
		Filter:     filter,
		Saturation: o.Saturation,
		MaskOnly:   o.MaskOnly,
	}, nil
}

func (o *Options) breakpoints() ([]int, error) {
	if strings.TrimSpace(o.Breakpoints) == "" {
		return compose.DefaultBreakpoints(), nil
	}
	return compose.ParseBreakpoints(o.Breakpoints)
}

// Job resolves every parameter for a run over args. All invocation errors
// surface here, before any input is touched. The background picture is
// decoded through loader unless only masks are written.
func (o *Options) Job(ctx context.Context, args []string, loader compose.ImageLoader) (batch.Job, error) {
	inputs, err := batch.ExpandInputs(args)
	if err != nil {
		return batch.Job{}, err
	}
	enc, err := o.EncodeOptions()
	if err != nil {
		return batch.Job{}, err
	}
	settings, err := o.Settings()
	if err != nil {
		return batch.Job{}, err
	}
	rs, err := compose.NewResizeSpec(o.Width, o.Height, o.Scale, !o.NoAspect)
	if err != nil {
		return batch.Job{}, err
	}
	bps, err := o.breakpoints()
	if err != nil {
		return batch.Job{}, err
	}
	spec, err := o.BackgroundSpec()
	if err != nil {
		return batch.Job{}, err
	}

	job := batch.Job{
		Inputs:      inputs,
		Output:      o.Output,
		OutputDir:   o.OutputDir,
		Suffix:      o.Suffix,
		Responsive:  o.Responsive,
		Breakpoints: bps,
		Resize:      rs,
		Settings:    settings,
		Segment:     segment.Options{Model: o.Model, AlphaMatting: o.AlphaMatting},
		Encode:      enc,
		Jobs:        o.Jobs,
	}
	if !o.MaskOnly {
		if job.Background, err = compose.NewBackground(ctx, spec, loader); err != nil {
			return batch.Job{}, err
		}
	}
	return job, job.Validate()
}
