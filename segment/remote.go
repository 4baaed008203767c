package segment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/util"
	nhttp "github.com/chaos-io/bgswap/util/http"
)

const (
	DefaultRemoteURL = "http://127.0.0.1:7000"
	removePath       = "/api/remove"
)

// Remote asks a rembg server for the mask only and leaves compositing to
// the caller.
type Remote struct {
	baseURL string
	timeout time.Duration
	cli     nhttp.IClient
	log     *zap.Logger
}

type RemoteOption func(*Remote)

// WithTimeout bounds each request. Zero keeps the client default.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) { r.timeout = d }
}

func WithClient(cli nhttp.IClient) RemoteOption {
	return func(r *Remote) { r.cli = cli }
}

func NewRemote(baseURL string, log *zap.Logger, opts ...RemoteOption) *Remote {
	if baseURL == "" {
		baseURL = DefaultRemoteURL
	}
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.Named("segment.remote"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cli == nil {
		r.cli = nhttp.NewHTTPClientWithTimeout(r.timeout)
	}
	return r
}

/*
	curl -X POST "$BASE_URL/api/remove" \
	  -F "file=@photo.png" \
	  -F "model=u2net" \
	  -F "a=false" \
	  -F "om=true" -o mask.png
*/
func (r *Remote) Segment(ctx context.Context, img image.Image, opts Options) (*image.Gray, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	if _, ok := Lookup(model); !ok {
		return nil, fmt.Errorf("%w: unknown model %q", apperr.ErrSegmentation, model)
	}

	body, contentType, err := removeForm(img, model, opts.AlphaMatting)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperr.ErrSegmentation, err)
	}

	var data []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.baseURL + removePath,
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   &data,
		Timeout:    r.timeout,
	}
	done := util.Trace(r.log, "remove", zap.String("model", model))
	err = r.cli.DoHTTPRequest(ctx, reqParam)
	done()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrSegmentation, model, err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: undecodable mask: %v", apperr.ErrSegmentation, model, err)
	}
	gray, ok := decoded.(*image.Gray)
	if !ok {
		gray = toGray(decoded)
	}
	r.log.Debug("mask received", zap.String("model", model), zap.Int("bytes", len(data)),
		zap.Int("width", gray.Bounds().Dx()), zap.Int("height", gray.Bounds().Dy()))

	b := img.Bounds()
	return fitMask(gray, b.Dx(), b.Dy()), nil
}

// removeForm encodes img as PNG into the multipart body rembg expects.
func removeForm(img image.Image, model string, alphaMatting bool) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(part, img); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}

	fields := [][2]string{
		{"model", model},
		{"a", strconv.FormatBool(alphaMatting)},
		{"om", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// Close is a no-op; the HTTP client holds no per-segmenter resources.
func (r *Remote) Close() error {
	return nil
}
