package util

import (
	"context"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	nhttp "github.com/chaos-io/bgswap/util/http"
)

// IsURL reports whether s names an http(s) resource rather than a file.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Download 下载文件内容
func Download(ctx context.Context, cli nhttp.IClient, url string) ([]byte, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     http.MethodGet,
		Response:   &data,
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// OpenImage 打开本地图片
func OpenImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = file.Close()
	}()

	return image.Decode(file)
}

// Stem returns the file name of path without directory and extension.
// For URLs the query string is dropped first.
func Stem(path string) string {
	if IsURL(path) {
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
