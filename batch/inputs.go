package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/util"
)

// ExpandInputs resolves glob patterns in order. URLs, existing files and
// patterns without metacharacters are kept verbatim, the last even when
// they do not exist, so they fail later as a per-file error. A pattern that
// matches nothing is dropped with no error; an empty result is an
// invocation error.
func ExpandInputs(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if util.IsURL(p) || !strings.ContainsAny(p, "*?[") || exists(p) {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", apperr.ErrInvalidArguments, p, err)
		}
		out = append(out, matches...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no input files found", apperr.ErrInvalidArguments)
	}
	return out, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
