package batch

import (
	"path/filepath"
	"strconv"

	"github.com/chaos-io/bgswap/codec"
	"github.com/chaos-io/bgswap/util"
)

// ResponsiveDir is the directory created next to each input for
// responsive variants when no output directory is given.
const ResponsiveDir = "responsive"

// inputDir is where outputs land by default. URLs have no directory of
// their own, so their outputs go to the working directory.
func inputDir(input string) string {
	if util.IsURL(input) {
		return "."
	}
	return filepath.Dir(input)
}

// OutputPath names the single output for input: {stem}{suffix}.{ext}
// inside dir, or next to the input when dir is empty.
func OutputPath(input, dir, suffix string, format codec.Format) string {
	if dir == "" {
		dir = inputDir(input)
	}
	return filepath.Join(dir, util.Stem(input)+suffix+"."+format.Ext())
}

// ResponsivePath names the variant of input at width:
// {stem}{suffix}_{width}w.{ext} inside dir, or inside a responsive
// directory next to the input when dir is empty.
func ResponsivePath(input, dir, suffix string, width int, format codec.Format) string {
	if dir == "" {
		dir = filepath.Join(inputDir(input), ResponsiveDir)
	}
	return filepath.Join(dir, util.Stem(input)+suffix+"_"+strconv.Itoa(width)+"w."+format.Ext())
}
