package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chaos-io/bgswap/segment"
)

var modelsDir string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the known segmentation models",
	Long: `List the segmentation models bgswap knows about.

Every model can be used with the remote backend as long as the rembg server
has it. The onnx backend needs <name>.onnx in the model directory; the
STATUS column shows whether it was found there.

Examples:
  bgswap models
  bgswap models --model-dir /opt/models
  bgswap photo.jpg --backend onnx -m isnet-general-use`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listModels(cmd.OutOrStdout(), modelsDir)
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsDir, "model-dir", "", "directory with .onnx models (default $U2NET_HOME or ~/.u2net)")
	rootCmd.AddCommand(modelsCmd)
}

func listModels(out io.Writer, dir string) error {
	if dir == "" {
		dir = segment.DefaultModelDir()
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "MODEL\tINPUT\tBACKENDS\tSTATUS\tDESCRIPTION")
	fmt.Fprintln(w, "-----\t-----\t--------\t------\t-----------")
	for _, p := range segment.Models() {
		name := p.Name
		if name == segment.DefaultModel {
			name += " (default)"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			name, p.Size, backends(p), modelStatus(p, dir), p.Description)
	}
	return w.Flush()
}

func backends(p segment.Preset) string {
	if p.RemoteOnly {
		return "remote"
	}
	return "remote,onnx"
}

func modelStatus(p segment.Preset, dir string) string {
	if p.RemoteOnly {
		return "-"
	}
	if _, err := os.Stat(filepath.Join(dir, p.File())); err != nil {
		return "missing"
	}
	return "ok"
}
