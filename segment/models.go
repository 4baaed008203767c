package segment

import (
	"os"
	"path/filepath"
	"sort"
)

// DefaultModel is used when no model is named.
const DefaultModel = "u2net"

// Preset describes how a model expects its input and what it returns.
type Preset struct {
	Name        string
	Description string
	// Size is the square input resolution.
	Size int
	Mean [3]float32
	Std  [3]float32
	// Sigmoid is applied to the raw output before normalisation.
	Sigmoid bool
	// RemoteOnly models need prompts or multi-class decoding and are only
	// available through a rembg server.
	RemoteOnly bool
}

// File is the model file name looked up in the model directory.
func (p Preset) File() string {
	return p.Name + ".onnx"
}

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
	halfMean     = [3]float32{0.5, 0.5, 0.5}
	unitStd      = [3]float32{1, 1, 1}
)

var presets = map[string]Preset{
	"u2net":                 {Name: "u2net", Description: "general purpose", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"u2netp":                {Name: "u2netp", Description: "lightweight general purpose", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"u2net_human_seg":       {Name: "u2net_human_seg", Description: "human segmentation", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"u2net_cloth_seg":       {Name: "u2net_cloth_seg", Description: "clothing parsing", Size: 768, Mean: imagenetMean, Std: imagenetStd, RemoteOnly: true},
	"silueta":               {Name: "silueta", Description: "compact u2net", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"isnet-general-use":     {Name: "isnet-general-use", Description: "general purpose, sharper edges", Size: 1024, Mean: halfMean, Std: unitStd},
	"isnet-anime":           {Name: "isnet-anime", Description: "anime characters", Size: 1024, Mean: imagenetMean, Std: imagenetStd},
	"birefnet-general":      {Name: "birefnet-general", Description: "high accuracy general purpose", Size: 1024, Mean: imagenetMean, Std: imagenetStd, Sigmoid: true},
	"birefnet-general-lite": {Name: "birefnet-general-lite", Description: "lighter birefnet-general", Size: 1024, Mean: imagenetMean, Std: imagenetStd, Sigmoid: true},
	"birefnet-portrait":     {Name: "birefnet-portrait", Description: "portraits", Size: 1024, Mean: imagenetMean, Std: imagenetStd, Sigmoid: true},
	"birefnet-massive":      {Name: "birefnet-massive", Description: "largest birefnet", Size: 1024, Mean: imagenetMean, Std: imagenetStd, Sigmoid: true},
	"bria-rmbg":             {Name: "bria-rmbg", Description: "BRIA background removal", Size: 1024, Mean: halfMean, Std: unitStd},
	"sam":                   {Name: "sam", Description: "segment anything, prompt driven", Size: 1024, Mean: imagenetMean, Std: imagenetStd, RemoteOnly: true},
}

// Lookup returns the preset for name. The empty name means DefaultModel.
func Lookup(name string) (Preset, bool) {
	if name == "" {
		name = DefaultModel
	}
	p, ok := presets[name]
	return p, ok
}

// Models lists every known preset sorted by name.
func Models() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultModelDir is $U2NET_HOME, falling back to ~/.u2net.
func DefaultModelDir() string {
	if dir := os.Getenv("U2NET_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".u2net"
	}
	return filepath.Join(home, ".u2net")
}
