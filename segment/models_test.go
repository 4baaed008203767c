package segment

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chaos-io/bgswap/apperr"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	p, ok := Lookup("")
	require.True(t, ok)
	assert.Equal(t, DefaultModel, p.Name)
	assert.Equal(t, 320, p.Size)
	assert.Equal(t, "u2net.onnx", p.File())

	p, ok = Lookup("birefnet-portrait")
	require.True(t, ok)
	assert.True(t, p.Sigmoid)
	assert.Equal(t, 1024, p.Size)

	_, ok = Lookup("U2NET")
	assert.False(t, ok)
}

func TestModels(t *testing.T) {
	t.Parallel()

	models := Models()
	require.NotEmpty(t, models)
	assert.True(t, sort.SliceIsSorted(models, func(i, j int) bool { return models[i].Name < models[j].Name }))
	for _, m := range models {
		assert.Positive(t, m.Size, m.Name)
	}
}

func TestDefaultModelDir(t *testing.T) {
	t.Setenv("U2NET_HOME", "/models/u2net")
	assert.Equal(t, "/models/u2net", DefaultModelDir())

	t.Setenv("U2NET_HOME", "")
	assert.Equal(t, ".u2net", filepath.Base(DefaultModelDir()))
}

func TestNew(t *testing.T) {
	t.Parallel()

	seg, err := New(Config{Backend: BackendRemote, RemoteURL: "http://rembg:7000"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	remote, ok := seg.(*Remote)
	require.True(t, ok)
	assert.Equal(t, "http://rembg:7000", remote.baseURL)
	assert.NoError(t, seg.Close())

	_, err = New(Config{Backend: "gpu"}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, apperr.ErrSegmentation)
}
