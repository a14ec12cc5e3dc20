package service_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/service"
)

func TestStyleFileService(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stylesDir := filepath.Join(dir, "styles")
	require.NoError(t, os.MkdirAll(filepath.Join(stylesDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stylesDir, "muted_night-v2.json"), []byte(customStyle), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(stylesDir, "big.JSON"), []byte(strings.Repeat(" ", 2048)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(stylesDir, "notes.txt"), []byte("x"), 0o644))

	svc := service.NewStyleFileService(dir)
	assert.Equal(t, stylesDir, svc.StylesDir())

	files, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, []service.StyleFile{
		{Name: "big.JSON", Size: "2.0 KB", URL: "file:big.JSON"},
		{Name: "muted_night-v2.json", Size: "89 B", URL: "file:muted_night-v2.json"},
	}, files)

	defs, err := svc.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "muted_night-v2", defs[1].ID)
	assert.Equal(t, "Muted Night V2", defs[1].Label)
	assert.Equal(t, "file:muted_night-v2.json", defs[1].URL)
	assert.False(t, defs[1].Resolved())
}

func TestStyleFileServiceMissingDir(t *testing.T) {
	t.Parallel()

	svc := service.NewStyleFileService(t.TempDir())
	files, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	defs, err := svc.Definitions()
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestStyleFileLabelsMultibyteNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stylesDir := filepath.Join(dir, "styles")
	require.NoError(t, os.MkdirAll(stylesDir, 0o755))
	for _, name := range []string{"école_nuit.json", "über-dark.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(stylesDir, name), []byte(customStyle), 0o644))
	}

	defs, err := service.NewStyleFileService(dir).Definitions()
	require.NoError(t, err)
	labels := make(map[string]string, len(defs))
	for _, d := range defs {
		labels[d.ID] = d.Label
	}
	assert.Equal(t, map[string]string{
		"école_nuit": "École Nuit",
		"über-dark":  "Über Dark",
	}, labels)
}
