package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	image, err := DecodeImage("cat.png", pngBytes)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", image.Filename)
	assert.Equal(t, "image/png", image.ContentType)
	assert.Equal(t, len(pngBytes), image.Size())
}

func TestDecodeImage_RejectsNonImage(t *testing.T) {
	_, err := DecodeImage("notes.txt", []byte("just some text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a supported image")
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0600))

	image, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", image.Filename)
	assert.Equal(t, pngBytes, image.Data)
}

func TestLoadImage_Missing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read attachment")
}

func TestLoadImage_Directory(t *testing.T) {
	_, err := LoadImage(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}
