package gateway

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"

	"gemichat/pkg/chattypes"
)

// MaxImageBytes caps attachments read from disk.
const MaxImageBytes = 20 << 20

// LoadImage reads an attachment and verifies it is an image by content sniffing.
func LoadImage(path string) (*chattypes.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("attachment %s is %d bytes, limit is %d", path, info.Size(), MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read attachment: %w", err)
	}
	return DecodeImage(filepath.Base(path), data)
}

// DecodeImage wraps raw bytes as an image attachment, rejecting non-image content.
func DecodeImage(filename string, data []byte) (*chattypes.Image, error) {
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("attachment %s is not a supported image", filename)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("cannot detect attachment type: %w", err)
	}
	return &chattypes.Image{
		Filename:    filename,
		ContentType: kind.MIME.Value,
		Data:        data,
	}, nil
}
