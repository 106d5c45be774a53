package library

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// DecodeImage returns the raw bytes of an image unit.
func DecodeImage(u Unit) ([]byte, error) {
	if u.Kind != UnitImage {
		return nil, fmt.Errorf("unit is not an image: %w", ErrInvalidArgument)
	}
	data, err := base64.StdEncoding.DecodeString(u.Text)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return data, nil
}

// ImageExtension inspects the decoded bytes and falls back to the format
// guessed from the base64 text.
func ImageExtension(data []byte, fallback ImageFormat) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && kind.Extension != "" {
		return kind.Extension
	}
	if fallback == ImagePNG {
		return "png"
	}
	return "jpg"
}

// SaveImage writes an image unit to dir as name.<ext> and returns the path.
func SaveImage(dir, name string, u Unit) (string, error) {
	data, err := DecodeImage(u)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+"."+ImageExtension(data, u.Format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
