package library

import (
	"bytes"
	"encoding/base64"
	"strings"
)

type UnitKind int

const (
	UnitText UnitKind = iota
	UnitImage
)

type ImageFormat string

const (
	ImageJPEG ImageFormat = "jpeg"
	ImagePNG  ImageFormat = "png"
)

// MIME returns the media type used in data URIs.
func (f ImageFormat) MIME() string { return "image/" + string(f) }

const (
	jpegSignature = "/9j/"
	pngSignature  = "iVBORw0KGgo"

	minImageUnitLen = 1000
	sniffPrefixLen  = 100
)

// Unit is a classified content unit.
type Unit struct {
	Kind   UnitKind
	Text   string
	Format ImageFormat // only for UnitImage
}

// Classify decides whether a raw unit is text or an embedded image.
func Classify(raw string) Unit {
	if IsImageUnit(raw) {
		return Unit{Kind: UnitImage, Text: raw, Format: DetectImageFormat(raw)}
	}
	return Unit{Kind: UnitText, Text: raw}
}

// IsImageUnit reports whether s looks like a base64 encoded JPEG or PNG page.
func IsImageUnit(s string) bool {
	if len(s) <= minImageUnitLen {
		return false
	}
	if !strings.HasPrefix(s, jpegSignature) && !strings.HasPrefix(s, pngSignature) {
		return false
	}
	return isBase64Alphabet(s)
}

func isBase64Alphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=':
		default:
			return false
		}
	}
	return true
}

// DetectImageFormat guesses the image format of base64 data, defaulting to JPEG.
func DetectImageFormat(s string) ImageFormat {
	switch {
	case strings.HasPrefix(s, jpegSignature):
		return ImageJPEG
	case strings.HasPrefix(s, pngSignature):
		return ImagePNG
	}

	head := s
	if len(head) > sniffPrefixLen {
		head = head[:sniffPrefixLen]
	}
	head = head[:len(head)-len(head)%4]
	data, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		return ImageJPEG
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return ImageJPEG
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return ImagePNG
	}
	return ImageJPEG
}
