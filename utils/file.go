package utils

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeToUTF8 attempts to decode arbitrary text bytes to UTF-8.
// It supports:
// - UTF-8 (with or without BOM)
// - UTF-16 LE/BE with BOM
// - GB18030/GBK (common for Simplified Chinese)
func DecodeToUTF8(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	// Handle UTF-8 BOM
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}

	// Handle UTF-16 BOMs
	if bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		r := transform.NewReader(bytes.NewReader(data), unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		if b, err := io.ReadAll(r); err == nil {
			return string(b)
		}
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		r := transform.NewReader(bytes.NewReader(data), unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		if b, err := io.ReadAll(r); err == nil {
			return string(b)
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	for _, dec := range []transform.Transformer{
		simplifiedchinese.GB18030.NewDecoder(),
		simplifiedchinese.GBK.NewDecoder(),
		simplifiedchinese.HZGB2312.NewDecoder(),
	} {
		r := transform.NewReader(bytes.NewReader(data), dec)
		b, err := io.ReadAll(r)
		if err == nil && utf8.Valid(b) {
			return string(b)
		}
	}

	// Fallback: treat as UTF-8 with possible invalid sequences
	return string(data)
}

// SplitLines decodes text and splits it on any line ending.
func SplitLines(data []byte) []string {
	decoded := DecodeToUTF8(data)
	normalized := strings.ReplaceAll(decoded, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}
