package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// DataURLPrefix is the header of PNG data URLs produced by EncodeDataURL.
const DataURLPrefix = "data:image/png;base64,"

// ErrEmptyPayload is returned when decoding an empty image payload.
var ErrEmptyPayload = errors.New("empty image payload")

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes any registered image format into an origin-based RGBA.
func Decode(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return ToRGBA(img), nil
}

// EncodeDataURL returns img as a base64 PNG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DataURLBytes strips an optional "data:image/...;base64," header and
// returns the decoded payload bytes.
func DataURLBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:image") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		s = s[idx+1:]
	}
	if s == "" {
		return nil, ErrEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// DecodeDataURL decodes a data URL (or bare base64) image payload.
func DecodeDataURL(s string) (*image.RGBA, error) {
	data, err := DataURLBytes(s)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
