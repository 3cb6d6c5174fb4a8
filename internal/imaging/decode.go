// Package imaging converts inbound image payloads into OpenCV matrices.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	gocv "gocv.io/x/gocv"
)

var (
	// ErrImageDecoding marks a malformed base64 payload.
	ErrImageDecoding = errors.New("invalid base64 image payload")

	// ErrImageFormat marks bytes that decoded fine as base64 but do not
	// form a readable image.
	ErrImageFormat = errors.New("unreadable image data")
)

// DecodeBase64Image decodes a base64 string into a color image. The string
// may carry a data-URL header ("data:image/jpeg;base64,<payload>"), which is
// stripped before decoding. Decoding is all-or-nothing: on any failure the
// returned Mat is empty and must not be used.
func DecodeBase64Image(data string) (gocv.Mat, error) {
	payload := stripDataURLHeader(data)

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrImageDecoding, err)
	}

	img, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrImageFormat, err)
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), ErrImageFormat
	}

	return img, nil
}

// stripDataURLHeader removes a data-URL prefix if one is present. The
// ";base64," delimiter takes precedence; a bare comma is the fallback for
// non-standard variants.
func stripDataURLHeader(s string) string {
	if idx := strings.LastIndex(s, ";base64,"); idx >= 0 {
		return s[idx+len(";base64,"):]
	}
	if idx := strings.Index(s, ","); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
