package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	gocv "gocv.io/x/gocv"
)

// encodedTestImage returns the base64 payload of a small PNG image.
func encodedTestImage(t *testing.T) string {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 120, 200, 0), 24, 32, gocv.MatTypeCV8UC3)
	defer img.Close()

	buf, err := gocv.IMEncode(".png", img)
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	defer buf.Close()

	return base64.StdEncoding.EncodeToString(buf.GetBytes())
}

func TestDecodeBase64Image(t *testing.T) {
	payload := encodedTestImage(t)

	img, err := DecodeBase64Image(payload)
	if err != nil {
		t.Fatalf("DecodeBase64Image failed: %v", err)
	}
	defer img.Close()

	if img.Cols() != 32 || img.Rows() != 24 {
		t.Errorf("decoded image is %dx%d; want 32x24", img.Cols(), img.Rows())
	}
	if img.Channels() != 3 {
		t.Errorf("decoded image has %d channels; want 3", img.Channels())
	}
}

func TestDecodeDataURLMatchesBarePayload(t *testing.T) {
	payload := encodedTestImage(t)

	bare, err := DecodeBase64Image(payload)
	if err != nil {
		t.Fatalf("decoding bare payload failed: %v", err)
	}
	defer bare.Close()

	prefixed, err := DecodeBase64Image("data:image/png;base64," + payload)
	if err != nil {
		t.Fatalf("decoding prefixed payload failed: %v", err)
	}
	defer prefixed.Close()

	if !bytes.Equal(bare.ToBytes(), prefixed.ToBytes()) {
		t.Error("prefixed and bare payloads decoded to different pixel buffers")
	}
}

func TestDecodeCommaDelimitedFallback(t *testing.T) {
	payload := encodedTestImage(t)

	img, err := DecodeBase64Image("image/png," + payload)
	if err != nil {
		t.Fatalf("decoding comma-delimited payload failed: %v", err)
	}
	defer img.Close()

	if img.Empty() {
		t.Error("decoded image is empty")
	}
}

func TestDecodeMalformedBase64(t *testing.T) {
	_, err := DecodeBase64Image("this is not base64!!!")
	if !errors.Is(err, ErrImageDecoding) {
		t.Errorf("error = %v; want ErrImageDecoding", err)
	}
}

func TestDecodeNonImageBytes(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("definitely not an image"))
	_, err := DecodeBase64Image(payload)
	if !errors.Is(err, ErrImageFormat) {
		t.Errorf("error = %v; want ErrImageFormat", err)
	}
}
