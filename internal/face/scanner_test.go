package face

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	gocv "gocv.io/x/gocv"
)

// stubEngine lets tests script detection and embedding behavior without
// loading any model files.
type stubEngine struct {
	detect func(img gocv.Mat) ([]image.Rectangle, error)
	embed  func(roi gocv.Mat) ([]float32, error)
}

func (s *stubEngine) Detect(img gocv.Mat) ([]image.Rectangle, error) { return s.detect(img) }
func (s *stubEngine) Embed(roi gocv.Mat) ([]float32, error)          { return s.embed(roi) }

func fixedEmbed(gocv.Mat) ([]float32, error) { return []float32{1, 2, 3}, nil }

func testOptions() ScannerOptions {
	return ScannerOptions{
		MinFaceRatio:   0.01,
		MinAspectRatio: 0.5,
		MaxAspectRatio: 1.5,
		ROIMargin:      0.3,
		ROISize:        160,
	}
}

// blackImage creates a rows x cols black color image. The caller closes it.
func blackImage(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// findBrightRect locates the bounding box of bright pixels in a frame. It
// stands in for a real detector in tests.
func findBrightRect(frame gocv.Mat) ([]image.Rectangle, error) {
	minX, minY := frame.Cols(), frame.Rows()
	maxX, maxY := -1, -1
	for r := 0; r < frame.Rows(); r++ {
		for c := 0; c < frame.Cols(); c++ {
			if frame.GetUCharAt(r, c*frame.Channels()) > 128 {
				if c < minX {
					minX = c
				}
				if c > maxX {
					maxX = c
				}
				if r < minY {
					minY = r
				}
				if r > maxY {
					maxY = r
				}
			}
		}
	}
	if maxX < 0 {
		return nil, nil
	}
	return []image.Rectangle{image.Rect(minX, minY, maxX+1, maxY+1)}, nil
}

func TestScanFiltersDetections(t *testing.T) {
	img := blackImage(100, 100)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) {
			return []image.Rectangle{
				image.Rect(0, 0, 8, 8),     // 0.64% of frame area: noise
				image.Rect(0, 0, 10, 40),   // aspect ratio 0.25: artifact
				image.Rect(10, 10, 40, 40), // acceptable
			}, nil
		},
		embed: fixedEmbed,
	}

	faces, report, err := NewScanner(engine, testOptions()).Scan(img, "")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// One acceptable detection per rotation pass.
	if len(faces) != 4 {
		t.Errorf("accepted %d faces; want 4", len(faces))
	}
	if n := report.Count(SkipFaceTooSmall); n != 4 {
		t.Errorf("SkipFaceTooSmall count = %d; want 4", n)
	}
	if n := report.Count(SkipAspectRatio); n != 4 {
		t.Errorf("SkipAspectRatio count = %d; want 4", n)
	}
	for _, f := range faces {
		if f.Confidence != 1.0 {
			t.Errorf("accepted face has confidence %.2f; want 1.0", f.Confidence)
		}
	}
}

func TestScanRotationRoundTrip(t *testing.T) {
	// Non-square frame with a single bright square at a known location.
	// Whatever rotation the detector finds it at, the back-transformed box
	// must land on the same original coordinates.
	img := blackImage(80, 120)
	defer img.Close()
	white := color.RGBA{255, 255, 255, 0}
	gocv.Rectangle(&img, image.Rect(30, 20, 50, 40), white, -1)

	engine := &stubEngine{detect: findBrightRect, embed: fixedEmbed}

	faces, _, err := NewScanner(engine, testOptions()).Scan(img, "")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(faces) != 4 {
		t.Fatalf("found %d faces; want one per rotation", len(faces))
	}

	boxes := make(map[int]BoundingBox)
	for _, f := range faces {
		boxes[f.Angle] = f.Box
	}
	base, ok := boxes[0]
	if !ok {
		t.Fatal("no face found at 0 degrees")
	}
	if base.X != 30 || base.Y != 20 {
		t.Errorf("0-degree box at (%d,%d); want (30,20)", base.X, base.Y)
	}
	for _, angle := range []int{90, 180, 270} {
		if boxes[angle] != base {
			t.Errorf("box at %d degrees = %+v; want %+v", angle, boxes[angle], base)
		}
	}

	// Every box stays within original image bounds.
	for angle, b := range boxes {
		if b.X < 0 || b.Y < 0 || b.X+b.Width > 120 || b.Y+b.Height > 80 {
			t.Errorf("box at %d degrees out of bounds: %+v", angle, b)
		}
	}
}

func TestScanSortsByArea(t *testing.T) {
	img := blackImage(200, 200)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) {
			return []image.Rectangle{
				image.Rect(0, 0, 20, 20),
				image.Rect(50, 50, 90, 90),
			}, nil
		},
		embed: fixedEmbed,
	}

	faces, _, err := NewScanner(engine, testOptions()).Scan(img, "")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	for i := 1; i < len(faces); i++ {
		if faces[i].Area > faces[i-1].Area {
			t.Fatalf("faces not sorted by area: %d before %d", faces[i-1].Area, faces[i].Area)
		}
	}
	if faces[0].Area != 1600 {
		t.Errorf("largest face area = %d; want 1600", faces[0].Area)
	}
}

func TestScanNoFaces(t *testing.T) {
	img := blackImage(100, 100)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) { return nil, nil },
		embed:  fixedEmbed,
	}

	_, report, err := NewScanner(engine, testOptions()).Scan(img, "")
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Scan error = %v; want ErrNoFaceDetected", err)
	}
	if len(report.Skips) != 0 {
		t.Errorf("report has %d skips; want 0", len(report.Skips))
	}
}

func TestScanEmbeddingFailuresAreSkipped(t *testing.T) {
	img := blackImage(100, 100)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) {
			return []image.Rectangle{image.Rect(10, 10, 50, 50)}, nil
		},
		embed: func(gocv.Mat) ([]float32, error) {
			return nil, fmt.Errorf("%w: no face in crop", ErrFeatureExtraction)
		},
	}

	_, report, err := NewScanner(engine, testOptions()).Scan(img, "")
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Scan error = %v; want ErrNoFaceDetected", err)
	}
	if n := report.Count(SkipEmbedding); n != 4 {
		t.Errorf("SkipEmbedding count = %d; want 4", n)
	}
}

func TestScanDetectorFailuresAreSkipped(t *testing.T) {
	img := blackImage(100, 100)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) {
			return nil, errors.New("detector exploded")
		},
		embed: fixedEmbed,
	}

	_, report, err := NewScanner(engine, testOptions()).Scan(img, "")
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Scan error = %v; want ErrNoFaceDetected", err)
	}
	if n := report.Count(SkipDetectorFailed); n != 4 {
		t.Errorf("SkipDetectorFailed count = %d; want 4", n)
	}
}

func TestScanKeepsROIsWhenConfigured(t *testing.T) {
	img := blackImage(100, 100)
	defer img.Close()

	engine := &stubEngine{
		detect: func(gocv.Mat) ([]image.Rectangle, error) {
			return []image.Rectangle{image.Rect(10, 10, 50, 50)}, nil
		},
		embed: fixedEmbed,
	}

	opts := testOptions()
	opts.KeepROIs = true

	faces, _, err := NewScanner(engine, opts).Scan(img, "")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	defer closeFaces(faces)

	for _, f := range faces {
		if !f.HasROI {
			t.Fatal("face has no ROI although KeepROIs is set")
		}
		if f.ROI.Cols() != 160 || f.ROI.Rows() != 160 {
			t.Errorf("ROI is %dx%d; want 160x160", f.ROI.Cols(), f.ROI.Rows())
		}
	}
}
