package face

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"face-match-go/config"

	log "github.com/sirupsen/logrus"
	gocv "gocv.io/x/gocv"
)

// SkipReason classifies why the scanner dropped a detection or a whole
// rotation pass.
type SkipReason string

const (
	SkipFaceTooSmall   SkipReason = "face_too_small"
	SkipAspectRatio    SkipReason = "bad_aspect_ratio"
	SkipEmbedding      SkipReason = "embedding_failed"
	SkipDetectorFailed SkipReason = "detector_failed"
)

// Skip records one dropped item during a scan.
type Skip struct {
	Angle  int
	Reason SkipReason
	Detail string
}

// ScanReport collects the items a scan dropped, so callers (and tests) can
// inspect them instead of digging through logs.
type ScanReport struct {
	Skips []Skip
}

func (r *ScanReport) add(angle int, reason SkipReason, detail string) {
	r.Skips = append(r.Skips, Skip{Angle: angle, Reason: reason, Detail: detail})
}

// Count returns how many items were skipped for the given reason.
func (r *ScanReport) Count(reason SkipReason) int {
	n := 0
	for _, s := range r.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// ScannerOptions is the detection filtering and normalization policy.
type ScannerOptions struct {
	MinFaceRatio   float64
	MinAspectRatio float64
	MaxAspectRatio float64
	ROIMargin      float64
	ROISize        int

	// KeepROIs makes the scanner retain the normalized crop on each
	// DetectedFace, for later persistence. The caller owns the Mats.
	KeepROIs bool
}

// ScannerOptionsFromConfig builds ScannerOptions from the config section.
func ScannerOptionsFromConfig(cfg config.ScannerConfig, keepROIs bool) ScannerOptions {
	return ScannerOptions{
		MinFaceRatio:   cfg.MinFaceRatio,
		MinAspectRatio: cfg.MinAspectRatio,
		MaxAspectRatio: cfg.MaxAspectRatio,
		ROIMargin:      cfg.ROIMargin,
		ROISize:        cfg.ROISize,
		KeepROIs:       keepROIs,
	}
}

// Scanner finds faces in an image by trying all four axis-aligned
// rotations. Per-rotation and per-face failures are recorded and skipped;
// the scan as a whole only fails when every avenue produced nothing.
type Scanner struct {
	engine Engine
	opts   ScannerOptions
}

// NewScanner creates a scanner around the given engine.
func NewScanner(engine Engine, opts ScannerOptions) *Scanner {
	return &Scanner{engine: engine, opts: opts}
}

// rotationAngles are counter-clockwise rotations, tried in order.
var rotationAngles = [4]int{0, 90, 180, 270}

// Scan detects faces in img across all four rotations and returns them
// sorted by pixel area, largest first. The prefix is prepended to log lines
// so concurrent reference/actual scans stay distinguishable.
func (s *Scanner) Scan(img gocv.Mat, prefix string) ([]DetectedFace, *ScanReport, error) {
	if img.Empty() {
		return nil, nil, errors.New("input image is empty")
	}

	log.Debugf("%sscanning image %dx%d", prefix, img.Cols(), img.Rows())

	report := &ScanReport{}
	var faces []DetectedFace

	for _, angle := range rotationAngles {
		frame := rotateExact(img, angle)

		found := s.scanRotation(frame, angle, prefix, report)
		log.Debugf("%saccepted %d face(s) at %d degrees", prefix, len(found), angle)
		faces = append(faces, found...)

		if angle != 0 {
			frame.Close()
		}
	}

	if len(faces) == 0 {
		return nil, report, fmt.Errorf("%w after trying all rotations", ErrNoFaceDetected)
	}

	// Larger detections are usually more reliable; the matcher still
	// examines all of them, so this ordering is advisory.
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Area > faces[j].Area
	})

	return faces, report, nil
}

// scanRotation runs detection, filtering and embedding for one rotated
// frame. Failures are recorded on the report and never abort the pass.
func (s *Scanner) scanRotation(frame gocv.Mat, angle int, prefix string, report *ScanReport) []DetectedFace {
	rects, err := s.engine.Detect(frame)
	if err != nil {
		log.Warnf("%sdetection failed at %d degrees: %v", prefix, angle, err)
		report.add(angle, SkipDetectorFailed, err.Error())
		return nil
	}

	frameW := frame.Cols()
	frameH := frame.Rows()
	frameArea := frameW * frameH
	if frameArea == 0 {
		return nil
	}

	var faces []DetectedFace
	for _, r := range rects {
		w := r.Dx()
		h := r.Dy()
		if w <= 0 || h <= 0 {
			continue
		}

		// Faces occupying under MinFaceRatio of the frame are treated
		// as detector noise.
		ratio := float64(w*h) / float64(frameArea)
		if ratio < s.opts.MinFaceRatio {
			report.add(angle, SkipFaceTooSmall, fmt.Sprintf("face ratio %.4f", ratio))
			continue
		}

		// Real faces are roughly square; thin boxes are edge artifacts.
		aspect := float64(w) / float64(h)
		if aspect < s.opts.MinAspectRatio || aspect > s.opts.MaxAspectRatio {
			report.add(angle, SkipAspectRatio, fmt.Sprintf("aspect ratio %.2f", aspect))
			continue
		}

		roi := s.extractROI(frame, r)
		vec, err := s.engine.Embed(roi)
		if err != nil || len(vec) == 0 {
			detail := "empty embedding"
			if err != nil {
				detail = err.Error()
			}
			log.Warnf("%sskipping face at %d degrees: %s", prefix, angle, detail)
			report.add(angle, SkipEmbedding, detail)
			roi.Close()
			continue
		}

		face := DetectedFace{
			Embedding:  vec,
			Angle:      angle,
			Area:       w * h,
			Box:        transformBox(r, angle, frameW, frameH),
			Confidence: 1.0,
		}
		if s.opts.KeepROIs {
			face.ROI = roi
			face.HasROI = true
		} else {
			roi.Close()
		}
		faces = append(faces, face)
	}

	return faces
}

// extractROI crops the detection with a margin on each side, clamped to the
// frame, and resizes it to the normalized embedding input size.
func (s *Scanner) extractROI(frame gocv.Mat, r image.Rectangle) gocv.Mat {
	marginX := int(float64(r.Dx()) * s.opts.ROIMargin)
	marginY := int(float64(r.Dy()) * s.opts.ROIMargin)

	x1 := max(0, r.Min.X-marginX)
	y1 := max(0, r.Min.Y-marginY)
	x2 := min(frame.Cols(), r.Max.X+marginX)
	y2 := min(frame.Rows(), r.Max.Y+marginY)

	region := frame.Region(image.Rect(x1, y1, x2, y2))
	defer region.Close()

	roi := gocv.NewMat()
	gocv.Resize(region, &roi, image.Pt(s.opts.ROISize, s.opts.ROISize), 0, 0, gocv.InterpolationLinear)
	return roi
}

// rotateExact rotates img counter-clockwise by a multiple of 90 degrees.
// These rotations are exact pixel transposes, never interpolated. For angle
// 0 the input Mat itself is returned and must not be closed by the caller.
func rotateExact(img gocv.Mat, angle int) gocv.Mat {
	if angle == 0 {
		return img
	}
	dst := gocv.NewMat()
	switch angle {
	case 90:
		gocv.Rotate(img, &dst, gocv.Rotate90CounterClockwise)
	case 180:
		gocv.Rotate(img, &dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(img, &dst, gocv.Rotate90Clockwise)
	}
	return dst
}

// transformBox maps a detection from a rotated frame back into original
// image coordinates. frameW and frameH are the dimensions of the frame the
// detection ran on, which are swapped relative to the original for 90 and
// 270 degrees.
func transformBox(r image.Rectangle, angle, frameW, frameH int) BoundingBox {
	x := r.Min.X
	y := r.Min.Y
	w := r.Dx()
	h := r.Dy()

	switch angle {
	case 90:
		return BoundingBox{X: frameH - (y + h), Y: x, Width: h, Height: w}
	case 180:
		return BoundingBox{X: frameW - (x + w), Y: frameH - (y + h), Width: w, Height: h}
	case 270:
		return BoundingBox{X: y, Y: frameW - (x + w), Width: h, Height: w}
	default:
		return BoundingBox{X: x, Y: y, Width: w, Height: h}
	}
}
