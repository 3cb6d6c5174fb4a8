package face

import (
	"fmt"

	"face-match-go/internal/imaging"
	"face-match-go/internal/storage"

	log "github.com/sirupsen/logrus"
)

// ResultPublisher receives every completed comparison. Publishing is a side
// effect: failures are logged and never surface on the request.
type ResultPublisher interface {
	PublishResult(result *ComparisonResult) error
}

// Service runs the full comparison pipeline for one request: decode both
// images, scan them sequentially, pick the best pair, classify it and
// assemble the result.
type Service struct {
	scanner    *Scanner
	matcher    *Matcher
	classifier *Classifier
	crops      storage.CropStore
	publisher  ResultPublisher
}

// NewService wires the pipeline stages together. crops and publisher are
// optional; nil disables the respective side effect.
func NewService(scanner *Scanner, matcher *Matcher, classifier *Classifier, crops storage.CropStore, publisher ResultPublisher) *Service {
	return &Service{
		scanner:    scanner,
		matcher:    matcher,
		classifier: classifier,
		crops:      crops,
		publisher:  publisher,
	}
}

// CompareFaces compares the faces in two base64-encoded images and returns
// the verdict for the best-matching pair.
func (s *Service) CompareFaces(referenceImage, actualImage string) (*ComparisonResult, error) {
	log.Info("Decoding reference image...")
	refImg, err := imaging.DecodeBase64Image(referenceImage)
	if err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}
	defer refImg.Close()

	log.Info("Decoding actual image...")
	actImg, err := imaging.DecodeBase64Image(actualImage)
	if err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	defer actImg.Close()

	// The two images are scanned one after the other to keep peak memory
	// bounded to a single image's transient buffers.
	log.Info("Processing reference image...")
	refFaces, refReport, err := s.scanner.Scan(refImg, "Reference: ")
	if err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}
	defer closeFaces(refFaces)
	logSkips("Reference", refReport)

	log.Info("Processing actual image...")
	actFaces, actReport, err := s.scanner.Scan(actImg, "Actual: ")
	if err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	defer closeFaces(actFaces)
	logSkips("Actual", actReport)

	best, err := s.matcher.BestPair(refFaces, actFaces)
	if err != nil {
		return nil, err
	}

	log.Infof("Best match: reference face at %d°, actual face at %d°, similarity %.2f%%",
		best.Reference.Angle, best.Actual.Angle, best.Similarity)

	verdict := s.classifier.Classify(best.Similarity)
	result := &ComparisonResult{
		Match:         verdict.Match,
		Confidence:    verdict.Confidence,
		Analysis:      verdict.Analysis,
		Result:        verdict.Result,
		ReferenceFace: FaceRef{Box: best.Reference.Box},
		ActualFace:    FaceRef{Box: best.Actual.Box},
	}

	s.persistCrops(best, result)

	if s.publisher != nil {
		if err := s.publisher.PublishResult(result); err != nil {
			log.Warnf("Failed to publish comparison result: %v", err)
		}
	}

	return result, nil
}

// persistCrops saves the winning pair's crops and attaches their URLs to
// the result. Failures degrade to a result without URLs.
func (s *Service) persistCrops(best *MatchCandidate, result *ComparisonResult) {
	if s.crops == nil {
		return
	}

	if best.Reference.HasROI {
		if url, err := s.crops.SaveCrop(best.Reference.ROI); err != nil {
			log.Warnf("Failed to save reference face crop: %v", err)
		} else {
			result.ReferenceFace.URL = url
		}
	}
	if best.Actual.HasROI {
		if url, err := s.crops.SaveCrop(best.Actual.ROI); err != nil {
			log.Warnf("Failed to save actual face crop: %v", err)
		} else {
			result.ActualFace.URL = url
		}
	}
}

func logSkips(label string, report *ScanReport) {
	if report != nil && len(report.Skips) > 0 {
		log.Debugf("%s scan skipped %d candidate(s)", label, len(report.Skips))
	}
}

// closeFaces releases any ROI Mats the scanner retained.
func closeFaces(faces []DetectedFace) {
	for i := range faces {
		if faces[i].HasROI {
			faces[i].ROI.Close()
		}
	}
}
