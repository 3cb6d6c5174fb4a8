// Package face implements the face comparison pipeline: multi-rotation
// detection, best-pair matching, similarity scoring and verdict
// classification. Detection and embedding themselves are delegated to an
// Engine implementation.
package face

import (
	gocv "gocv.io/x/gocv"
)

// BoundingBox locates a face in original (unrotated) image coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedFace is one accepted detection produced by the Scanner.
type DetectedFace struct {
	// ROI is the normalized face crop. Only valid when HasROI is set; the
	// owner of the slice returned by Scan must close it.
	ROI    gocv.Mat
	HasROI bool

	// Embedding is the identity feature vector for the crop.
	Embedding []float32

	// Angle is the rotation (0, 90, 180 or 270 degrees counter-clockwise)
	// at which the face was found.
	Angle int

	// Area is the pixel area of the detection box.
	Area int

	// Box is the detection mapped back into original image coordinates.
	Box BoundingBox

	// Confidence of the detection. The cascade detector exposes no usable
	// score, so accepted detections carry 1.0.
	Confidence float64
}

// MatchCandidate pairs a reference face with a candidate face and the
// similarity computed for the pair.
type MatchCandidate struct {
	Reference  *DetectedFace
	Actual     *DetectedFace
	Similarity float64
}

// FaceRef carries a face's bounding box, and a crop URL when crop
// persistence is enabled, in API responses.
type FaceRef struct {
	Box BoundingBox `json:"box"`
	URL string      `json:"url,omitempty"`
}

// ComparisonResult is the terminal artifact of one match request.
type ComparisonResult struct {
	Match         bool    `json:"match"`
	Confidence    float64 `json:"confidence"`
	Analysis      string  `json:"analysis"`
	Result        string  `json:"result"`
	ReferenceFace FaceRef `json:"referenceFace"`
	ActualFace    FaceRef `json:"actualFace"`
}
