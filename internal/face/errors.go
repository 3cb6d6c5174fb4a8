package face

import "errors"

var (
	// ErrNoFaceDetected is returned when an image yields zero accepted
	// faces after all rotations have been tried.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrNoMatchingFace is returned when no pair in the cross-product
	// produced a usable similarity.
	ErrNoMatchingFace = errors.New("no matching face found")

	// ErrFeatureExtraction is returned when the detector found a face but
	// no embedding could be computed for it.
	ErrFeatureExtraction = errors.New("face feature extraction failed")
)
