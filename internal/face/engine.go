package face

import (
	"fmt"
	"image"
	"sync"

	"face-match-go/config"

	gocv "gocv.io/x/gocv"
)

// Engine is the delegated face detection and embedding capability. The
// Scanner drives it but never depends on a concrete implementation, so tests
// can substitute a stub.
type Engine interface {
	// Detect returns candidate face boxes in the given frame. The boxes are
	// in the frame's own coordinate space.
	Detect(img gocv.Mat) ([]image.Rectangle, error)

	// Embed computes the identity feature vector for a normalized face
	// crop. An error or an empty vector means the crop contained no usable
	// face.
	Embed(roi gocv.Mat) ([]float32, error)
}

// OpenCVEngine implements Engine with a Haar cascade detector and an
// OpenFace embedding network. The models are loaded once at construction
// and reused across requests; a mutex serializes calls because neither
// model is verified thread-safe.
type OpenCVEngine struct {
	cascade gocv.CascadeClassifier
	net     gocv.Net
	cfg     config.DetectorConfig
	mu      sync.Mutex
}

// embeddingInputSize is the blob side length the OpenFace network expects.
const embeddingInputSize = 96

// NewOpenCVEngine loads the cascade and embedding model from the configured
// paths. Both models are required; the engine fails construction rather
// than degrade.
func NewOpenCVEngine(cfg config.DetectorConfig) (*OpenCVEngine, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cfg.CascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("failed to load face cascade from %s", cfg.CascadePath)
	}

	net := gocv.ReadNetFromTorch(cfg.EmbeddingModelPath)
	if net.Empty() {
		cascade.Close()
		return nil, fmt.Errorf("failed to load embedding model from %s", cfg.EmbeddingModelPath)
	}

	return &OpenCVEngine{
		cascade: cascade,
		net:     net,
		cfg:     cfg,
	}, nil
}

// Detect runs the cascade over the frame and returns every raw detection.
// Filtering is the Scanner's job.
func (e *OpenCVEngine) Detect(img gocv.Mat) ([]image.Rectangle, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot detect faces in an empty image")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rects := e.cascade.DetectMultiScaleWithParams(
		img,
		e.cfg.ScaleFactor,
		e.cfg.MinNeighbors,
		0,
		image.Pt(e.cfg.MinSizeWidth, e.cfg.MinSizeHeight),
		image.Pt(0, 0),
	)
	return rects, nil
}

// Embed runs the crop through the embedding network and returns a copy of
// the output vector.
func (e *OpenCVEngine) Embed(roi gocv.Mat) ([]float32, error) {
	if roi.Empty() {
		return nil, fmt.Errorf("%w: empty face crop", ErrFeatureExtraction)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	blob := gocv.BlobFromImage(
		roi,
		1.0/255.0,
		image.Pt(embeddingInputSize, embeddingInputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true, // the network expects RGB, frames are BGR
		false,
	)
	defer blob.Close()

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	if out.Empty() || out.Total() == 0 {
		return nil, fmt.Errorf("%w: network produced no output", ErrFeatureExtraction)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeatureExtraction, err)
	}

	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}

// Close releases the cascade and the network.
func (e *OpenCVEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.cascade.Close(); err != nil {
		return err
	}
	return e.net.Close()
}
