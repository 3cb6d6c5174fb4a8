package face

import (
	"math"

	"face-match-go/config"

	"github.com/hupe1980/vecgo/distance"
	log "github.com/sirupsen/logrus"
)

// boostCutoff is the distance below which the optional additive boost
// applies. It sharpens separation near the decision boundary.
const boostCutoff = 0.5

// Scorer maps the L2 distance between two embeddings onto a 0-100
// similarity score via a logistic curve:
//
//	similarity = 100 / (1 + e^((distance - midpoint) * steepness))
//
// Lower distance means higher similarity.
type Scorer struct {
	midpoint  float64
	steepness float64
	boost     float64
}

// NewScorer creates a scorer from the configured curve constants.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		midpoint:  cfg.Midpoint,
		steepness: cfg.Steepness,
		boost:     cfg.Boost,
	}
}

// Similarity computes the score for one embedding pair. Unusable input
// degrades to 0.0 ("not a match") rather than failing, so a single bad pair
// can never abort the matching loop.
func (s *Scorer) Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		log.Warnf("Cannot score embeddings of length %d and %d", len(a), len(b))
		return 0.0
	}

	d := math.Sqrt(float64(distance.SquaredL2(a, b)))

	similarity := 100 / (1 + math.Exp((d-s.midpoint)*s.steepness))
	if s.boost > 0 && d < boostCutoff {
		similarity += s.boost * (boostCutoff - d)
	}

	log.Debugf("Face distance: %.3f, similarity: %.2f%%", d, similarity)

	return clampScore(similarity)
}

func clampScore(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
