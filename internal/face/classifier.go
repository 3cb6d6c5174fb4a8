package face

import (
	"math"
	"strings"

	"face-match-go/config"
)

// Verdict categories for a winning similarity score.
const (
	VerdictExactMatch    = "EXACT_MATCH"
	VerdictPossibleMatch = "POSSIBLE_MATCH"
	VerdictNoMatch       = "NO_MATCH"
)

// Verdict is the categorical outcome for one comparison.
type Verdict struct {
	Match      bool
	Confidence float64
	Result     string
	Analysis   string
}

// Classifier maps a similarity score onto a verdict band with a
// human-readable analysis.
type Classifier struct {
	possibleThreshold float64
	exactThreshold    float64
	strongThreshold   float64
}

// NewClassifier creates a classifier from the configured thresholds.
func NewClassifier(cfg config.VerdictConfig) *Classifier {
	return &Classifier{
		possibleThreshold: cfg.PossibleThreshold,
		exactThreshold:    cfg.ExactThreshold,
		strongThreshold:   cfg.StrongThreshold,
	}
}

// Classify produces the verdict for a winning similarity score. The match
// flag is true for possible-match-or-better. Confidence is the score
// rounded to two decimals.
func (c *Classifier) Classify(similarity float64) Verdict {
	var result string
	var sentences []string

	switch {
	case similarity > c.exactThreshold:
		result = VerdictExactMatch
		sentences = append(sentences, "Exact match - facial features align strongly")
		if similarity > c.strongThreshold {
			sentences = append(sentences, "Very strong match with consistent core facial features")
		}
	case similarity > c.possibleThreshold:
		result = VerdictPossibleMatch
		sentences = append(sentences,
			"Possible match with some variations",
			"Core facial features show similarity despite differences",
			"Variations may be due to age, expression, lighting, or angle")
	default:
		result = VerdictNoMatch
		sentences = append(sentences,
			"No match - faces appear to be different",
			"Significant differences in key facial features")
	}

	return Verdict{
		Match:      similarity > c.possibleThreshold,
		Confidence: math.Round(similarity*100) / 100,
		Result:     result,
		Analysis:   strings.Join(sentences, ". ") + ".",
	}
}
