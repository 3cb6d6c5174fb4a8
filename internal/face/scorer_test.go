package face

import (
	"testing"

	"face-match-go/config"
)

// embAtDistance builds a pair of embeddings whose L2 distance is exactly d.
func embAtDistance(d float32) ([]float32, []float32) {
	return []float32{0, 0, 0}, []float32{d, 0, 0}
}

func defaultScorer() *Scorer {
	return NewScorer(config.ScoringConfig{Midpoint: 0.5, Steepness: 12})
}

func TestSimilarityZeroDistance(t *testing.T) {
	a, b := embAtDistance(0)
	sim := defaultScorer().Similarity(a, b)
	if sim < 99 || sim > 100 {
		t.Errorf("Similarity at distance 0 = %.2f; want close to 100", sim)
	}
}

func TestSimilarityMonotonicAndBounded(t *testing.T) {
	s := defaultScorer()
	prev := 101.0
	for d := float32(0); d <= 1.2; d += 0.1 {
		a, b := embAtDistance(d)
		sim := s.Similarity(a, b)
		if sim < 0 || sim > 100 {
			t.Fatalf("Similarity at distance %.1f = %.2f; want within [0,100]", d, sim)
		}
		if sim > prev {
			t.Fatalf("Similarity increased from %.2f to %.2f as distance grew to %.1f", prev, sim, d)
		}
		prev = sim
	}
}

func TestSimilarityWithBoost(t *testing.T) {
	plain := defaultScorer()
	boosted := NewScorer(config.ScoringConfig{Midpoint: 0.5, Steepness: 12, Boost: 20})

	// The boost applies below distance 0.5 and must never push the score
	// past 100.
	a, b := embAtDistance(0)
	if sim := boosted.Similarity(a, b); sim != 100 {
		t.Errorf("Boosted similarity at distance 0 = %.2f; want capped at 100", sim)
	}

	a, b = embAtDistance(0.45)
	if bs, ps := boosted.Similarity(a, b), plain.Similarity(a, b); bs <= ps {
		t.Errorf("Boosted similarity %.2f not above plain %.2f at distance 0.45", bs, ps)
	}

	// Above the cutoff the boost must not apply.
	a, b = embAtDistance(0.8)
	if bs, ps := boosted.Similarity(a, b), plain.Similarity(a, b); bs != ps {
		t.Errorf("Boosted similarity %.2f differs from plain %.2f at distance 0.8", bs, ps)
	}

	// The boosted curve must stay monotonic too.
	prev := 101.0
	for d := float32(0); d <= 1.0; d += 0.05 {
		a, b := embAtDistance(d)
		sim := boosted.Similarity(a, b)
		if sim > prev {
			t.Fatalf("Boosted similarity increased from %.2f to %.2f at distance %.2f", prev, sim, d)
		}
		prev = sim
	}
}

func TestSimilarityDegradesToZero(t *testing.T) {
	s := defaultScorer()

	tests := []struct {
		name string
		a, b []float32
	}{
		{"both empty", nil, nil},
		{"first empty", nil, []float32{1, 2, 3}},
		{"second empty", []float32{1, 2, 3}, nil},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if sim := s.Similarity(tc.a, tc.b); sim != 0 {
				t.Errorf("Similarity = %.2f; want 0 for unusable input", sim)
			}
		})
	}
}
