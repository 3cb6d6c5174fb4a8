package face

// Matcher selects the best-scoring pair across two sets of detected faces.
type Matcher struct {
	scorer *Scorer
}

// NewMatcher creates a matcher using the given scorer.
func NewMatcher(scorer *Scorer) *Matcher {
	return &Matcher{scorer: scorer}
}

// BestPair scores the full reference x actual cross-product and returns the
// pair with the strictly greatest similarity. Ties keep the first pair
// encountered in reference-major order. If no pair produced a usable score,
// ErrNoMatchingFace is returned.
func (m *Matcher) BestPair(reference, actual []DetectedFace) (*MatchCandidate, error) {
	var best *MatchCandidate
	bestSimilarity := 0.0

	for i := range reference {
		for j := range actual {
			similarity := m.scorer.Similarity(reference[i].Embedding, actual[j].Embedding)
			if similarity > bestSimilarity {
				bestSimilarity = similarity
				best = &MatchCandidate{
					Reference:  &reference[i],
					Actual:     &actual[j],
					Similarity: similarity,
				}
			}
		}
	}

	if best == nil {
		return nil, ErrNoMatchingFace
	}
	return best, nil
}
