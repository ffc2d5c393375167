package domain

import "math"

// Calibration band for alignment scoring. Raw cosine similarity for short
// business text clusters tightly in the middle of [-1,1]; remapping the
// band [AlignmentFloor, AlignmentCeiling] onto [0,1] spreads observations
// across the full range.
const (
	AlignmentFloor   = 0.35
	AlignmentCeiling = 0.85

	// NeutralAlignment is returned when no reference vector exists.
	NeutralAlignment = 0.5
)

// AlignmentScore returns the calibrated similarity between an observation
// embedding and a reference ("canon") embedding, clamped to [0,1].
// A nil or empty reference yields NeutralAlignment without touching the
// observation vector.
func AlignmentScore(observation, reference []float32) float64 {
	if len(reference) == 0 {
		return NeutralAlignment
	}

	raw := CosineSimilarity(observation, reference)
	calibrated := (raw - AlignmentFloor) / (AlignmentCeiling - AlignmentFloor)
	return clamp01(calibrated)
}

// DriftScore is the inverse of AlignmentScore, clamped to [0,1].
func DriftScore(observation, reference []float32) float64 {
	return clamp01(1 - AlignmentScore(observation, reference))
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// clamp01 pins v to [0,1], guarding against floating-point overshoot.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
