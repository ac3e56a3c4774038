package progress

import "math"

// SelectBestAttempt returns the index of the authoritative attempt: highest ScorePercent,
// ties broken by higher PointsScore, remaining ties won by the earlier attempt.
// ok is false when attempts is empty.
func SelectBestAttempt(attempts []Attempt) (index int, ok bool) {
	if len(attempts) == 0 {
		return -1, false
	}

	best := 0
	for i := 1; i < len(attempts); i++ {
		if outranks(attempts[i], attempts[best]) {
			best = i
		}
	}

	return best, true
}

func outranks(candidate, current Attempt) bool {
	candidateScore := rankScore(candidate.ScorePercent)
	currentScore := rankScore(current.ScorePercent)
	if candidateScore != currentScore {
		return candidateScore > currentScore
	}
	return candidate.PointsScore > current.PointsScore
}

// rankScore keeps NaN from breaking the ordering.
func rankScore(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return value
}
