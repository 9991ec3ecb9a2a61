package services

// ScoreWeights define relative point values (tunable via config/env later)
type ScoreWeights struct {
	PointsPerTrack      int64 `default:"1"`
	PointsPerArtist     int64 `default:"10"`
	MsPerListeningPoint int64 `default:"60000"` // 1 point per full minute
}

var DefaultScoreWeights = ScoreWeights{
	PointsPerTrack:      1,
	PointsPerArtist:     10,
	MsPerListeningPoint: 60000,
}

// ReferralShare is the fraction of an invitee's own total passed through to
// its inviter on each recomputation.
const ReferralShare = 0.20

// ScoreBreakdown is the identity's own contribution. Referral points are
// additive on top and computed separately.
type ScoreBreakdown struct {
	Volume    int64 `json:"volume_score"`
	Diversity int64 `json:"diversity_score"`
	History   int64 `json:"history_score"`
	Total     int64 `json:"total"`
}

// ScoreCounters maps accumulated counters to sub-scores. Pure: same counters
// always yield the same breakdown. Outputs are clamped at zero; counters
// are non-negative by contract, so the clamp never fires in normal operation.
func ScoreCounters(tracksPlayed, uniqueArtists, listeningTimeMs int64) ScoreBreakdown {
	w := DefaultScoreWeights
	b := ScoreBreakdown{
		Volume:    clampScore(tracksPlayed * w.PointsPerTrack),
		Diversity: clampScore(uniqueArtists * w.PointsPerArtist),
		History:   clampScore(listeningTimeMs / w.MsPerListeningPoint),
	}
	b.Total = b.Volume + b.Diversity + b.History
	return b
}

func clampScore(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
