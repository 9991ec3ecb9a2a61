package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulateCreatesProfileAndScores(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	profile, err := svc.Accumulate("U1@Example.com", EngagementDelta{
		TracksPlayedCount: 10,
		UniqueArtistCount: 3,
		ListeningTimeMs:   180000,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1@example.com", profile.Identity)
	assert.Equal(t, int64(10), profile.TracksPlayedCount)
	assert.Equal(t, int64(10), profile.VolumeScore)
	assert.Equal(t, int64(30), profile.DiversityScore)
	assert.Equal(t, int64(3), profile.HistoryScore)
	assert.Equal(t, int64(43), profile.TotalBasePoints)
}

func TestAccumulateMergesDeltasWithoutRegression(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	_, err := svc.Accumulate("u1@example.com", EngagementDelta{
		TracksPlayedCount: 10,
		UniqueArtistCount: 3,
		ListeningTimeMs:   180000,
	})
	require.NoError(t, err)

	// Partial report: only new tracks, zero for everything already seen
	profile, err := svc.Accumulate("u1@example.com", EngagementDelta{
		TracksPlayedCount: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15), profile.TracksPlayedCount)
	assert.Equal(t, int64(3), profile.UniqueArtistCount, "zero delta must not overwrite the stored counter")
	assert.Equal(t, int64(180000), profile.ListeningTimeMs)
	// 15 tracks + 3 artists * 10 + 3 full minutes
	assert.Equal(t, int64(48), profile.TotalBasePoints)
}

// Each counter is non-decreasing across any sequence of valid deltas.
func TestAccumulateMonotonicity(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	deltas := []EngagementDelta{
		{TracksPlayedCount: 5},
		{TracksPlayedCount: 0},
		{UniqueArtistCount: 2, ListeningTimeMs: 60000},
		{},
		{TracksPlayedCount: 1, AnonymousTracksPlayedCount: 4},
	}

	var prevTracks, prevArtists, prevMs, prevAnon int64
	for i, d := range deltas {
		profile, err := svc.Accumulate("mono@example.com", d)
		require.NoError(t, err, "delta %d", i)
		assert.GreaterOrEqual(t, profile.TracksPlayedCount, prevTracks)
		assert.GreaterOrEqual(t, profile.UniqueArtistCount, prevArtists)
		assert.GreaterOrEqual(t, profile.ListeningTimeMs, prevMs)
		assert.GreaterOrEqual(t, profile.AnonymousTracksPlayedCount, prevAnon)
		prevTracks = profile.TracksPlayedCount
		prevArtists = profile.UniqueArtistCount
		prevMs = profile.ListeningTimeMs
		prevAnon = profile.AnonymousTracksPlayedCount
	}

	final, err := svc.GetPoints("mono@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(6), final.TracksPlayedCount)
	assert.Equal(t, int64(4), final.AnonymousTracksPlayedCount)
}

func TestAccumulateRejectsNegativeDeltas(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	_, err := svc.Accumulate("u1@example.com", EngagementDelta{TracksPlayedCount: 5})
	require.NoError(t, err)

	_, err = svc.Accumulate("u1@example.com", EngagementDelta{TracksPlayedCount: -1})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected a validation error, got %v", err)
	assert.Equal(t, "tracks_played_count", vErr.Field)

	// Rejection happens before any mutation
	profile, err := svc.GetPoints("u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(5), profile.TracksPlayedCount)
}

func TestAccumulateRequiresIdentity(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	_, err := svc.Accumulate("   ", EngagementDelta{TracksPlayedCount: 1})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "identity", vErr.Field)
}

func TestAccumulateSetsJoinCodesOnce(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	profile, err := svc.Accumulate("u1@example.com", EngagementDelta{
		TracksPlayedCount: 1,
		InvitationCode:    "INV-1",
		ReferralCode:      "MY-CODE",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-1", profile.InvitationCode)
	assert.Equal(t, "MY-CODE", profile.ReferralCode)

	// Codes are join-time facts, not mutable settings
	profile, err = svc.Accumulate("u1@example.com", EngagementDelta{
		InvitationCode: "INV-2",
		ReferralCode:   "OTHER",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-1", profile.InvitationCode)
	assert.Equal(t, "MY-CODE", profile.ReferralCode)
}

func TestGetPointsUnknownIdentity(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	_, err := svc.GetPoints("nobody@example.com")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
