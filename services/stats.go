package services

import (
	"log"

	"vibin-quest-system/models"
	"vibin-quest-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngagementDelta carries newly observed activity since the caller's last
// report: deltas, never lifetime snapshots. Zero fields mean "nothing new",
// not "reset to zero".
type EngagementDelta struct {
	TracksPlayedCount          int64 `json:"tracks_played_count"`
	UniqueArtistCount          int64 `json:"unique_artist_count"`
	ListeningTimeMs            int64 `json:"listening_time_ms"`
	AnonymousTracksPlayedCount int64 `json:"anonymous_tracks_played_count"`

	// Optional join/assignment codes, applied only when the stored value is empty
	InvitationCode string `json:"invitation_code"`
	ReferralCode   string `json:"referral_code"`
}

type StatsService struct {
	DB          *gorm.DB
	referralSvc *ReferralService
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, referralSvc: NewReferralService(db)}
}

// Accumulate merges a delta into the identity's running totals and recomputes
// every derived score, all in one transaction so no reader observes counters
// and scores from different generations. Counters only ever grow: positive
// delta fields are added, zero fields leave the stored counter untouched.
// Overwriting with the latest snapshot is exactly the regression bug this
// merge exists to prevent.
func (s *StatsService) Accumulate(identity string, delta EngagementDelta) (*models.QuestProfile, error) {
	identity = utils.NormalizeIdentity(identity)
	if identity == "" {
		return nil, newValidationError("identity", "must not be empty")
	}
	if err := validateDelta(delta); err != nil {
		return nil, err
	}

	var updated *models.QuestProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.QuestProfile
		err := lockForUpdate(tx).Where("identity = ?", identity).First(&profile).Error
		if err == gorm.ErrRecordNotFound {
			profile = models.QuestProfile{
				ID:       uuid.NewString(),
				Identity: identity,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if delta.TracksPlayedCount > 0 {
			profile.TracksPlayedCount += delta.TracksPlayedCount
		}
		if delta.UniqueArtistCount > 0 {
			profile.UniqueArtistCount += delta.UniqueArtistCount
		}
		if delta.ListeningTimeMs > 0 {
			profile.ListeningTimeMs += delta.ListeningTimeMs
		}
		if delta.AnonymousTracksPlayedCount > 0 {
			profile.AnonymousTracksPlayedCount += delta.AnonymousTracksPlayedCount
		}

		if delta.InvitationCode != "" && profile.InvitationCode == "" {
			profile.InvitationCode = delta.InvitationCode
		}
		if delta.ReferralCode != "" && profile.ReferralCode == "" {
			profile.ReferralCode = delta.ReferralCode
		}

		if err := s.recomputeScores(tx, &profile); err != nil {
			return err
		}

		if err := tx.Save(&profile).Error; err != nil {
			return err
		}

		// Copy for return (avoid aliasing the tx-scoped struct)
		updated = &models.QuestProfile{}
		*updated = profile

		log.Printf("🎵 Engagement merged: %s → tracks=%d artists=%d ms=%d total=%d",
			profile.Identity, profile.TracksPlayedCount, profile.UniqueArtistCount,
			profile.ListeningTimeMs, profile.TotalBasePoints)

		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// recomputeScores rebuilds every derived score from the counters. Total base
// points is never written from anywhere else; derivation is the only source.
func (s *StatsService) recomputeScores(tx *gorm.DB, profile *models.QuestProfile) error {
	own := ScoreCounters(profile.TracksPlayedCount, profile.UniqueArtistCount, profile.ListeningTimeMs)
	ref, err := s.referralSvc.ComputeForProfile(tx, profile)
	if err != nil {
		return err
	}

	profile.VolumeScore = own.Volume
	profile.DiversityScore = own.Diversity
	profile.HistoryScore = own.History
	profile.ReferralScore = ref.Total
	profile.ReferralScoreToday = ref.Today
	profile.TotalBasePoints = own.Total + ref.Total

	// Claimable delta must never go negative; monotone counters make this
	// unreachable, but a bad checkpoint must clamp rather than propagate
	if profile.TotalBasePoints < profile.TotalBasePointsAtClaim {
		profile.TotalBasePoints = profile.TotalBasePointsAtClaim
	}
	return nil
}

// GetPoints returns the identity's current score breakdown.
func (s *StatsService) GetPoints(identity string) (*models.QuestProfile, error) {
	identity = utils.NormalizeIdentity(identity)
	if identity == "" {
		return nil, newValidationError("identity", "must not be empty")
	}
	var profile models.QuestProfile
	err := s.DB.Where("identity = ?", identity).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func validateDelta(delta EngagementDelta) error {
	if delta.TracksPlayedCount < 0 {
		return newValidationError("tracks_played_count", "must not be negative")
	}
	if delta.UniqueArtistCount < 0 {
		return newValidationError("unique_artist_count", "must not be negative")
	}
	if delta.ListeningTimeMs < 0 {
		return newValidationError("listening_time_ms", "must not be negative")
	}
	if delta.AnonymousTracksPlayedCount < 0 {
		return newValidationError("anonymous_tracks_played_count", "must not be negative")
	}
	return nil
}
