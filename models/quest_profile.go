package models

import (
	"time"

	"gorm.io/gorm"
)

// QuestProfile tracks accumulated engagement and scoring for each identity
// (denormalized for performance). One row per verified email.
type QuestProfile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Identity string `gorm:"uniqueIndex;not null" json:"identity"` // lowercase email from auth service

	// Wallet is bound the first time a claim is prepared and never re-bound.
	LinkedWallet string `gorm:"index" json:"linked_wallet,omitempty"`

	// Code this identity hands out to invitees
	ReferralCode string `gorm:"index" json:"referral_code,omitempty"`
	// Code this identity redeemed when it joined (points to its inviter)
	InvitationCode string `gorm:"index" json:"invitation_code,omitempty"`

	// Accumulated counters: monotonically non-decreasing, merged additively
	TracksPlayedCount          int64 `json:"tracks_played_count" gorm:"default:0"`
	UniqueArtistCount          int64 `json:"unique_artist_count" gorm:"default:0"`
	ListeningTimeMs            int64 `json:"listening_time_ms" gorm:"default:0"`
	AnonymousTracksPlayedCount int64 `json:"anonymous_tracks_played_count" gorm:"default:0"`

	// Derived scores, recomputed from the counters on every accumulation,
	// never written independently
	VolumeScore        int64 `json:"volume_score" gorm:"default:0"`
	DiversityScore     int64 `json:"diversity_score" gorm:"default:0"`
	HistoryScore       int64 `json:"history_score" gorm:"default:0"`
	ReferralScore      int64 `json:"referral_score" gorm:"default:0"`
	ReferralScoreToday int64 `json:"referral_score_today" gorm:"default:0"`
	TotalBasePoints    int64 `json:"total_base_points" gorm:"default:0"`

	// Claim checkpoint: claimable = TotalBasePoints - TotalBasePointsAtClaim
	TotalBasePointsAtClaim int64      `json:"total_base_points_at_claim" gorm:"default:0"`
	LastClaimAt            *time.Time `json:"last_claim_at,omitempty"`

	// Per-identity claim counter embedded in every signed authorization
	ClaimNonce int64 `json:"claim_nonce" gorm:"default:0"`

	Timestamps
}

// ClaimableDelta returns the unclaimed point balance, clamped at zero.
func (p *QuestProfile) ClaimableDelta() int64 {
	delta := p.TotalBasePoints - p.TotalBasePointsAtClaim
	if delta < 0 {
		return 0
	}
	return delta
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
