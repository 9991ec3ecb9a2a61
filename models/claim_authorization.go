package models

import "time"

// ClaimStatus tracks an issued authorization through settlement
type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending"
	ClaimStatusSettled ClaimStatus = "settled"
	ClaimStatusExpired ClaimStatus = "expired"
)

// ClaimAuthorization = one signed claim handed to a user. The row stays
// pending until the token contract's TokensClaimed event is observed for its
// message hash, or the deadline passes and the expiry job credits the points
// back.
type ClaimAuthorization struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Identity string `gorm:"index;not null" json:"identity"`
	Wallet   string `gorm:"index;not null" json:"wallet"`

	// Point delta covered by this authorization (pre precision conversion)
	PointDelta int64 `json:"point_delta" gorm:"not null"`
	// Token amount in smallest units, decimal string (exceeds int64 range)
	TokenAmount string `json:"token_amount" gorm:"not null"`

	Nonce    int64     `json:"nonce" gorm:"not null"`
	Deadline time.Time `json:"deadline" gorm:"not null"`
	// keccak256 over the packed (recipient, amount, nonce, deadline) tuple.
	// The contract echoes it in TokensClaimed, so it is the settlement key
	MessageHash string `gorm:"uniqueIndex;not null" json:"message_hash"`
	Signature   string `gorm:"not null" json:"signature"`

	Status    ClaimStatus `gorm:"not null;default:'pending';index" json:"status"`
	SettledAt *time.Time  `json:"settled_at,omitempty"`
	ExpiredAt *time.Time  `json:"expired_at,omitempty"`
	TxHash    string      `json:"tx_hash,omitempty"`

	// Score snapshot taken when settlement is observed on-chain
	VolumeScoreAtSettle    int64 `json:"volume_score_at_settle" gorm:"default:0"`
	DiversityScoreAtSettle int64 `json:"diversity_score_at_settle" gorm:"default:0"`
	HistoryScoreAtSettle   int64 `json:"history_score_at_settle" gorm:"default:0"`
	ReferralScoreAtSettle  int64 `json:"referral_score_at_settle" gorm:"default:0"`

	Timestamps
}
