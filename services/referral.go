package services

import (
	"math"
	"time"

	"vibin-quest-system/models"
	"vibin-quest-system/utils"

	"gorm.io/gorm"
)

// ReferralPoints is an inviter's pass-through bonus from its invitees.
type ReferralPoints struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
}

type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

// ComputeReferralPoints recomputes the inviter's bonus from scratch: 20% of
// every invitee's current total, with the "today" subset limited to invitees
// touched on the current UTC calendar day. Deliberately not incremental:
// recomputing from source state cannot drift, and invitee fan-out is bounded
// by the invite-gated launch.
func (s *ReferralService) ComputeReferralPoints(identity string) (ReferralPoints, error) {
	var profile models.QuestProfile
	err := s.DB.Where("identity = ?", utils.NormalizeIdentity(identity)).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return ReferralPoints{}, ErrProfileNotFound
	}
	if err != nil {
		return ReferralPoints{}, err
	}
	return s.ComputeForProfile(s.DB, &profile)
}

// ComputeForProfile is the transaction-friendly form: callers already holding
// a tx (StatsService does) pass it in so the invitee reads share the tx.
func (s *ReferralService) ComputeForProfile(tx *gorm.DB, profile *models.QuestProfile) (ReferralPoints, error) {
	if profile.ReferralCode == "" {
		return ReferralPoints{}, nil
	}

	var invitees []models.QuestProfile
	if err := tx.Where("invitation_code = ? AND identity <> ?", profile.ReferralCode, profile.Identity).
		Find(&invitees).Error; err != nil {
		return ReferralPoints{}, err
	}

	today := time.Now().UTC()
	var total, todaySum float64
	for _, inv := range invitees {
		share := float64(inv.TotalBasePoints) * ReferralShare
		total += share
		if sameUTCDay(inv.UpdatedAt, today) {
			todaySum += share
		}
	}

	return ReferralPoints{
		Total: clampScore(int64(math.Floor(total))),
		Today: clampScore(int64(math.Floor(todaySum))),
	}, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
