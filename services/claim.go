package services

import (
	"fmt"
	"log"
	"math/big"
	"time"

	"vibin-quest-system/models"
	"vibin-quest-system/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SignedClaim is the payload the user forwards to the token contract's
// claimTokens(amount, nonce, deadline, signature).
type SignedClaim struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"` // smallest token units, decimal string
	Nonce     int64  `json:"nonce"`
	Deadline  int64  `json:"deadline"` // unix seconds
	Signature string `json:"signature"`
}

// ClaimEligibility is the /claim/status view: a cooldown window applied on
// top of the last successful claim.
type ClaimEligibility struct {
	CanClaim       bool       `json:"can_claim"`
	ClaimableDelta int64      `json:"claimable_delta"`
	LastClaimAt    *time.Time `json:"last_claim_at,omitempty"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty"`
}

type ClaimService struct {
	DB     *gorm.DB
	Signer *ClaimSigner
	Guard  *ClaimGuard

	TokenDecimals  int
	DeadlineWindow time.Duration
	Cooldown       time.Duration
	ExpiryGrace    time.Duration
}

func NewClaimService(db *gorm.DB, signer *ClaimSigner, guard *ClaimGuard, tokenDecimals int) *ClaimService {
	return &ClaimService{
		DB:             db,
		Signer:         signer,
		Guard:          guard,
		TokenDecimals:  tokenDecimals,
		DeadlineWindow: 24 * time.Hour,
		Cooldown:       7 * 24 * time.Hour,
		ExpiryGrace:    time.Hour,
	}
}

// PrepareClaim issues a signed authorization for the identity's unclaimed
// point balance and advances the claim checkpoint. At most one claim per
// identity is in flight at a time; a second concurrent call fails with
// ErrClaimInProgress instead of queueing. A zero balance still yields a valid
// zero-amount authorization so callers see a uniform response shape.
func (s *ClaimService) PrepareClaim(identity, wallet string) (*SignedClaim, error) {
	identity = utils.NormalizeIdentity(identity)
	if identity == "" {
		return nil, newValidationError("identity", "must not be empty")
	}
	if !utils.ValidWallet(wallet) {
		return nil, newValidationError("wallet", "must be a valid 0x address")
	}
	wallet = utils.NormalizeWallet(wallet)

	if !s.Guard.TryAcquire(identity) {
		return nil, ErrClaimInProgress
	}
	// Guard always releases, including on panic/rollback. A stuck guard
	// would lock the identity out of claiming until restart
	defer s.Guard.Release(identity)

	var result *SignedClaim
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.QuestProfile
		err := lockForUpdate(tx).Where("identity = ?", identity).First(&profile).Error
		if err == gorm.ErrRecordNotFound {
			return ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		// Wallet binds on first claim and stays bound
		if profile.LinkedWallet != "" && profile.LinkedWallet != wallet {
			return ErrWalletMismatch
		}

		delta := profile.ClaimableDelta()
		amount := utils.PointsToTokenUnits(delta, s.TokenDecimals)
		nonce := profile.ClaimNonce + 1
		deadline := time.Now().Add(s.DeadlineWindow).Truncate(time.Second)

		recipient := common.HexToAddress(wallet)
		messageHash := ClaimMessageHash(recipient, amount, big.NewInt(nonce), big.NewInt(deadline.Unix()))
		signature, err := s.Signer.Sign(messageHash)
		if err != nil {
			// tx rolls back: checkpoint must not advance on signing failure
			return err
		}

		// Conditional update keyed on the old checkpoint. The row lock already
		// covers this process; the WHERE clause covers other instances.
		now := time.Now()
		res := tx.Model(&models.QuestProfile{}).
			Where("identity = ? AND total_base_points_at_claim = ?", identity, profile.TotalBasePointsAtClaim).
			Updates(map[string]interface{}{
				"total_base_points_at_claim": profile.TotalBasePoints,
				"last_claim_at":              now,
				"claim_nonce":                nonce,
				"linked_wallet":              wallet,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCheckpointConflict
		}

		auth := models.ClaimAuthorization{
			ID:          uuid.NewString(),
			Identity:    identity,
			Wallet:      wallet,
			PointDelta:  delta,
			TokenAmount: amount.String(),
			Nonce:       nonce,
			Deadline:    deadline,
			MessageHash: messageHash.Hex(),
			Signature:   hexutil.Encode(signature),
			Status:      models.ClaimStatusPending,
		}
		if err := tx.Create(&auth).Error; err != nil {
			return err
		}

		result = &SignedClaim{
			Recipient: wallet,
			Amount:    amount.String(),
			Nonce:     nonce,
			Deadline:  deadline.Unix(),
			Signature: auth.Signature,
		}

		log.Printf("🪙 Claim prepared: %s → %d points (nonce=%d, deadline=%s)",
			identity, delta, nonce, deadline.UTC().Format(time.RFC3339))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Eligibility reports whether the cooldown window since the last claim has
// elapsed.
func (s *ClaimService) Eligibility(identity string) (*ClaimEligibility, error) {
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

	elig := &ClaimEligibility{
		CanClaim:       true,
		ClaimableDelta: profile.ClaimableDelta(),
		LastClaimAt:    profile.LastClaimAt,
	}
	if profile.LastClaimAt != nil {
		next := profile.LastClaimAt.Add(s.Cooldown)
		if time.Now().Before(next) {
			elig.CanClaim = false
			elig.NextEligibleAt = &next
		}
	}
	return elig, nil
}

// History returns the identity's issued authorizations, newest first.
func (s *ClaimService) History(identity string) ([]models.ClaimAuthorization, error) {
	identity = utils.NormalizeIdentity(identity)
	if identity == "" {
		return nil, newValidationError("identity", "must not be empty")
	}
	var auths []models.ClaimAuthorization
	err := s.DB.Where("identity = ?", identity).
		Order("created_at DESC").
		Find(&auths).Error
	return auths, err
}

// SettleClaim marks an authorization settled once its TokensClaimed event is
// observed on-chain, and snapshots the profile's sub-scores as of settlement.
// The message hash echoed by the contract is the settlement key. Expired rows
// settle too: the tokens were paid out, so if the expiry sweep already
// credited the points back, the checkpoint is re-advanced here. Without that
// a claim redeemed just before its deadline but observed after the sweep
// would leave the same points claimable twice.
func (s *ClaimService) SettleClaim(messageHash, txHash string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var auth models.ClaimAuthorization
		err := lockForUpdate(tx).
			Where("message_hash = ? AND status IN ?", messageHash,
				[]models.ClaimStatus{models.ClaimStatusPending, models.ClaimStatusExpired}).
			First(&auth).Error
		if err == gorm.ErrRecordNotFound {
			// Already settled or not ours. The chain is authoritative,
			// nothing to reconcile
			return nil
		}
		if err != nil {
			return err
		}

		var profile models.QuestProfile
		if err := lockForUpdate(tx).Where("identity = ?", auth.Identity).First(&profile).Error; err != nil {
			return fmt.Errorf("profile missing for settled claim %s: %w", auth.ID, err)
		}

		if auth.Status == models.ClaimStatusExpired {
			readvanced := profile.TotalBasePointsAtClaim + auth.PointDelta
			if readvanced > profile.TotalBasePoints {
				readvanced = profile.TotalBasePoints
			}
			if err := tx.Model(&profile).Update("total_base_points_at_claim", readvanced).Error; err != nil {
				return err
			}
			log.Printf("♻️ Late settlement after expiry: %s (%d points taken back)", auth.Identity, auth.PointDelta)
		}

		now := time.Now()
		auth.Status = models.ClaimStatusSettled
		auth.SettledAt = &now
		auth.ExpiredAt = nil
		auth.TxHash = txHash
		auth.VolumeScoreAtSettle = profile.VolumeScore
		auth.DiversityScoreAtSettle = profile.DiversityScore
		auth.HistoryScoreAtSettle = profile.HistoryScore
		auth.ReferralScoreAtSettle = profile.ReferralScore
		if err := tx.Save(&auth).Error; err != nil {
			return err
		}

		log.Printf("✅ Claim settled on-chain: %s (%s points, tx %s)", auth.Identity, auth.TokenAmount, txHash)
		return nil
	})
}

// ExpireStaleClaims flips pending authorizations whose deadline passed
// without an on-chain settlement to expired, and credits the points back by
// lowering the checkpoint (clamped so the claimable delta never goes
// negative). This bounds the optimistic checkpoint advance in PrepareClaim:
// an authorization that is never redeemed stops costing the user once its
// deadline lapses. The grace margin keeps the sweep well behind the chain
// listener, so a redemption near the deadline is normally settled before the
// sweep ever sees it (SettleClaim repairs the rare late case regardless).
func (s *ClaimService) ExpireStaleClaims() error {
	cutoff := time.Now().Add(-s.ExpiryGrace)
	var stale []models.ClaimAuthorization
	if err := s.DB.Where("status = ? AND deadline < ?", models.ClaimStatusPending, cutoff).
		Find(&stale).Error; err != nil {
		return err
	}

	for _, auth := range stale {
		auth := auth
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var locked models.ClaimAuthorization
			err := lockForUpdate(tx).
				Where("id = ? AND status = ?", auth.ID, models.ClaimStatusPending).
				First(&locked).Error
			if err == gorm.ErrRecordNotFound {
				return nil // settled in the meantime
			}
			if err != nil {
				return err
			}

			var profile models.QuestProfile
			if err := lockForUpdate(tx).Where("identity = ?", locked.Identity).First(&profile).Error; err != nil {
				return err
			}

			restored := profile.TotalBasePointsAtClaim - locked.PointDelta
			if restored < 0 {
				restored = 0
			}
			if err := tx.Model(&profile).Update("total_base_points_at_claim", restored).Error; err != nil {
				return err
			}

			now := time.Now()
			locked.Status = models.ClaimStatusExpired
			locked.ExpiredAt = &now
			if err := tx.Save(&locked).Error; err != nil {
				return err
			}

			log.Printf("⏰ Claim expired unredeemed: %s (%d points credited back)", locked.Identity, locked.PointDelta)
			return nil
		})
		if err != nil {
			log.Printf("[ClaimExpiry] Failed to expire claim %s: %v", auth.ID, err)
		}
	}
	return nil
}
