// handlers/engagement_routes.go
package handlers

import (
	"vibin-quest-system/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type engagementUpdateRequest struct {
	Identity                   string `json:"identity" validate:"required,email"`
	TracksPlayedCount          int64  `json:"tracks_played_count" validate:"gte=0"`
	UniqueArtistCount          int64  `json:"unique_artist_count" validate:"gte=0"`
	ListeningTimeMs            int64  `json:"listening_time_ms" validate:"gte=0"`
	AnonymousTracksPlayedCount int64  `json:"anonymous_tracks_played_count" validate:"gte=0"`
	InvitationCode             string `json:"invitation_code" validate:"omitempty,max=64"`
	ReferralCode               string `json:"referral_code" validate:"omitempty,max=64"`
}

type identityRequest struct {
	Identity string `json:"identity" validate:"required,email"`
}

func SetupEngagementRoutes(app *fiber.App, statsService *services.StatsService, referralService *services.ReferralService) {
	// Ingestion is delta-based: callers report newly observed activity, the
	// service merges it additively and recomputes scores
	app.Post("/engagement/update", func(c *fiber.Ctx) error {
		var req engagementUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "validation failed",
				"cause": err.Error(),
			})
		}

		profile, err := statsService.Accumulate(req.Identity, services.EngagementDelta{
			TracksPlayedCount:          req.TracksPlayedCount,
			UniqueArtistCount:          req.UniqueArtistCount,
			ListeningTimeMs:            req.ListeningTimeMs,
			AnonymousTracksPlayedCount: req.AnonymousTracksPlayedCount,
			InvitationCode:             req.InvitationCode,
			ReferralCode:               req.ReferralCode,
		})
		if err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(fiber.Map{
			"identity":                      profile.Identity,
			"tracks_played_count":           profile.TracksPlayedCount,
			"unique_artist_count":           profile.UniqueArtistCount,
			"listening_time_ms":             profile.ListeningTimeMs,
			"anonymous_tracks_played_count": profile.AnonymousTracksPlayedCount,
			"volume_score":                  profile.VolumeScore,
			"diversity_score":               profile.DiversityScore,
			"history_score":                 profile.HistoryScore,
			"referral_score":                profile.ReferralScore,
			"referral_score_today":          profile.ReferralScoreToday,
			"total_base_points":             profile.TotalBasePoints,
		})
	})

	app.Post("/engagement/points", func(c *fiber.Ctx) error {
		var req identityRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "validation failed",
				"cause": err.Error(),
			})
		}

		profile, err := statsService.GetPoints(req.Identity)
		if err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(fiber.Map{
			"total_base_points":    profile.TotalBasePoints,
			"volume_score":         profile.VolumeScore,
			"diversity_score":      profile.DiversityScore,
			"history_score":        profile.HistoryScore,
			"referral_score":       profile.ReferralScore,
			"referral_score_today": profile.ReferralScoreToday,
		})
	})

	app.Post("/engagement/referral", func(c *fiber.Ctx) error {
		var req identityRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "validation failed",
				"cause": err.Error(),
			})
		}

		points, err := referralService.ComputeReferralPoints(req.Identity)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(points)
	})
}
