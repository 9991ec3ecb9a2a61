// handlers/claim_routes.go
package handlers

import (
	"errors"
	"log"

	"vibin-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

type claimPrepareRequest struct {
	Identity string `json:"identity" validate:"required,email"`
	Wallet   string `json:"wallet" validate:"required"`
}

func SetupClaimRoutes(app *fiber.App, claimService *services.ClaimService) {
	app.Post("/claim/prepare", func(c *fiber.Ctx) error {
		var req claimPrepareRequest
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

		signed, err := claimService.PrepareClaim(req.Identity, req.Wallet)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(signed)
	})

	app.Get("/claim/status", func(c *fiber.Ctx) error {
		identity := c.Query("identity")
		if identity == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "identity query parameter is required",
			})
		}

		elig, err := claimService.Eligibility(identity)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(elig)
	})

	app.Get("/claim/history", func(c *fiber.Ctx) error {
		identity := c.Query("identity")
		if identity == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "identity query parameter is required",
			})
		}

		auths, err := claimService.History(identity)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"claims": auths})
	})
}

// errorResponse maps service errors onto distinct, caller-actionable HTTP
// statuses. Signing and persistence failures stay opaque: details are logged
// server-side, never echoed to the caller.
func errorResponse(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": vErr.Error(),
			"field": vErr.Field,
		})
	case errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no profile for this identity",
		})
	case errors.Is(err, services.ErrClaimInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "a claim is already in progress for this identity, retry later",
		})
	case errors.Is(err, services.ErrCheckpointConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "claim state changed concurrently, retry later",
		})
	case errors.Is(err, services.ErrWalletMismatch):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "identity is already bound to a different wallet",
		})
	default:
		log.Printf("❌ [HANDLER] Internal error on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}
}
