// handlers/tx_routes.go
package handlers

import (
	"time"

	"findchain-api/models"
	"findchain-api/services"

	"github.com/gofiber/fiber/v2"
)

type txBody struct {
	IMEI        string `json:"imei"`
	TokenID     string `json:"tokenId"`
	To          string `json:"to"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	ProofHash   string `json:"proofHash"`
	RawTx       string `json:"rawTx"`
}

// SetupTxRoutes exposes the unsigned transaction builders and the relay/receipt endpoints.
func SetupTxRoutes(app *fiber.App, txBuilder *services.TxBuilder, maxWait time.Duration) {
	tx := app.Group("/tx")

	build := func(fn func(c *fiber.Ctx, body *txBody) (*models.TxRequest, error)) fiber.Handler {
		return func(c *fiber.Ctx) error {
			body := new(txBody)
			if len(c.Body()) > 0 {
				if err := c.BodyParser(body); err != nil {
					return badRequest(c, "invalid request body")
				}
			}
			req, err := fn(c, body)
			if err != nil {
				return respondError(c, err, "Failed to build transaction")
			}
			return c.JSON(req)
		}
	}

	tx.Post("/mint", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.MintDevice(c.UserContext(), b.IMEI)
	}))
	tx.Post("/transfer", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.TransferDevice(b.TokenID, b.To)
	}))

	tx.Post("/bounties", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.CreateBounty(b.TokenID, b.Amount)
	}))
	tx.Post("/bounties/:tokenId/cancel", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.CancelBounty(c.Params("tokenId"))
	}))
	tx.Post("/claims", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.SubmitClaim(b.TokenID, b.ProofHash)
	}))
	tx.Post("/claims/:claimId/confirm", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.ConfirmClaim(c.Params("claimId"))
	}))
	tx.Post("/claims/:claimId/reject", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.RejectClaim(c.Params("claimId"))
	}))

	tx.Post("/open-bounties", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.CreateOpenBounty(b.Description, b.Amount)
	}))
	tx.Post("/open-bounties/:id/cancel", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.CancelOpenBounty(c.Params("id"))
	}))
	tx.Post("/open-bounties/:id/claims", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.SubmitOpenClaim(c.Params("id"), b.ProofHash)
	}))
	tx.Post("/open-claims/:claimId/confirm", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.ConfirmOpenClaim(c.Params("claimId"))
	}))
	tx.Post("/open-claims/:claimId/reject", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.RejectOpenClaim(c.Params("claimId"))
	}))

	tx.Post("/found-listings", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.CreateFoundListing(b.Description, b.ProofHash)
	}))
	tx.Post("/found-listings/:id/remove", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.RemoveFoundListing(c.Params("id"))
	}))
	tx.Post("/found-listings/:id/claim", build(func(c *fiber.Ctx, b *txBody) (*models.TxRequest, error) {
		return txBuilder.ClaimFoundListing(c.Params("id"), b.Amount)
	}))

	tx.Post("/broadcast", func(c *fiber.Ctx) error {
		body := new(txBody)
		if err := c.BodyParser(body); err != nil {
			return badRequest(c, "invalid request body")
		}
		hash, err := txBuilder.Broadcast(c.UserContext(), body.RawTx)
		if err != nil {
			return respondError(c, err, "Failed to broadcast transaction")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"hash":        hash,
			"explorerUrl": txBuilder.Network.TxURL(hash),
		})
	})

	tx.Get("/:hash", func(c *fiber.Ctx) error {
		receipt, err := txBuilder.Receipt(c.UserContext(), c.Params("hash"))
		if err != nil {
			return respondError(c, err, "Failed to read transaction receipt")
		}
		return c.JSON(receipt)
	})

	// ?timeout=30s, capped at maxWait. Still pending at the deadline answers 202.
	tx.Get("/:hash/wait", func(c *fiber.Ctx) error {
		timeout := maxWait
		if raw := c.Query("timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return badRequest(c, "timeout must be a positive duration such as 30s")
			}
			if d < timeout {
				timeout = d
			}
		}

		receipt, err := txBuilder.WaitForConfirmation(c.UserContext(), c.Params("hash"), timeout)
		if err != nil {
			return respondError(c, err, "Failed to wait for transaction")
		}
		if receipt.State == models.TxPending {
			return c.Status(fiber.StatusAccepted).JSON(receipt)
		}
		return c.JSON(receipt)
	})
}
