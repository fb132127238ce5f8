// handlers/bounty_routes.go
package handlers

import (
	"findchain-api/services"
	"findchain-api/utils"

	"github.com/gofiber/fiber/v2"
)

const maxProofImageBytes = 10 * 1024 * 1024

func SetupBountyRoutes(app *fiber.App, deviceService *services.DeviceService, claimService *services.ClaimService, proofService *services.ProofService, txBuilder *services.TxBuilder) {
	// Static segments first so they are not captured by /bounties/:tokenId
	app.Get("/bounties/status", func(c *fiber.Ctx) error {
		tokenIDs := utils.SplitIDs(c.Query("tokenIds"))
		if len(tokenIDs) == 0 {
			return badRequest(c, "tokenIds is required")
		}
		return c.JSON(fiber.Map{"statuses": deviceService.BountyStatuses(c.UserContext(), tokenIDs)})
	})

	app.Get("/bounties/active", func(c *fiber.Ctx) error {
		bounties, err := deviceService.ActiveBounties(c.UserContext())
		if err != nil {
			return respondError(c, err, "Failed to fetch bounties")
		}
		return c.JSON(fiber.Map{"bounties": bounties})
	})

	app.Get("/bounties/:tokenId", func(c *fiber.Ctx) error {
		detail, err := claimService.BountyDetail(c.UserContext(), c.Params("tokenId"))
		if err != nil {
			return respondError(c, err, "Failed to fetch bounty")
		}
		return c.JSON(detail)
	})

	app.Get("/bounties/:tokenId/claims", func(c *fiber.Ctx) error {
		claims, err := claimService.BountyClaims(c.UserContext(), c.Params("tokenId"))
		if err != nil {
			return respondError(c, err, "Failed to fetch claims")
		}
		return c.JSON(fiber.Map{"claims": claims})
	})

	// Claims across a wallet's tokens; defaults to every token the wallet owns.
	app.Get("/users/:address/bounty-claims", func(c *fiber.Ctx) error {
		address := c.Params("address")
		if !utils.IsHexAddress(address) {
			return badRequest(c, "Invalid wallet address format")
		}
		tokenIDs := utils.SplitIDs(c.Query("tokenIds"))
		if len(tokenIDs) == 0 {
			ids, err := deviceService.OwnedTokenIDs(c.UserContext(), address)
			if err != nil {
				return respondError(c, err, "Failed to fetch user devices")
			}
			tokenIDs = ids
		}
		return c.JSON(fiber.Map{"claimsByToken": claimService.ClaimsByToken(c.UserContext(), tokenIDs)})
	})

	app.Get("/open-bounties", func(c *fiber.Ctx) error {
		bounties, err := claimService.OpenBounties(c.UserContext(), c.QueryBool("all"))
		if err != nil {
			return respondError(c, err, "Failed to fetch open bounties")
		}
		return c.JSON(fiber.Map{"openBounties": bounties})
	})

	app.Get("/open-bounties/:id", func(c *fiber.Ctx) error {
		b, err := claimService.OpenBounty(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err, "Failed to fetch open bounty")
		}
		return c.JSON(b)
	})

	app.Get("/open-bounties/:id/claims", func(c *fiber.Ctx) error {
		claims, err := claimService.OpenBountyClaims(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err, "Failed to fetch claims")
		}
		return c.JSON(fiber.Map{"claims": claims})
	})

	app.Get("/found-listings", func(c *fiber.Ctx) error {
		listings, err := claimService.FoundListings(c.UserContext(), c.QueryBool("all"))
		if err != nil {
			return respondError(c, err, "Failed to fetch found listings")
		}
		return c.JSON(fiber.Map{"foundListings": listings})
	})

	app.Get("/found-listings/:id", func(c *fiber.Ctx) error {
		l, err := claimService.FoundListing(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err, "Failed to fetch found listing")
		}
		return c.JSON(l)
	})

	app.Get("/proofs/:hash", func(c *fiber.Ctx) error {
		proof, err := proofService.Fetch(c.UserContext(), c.Params("hash"))
		if err != nil {
			return respondError(c, err, "Failed to fetch proof")
		}
		return c.JSON(proof)
	})

	// Proof uploads: the proof is stored first, then the unsigned contract call is returned
	// for the wallet to sign.
	app.Post("/claims", func(c *fiber.Ctx) error {
		tokenID := c.FormValue("tokenId")
		if _, err := utils.ParseTokenID(tokenID); err != nil {
			return badRequest(c, "tokenId: "+err.Error())
		}
		return uploadProofAndBuild(c, proofService, func(hash string) (interface{}, error) {
			return txBuilder.SubmitClaim(tokenID, hash)
		})
	})

	app.Post("/open-bounties/:id/claims", func(c *fiber.Ctx) error {
		bountyID := c.Params("id")
		if _, err := utils.ParseTokenID(bountyID); err != nil {
			return badRequest(c, "bountyId: "+err.Error())
		}
		return uploadProofAndBuild(c, proofService, func(hash string) (interface{}, error) {
			return txBuilder.SubmitOpenClaim(bountyID, hash)
		})
	})

	app.Post("/found-listings", func(c *fiber.Ctx) error {
		description := c.FormValue("description")
		return uploadProofAndBuild(c, proofService, func(hash string) (interface{}, error) {
			return txBuilder.CreateFoundListing(description, hash)
		})
	})
}

func uploadProofAndBuild(c *fiber.Ctx, proofService *services.ProofService, build func(hash string) (interface{}, error)) error {
	var image *utils.UploadedFile
	if fh, err := c.FormFile("image"); err == nil {
		image, err = utils.ReadUploadedFile(fh, maxProofImageBytes)
		if err != nil {
			return badRequest(c, err.Error())
		}
	}

	hash, proof, err := proofService.Upload(c.UserContext(), image, c.FormValue("description"))
	if err != nil {
		return respondError(c, err, "Failed to upload proof")
	}

	tx, err := build(hash)
	if err != nil {
		return respondError(c, err, "Failed to build transaction")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"proofHash": hash,
		"proof":     proof,
		"tx":        tx,
	})
}
