// handlers/points_routes.go
package handlers

import (
	"findchain-api/middleware"
	"findchain-api/services"
	"findchain-api/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, pointsService *services.PointsService) {
	summary := func(c *fiber.Ctx, address string) error {
		if !utils.IsHexAddress(address) {
			return badRequest(c, "Invalid wallet address format")
		}
		sum, err := pointsService.Summary(c.UserContext(), address)
		if err != nil {
			return respondError(c, err, "failed to load points")
		}
		return c.JSON(sum)
	}

	app.Get("/users/:address/points", func(c *fiber.Ctx) error {
		return summary(c, c.Params("address"))
	})

	app.Get("/users/:address/points/history", func(c *fiber.Ctx) error {
		address := c.Params("address")
		if !utils.IsHexAddress(address) {
			return badRequest(c, "Invalid wallet address format")
		}
		page := c.QueryInt("page", 1)
		size := c.QueryInt("size", 20)

		events, total, err := pointsService.History(c.UserContext(), address, page, size)
		if err != nil {
			return respondError(c, err, "failed to load points history")
		}
		return c.JSON(fiber.Map{
			"history": events,
			"page":    page,
			"total":   total,
		})
	})

	// 🔐 Wallet-scoped routes
	me := app.Group("/me", middleware.WalletContextMiddleware())
	me.Get("/points", func(c *fiber.Ctx) error {
		return summary(c, c.Locals(middleware.WalletAddressKey).(string))
	})
}
