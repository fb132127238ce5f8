// handlers/device_routes.go
package handlers

import (
	"errors"

	"findchain-api/services"
	"findchain-api/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	deviceInfoCacheControl  = "public, s-maxage=86400, stale-while-revalidate=172800"
	userDevicesCacheControl = "public, s-maxage=300, stale-while-revalidate=600"
)

func SetupDeviceRoutes(app *fiber.App, deviceService *services.DeviceService, chain services.ChainReader) {
	app.Get("/device-info", func(c *fiber.Ctx) error {
		imei := c.Query("imei")
		if imei == "" {
			return badRequest(c, "IMEI is required")
		}
		if !utils.ValidIMEI(imei) {
			return badRequest(c, "Invalid IMEI format. Must be 15 digits.")
		}

		info, err := deviceService.DeviceInfo(c.UserContext(), imei)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Device not found in IMEI database"})
			}
			return respondError(c, err, "Failed to fetch device info")
		}

		c.Set(fiber.HeaderCacheControl, deviceInfoCacheControl)
		return c.JSON(info)
	})

	app.Get("/user-devices", func(c *fiber.Ctx) error {
		res, err := deviceService.UserDevices(c.UserContext(), c.Query("address"))
		if err != nil {
			return respondError(c, err, "Failed to fetch user devices")
		}
		c.Set(fiber.HeaderCacheControl, userDevicesCacheControl)
		return c.JSON(res)
	})

	app.Get("/users/:address/balance", func(c *fiber.Ctx) error {
		address := c.Params("address")
		balance, err := chain.BalanceOf(c.UserContext(), address)
		if err != nil {
			return respondError(c, err, "Failed to read balance")
		}
		return c.JSON(fiber.Map{"address": address, "balance": balance.String()})
	})

	app.Get("/tokens/:tokenId/owner", func(c *fiber.Ctx) error {
		tokenID := c.Params("tokenId")
		owner, err := chain.OwnerOf(c.UserContext(), tokenID)
		if err != nil {
			return respondError(c, err, "Failed to read token owner")
		}
		return c.JSON(fiber.Map{"tokenId": tokenID, "owner": owner})
	})

	app.Get("/imei/:imei/registered", func(c *fiber.Ctx) error {
		imei := c.Params("imei")
		registered, err := chain.IsIMEIRegistered(c.UserContext(), imei)
		if err != nil {
			return respondError(c, err, "Failed to check IMEI registration")
		}
		return c.JSON(fiber.Map{"imei": imei, "registered": registered})
	})
}
