package middleware

import (
	"log"
	"strings"

	"findchain-api/utils"

	"github.com/gofiber/fiber/v2"
)

// WalletAddressKey is the Locals key holding the caller's lowercased wallet address.
const WalletAddressKey = "wallet_address"

// WalletContextMiddleware reads the wallet address forwarded by the frontend or gateway.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := strings.TrimSpace(c.Get("X-Wallet-Address"))
		if address == "" {
			log.Printf("❌ [WALLET_CTX] X-Wallet-Address missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Wallet-Address header",
			})
		}
		if !utils.IsHexAddress(address) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid wallet address format",
			})
		}

		c.Locals(WalletAddressKey, strings.ToLower(address))
		return c.Next()
	}
}
