/**
 * @description
 * Authentication middleware using HMAC-signed JWTs.
 * Validates Bearer tokens against the shared API secret.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 *
 * @notes
 * - Requires API_JWT_SECRET to be set in configuration.
 * - Prediction runs mutate persisted state, so the run endpoint is protected;
 *   forecast reads stay public.
 */

package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/salesight/backend/internal/config"
	"github.com/salesight/backend/internal/logger"
)

// AuthMiddlewareConfig holds the validation secret
type AuthMiddlewareConfig struct {
	Secret []byte
}

var mwConfig *AuthMiddlewareConfig

// InitAuthMiddleware stores the HMAC secret. Should be called at startup.
func InitAuthMiddleware(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		// In dev/test, we might not have this, but it's required for real auth
		logger.Info("⚠️ Warning: API_JWT_SECRET is empty. Protected routes will reject every request.")
		return nil
	}

	mwConfig = &AuthMiddlewareConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
	}
	logger.Info("✅ Auth Middleware Initialized")
	return nil
}

// Protected protects routes requiring authentication
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if mwConfig == nil || len(mwConfig.Secret) == 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Auth configuration not initialized",
			})
		}

		// 1. Get Token from Header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
		}

		// 2. Parse and Validate Token
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return mwConfig.Secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token: " + err.Error()})
		}

		// 3. Validate Claims
		if !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}

		// 4. Expose subject to handlers
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Locals("subject", sub)
		}

		return c.Next()
	}
}
