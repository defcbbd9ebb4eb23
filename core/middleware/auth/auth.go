package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderAPIKey       = "X-API-Key"
	HeaderOrganization = "X-Organization-ID"
	HeaderUser         = "X-User-ID"

	// LocalOrganization and LocalUser are the fiber locals set for authenticated requests.
	LocalOrganization = "organization_id"
	LocalUser         = "user_id"
)

// Config selects the accepted credentials.
type Config struct {
	// ApiKey enables the X-API-Key scheme. The organization then comes from X-Organization-ID.
	ApiKey string
	// JWTSecret enables HS256 bearer tokens carrying "sub" and "org_id" claims.
	JWTSecret string
}

// New returns a middleware that authenticates the caller and stores the
// organization and user ids in the request locals.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if bearer, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok && cfg.JWTSecret != "" {
			org, user, err := parseToken(bearer, cfg.JWTSecret)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			c.Locals(LocalOrganization, org)
			c.Locals(LocalUser, user)
			return c.Next()
		}

		key := c.Get(HeaderAPIKey)
		if cfg.ApiKey == "" || key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
			return unauthorized(c, "missing or invalid credentials")
		}

		org := c.Get(HeaderOrganization)
		if org == "" {
			return unauthorized(c, "missing organization")
		}
		user := c.Get(HeaderUser)
		if user == "" {
			user = "api-key"
		}
		c.Locals(LocalOrganization, org)
		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// Organization returns the authenticated organization id of the request.
func Organization(c *fiber.Ctx) string {
	org, _ := c.Locals(LocalOrganization).(string)
	return org
}

// User returns the authenticated user id of the request.
func User(c *fiber.Ctx) string {
	user, _ := c.Locals(LocalUser).(string)
	return user
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func parseToken(raw, secret string) (org, user string, err error) {
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", err
	}

	user, err = claims.GetSubject()
	if err != nil || user == "" {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	org, _ = claims["org_id"].(string)
	if org == "" {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	return org, user, nil
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
