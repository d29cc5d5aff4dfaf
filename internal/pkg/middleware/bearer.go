package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mxi-labs/presale/internal/pkg/apierror"
	"github.com/mxi-labs/presale/internal/pkg/payment"
	"github.com/mxi-labs/presale/internal/pkg/usercontext"
)

// BearerAuthMiddleware requires an Authorization bearer credential. With a
// secret the subject is taken only from a valid HS256 JWT; without one it is
// decoded best-effort. A token that yields no subject is recorded as
// usercontext.UnknownSubject and the request proceeds.
func BearerAuthMiddleware(secret string) fiber.Handler {
	key := []byte(strings.TrimSpace(secret))
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return apierror.Send(c, payment.CodeUnauthorized, "Missing bearer token")
		}

		uc := usercontext.UserContext{IsAuthenticated: true, Subject: usercontext.UnknownSubject}
		if len(key) > 0 {
			claims := jwt.RegisteredClaims{}
			if _, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			}); err != nil {
				log.Warnf("[Auth] Bearer token failed verification, subject recorded as %s: %v", usercontext.UnknownSubject, err)
			} else {
				uc.TokenVerified = true
				if sub := strings.TrimSpace(claims.Subject); sub != "" {
					uc.Subject = sub
				}
			}
		} else if sub := unverifiedSubject(token); sub != "" {
			uc.Subject = sub
		}

		usercontext.SetUserContext(c, uc)
		return c.Next()
	}
}

// unverifiedSubject reads the sub claim without checking the signature.
func unverifiedSubject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sub)
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
