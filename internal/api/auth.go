package api

import (
	"dairy-order-service/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

type JwtCustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// deliveryStatuses are the statuses a delivery worker may set.
var deliveryStatuses = map[entity.OrderStatus]bool{
	entity.StatusOutForDelivery:    true,
	entity.StatusDelivered:         true,
	entity.StatusDeliveryAttempted: true,
	entity.StatusCancelled:         true,
}

// JWTMiddleware verifies HS256 bearer tokens and stores them under the "user" context key.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(401, map[string]string{"error": "Unauthorized"})
		},
	})
}

func claimsFrom(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*JwtCustomClaims)
	return claims
}

// RequireRole rejects requests whose token carries none of the roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := claimsFrom(c)
			if claims == nil {
				return c.JSON(401, map[string]string{"error": "Unauthorized"})
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			return c.JSON(403, map[string]string{"error": "Forbidden"})
		}
	}
}

func canSetStatus(role string, status entity.OrderStatus) bool {
	if role == RoleAdmin {
		return true
	}
	return role == RoleDelivery && deliveryStatuses[status]
}
