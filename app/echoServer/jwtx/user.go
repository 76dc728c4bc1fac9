package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const customerKey = "customer_id"

// SubjectFromToken reads the sub claim of the token echo-jwt stored under "user".
func SubjectFromToken(c echo.Context) (string, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return "", errors.New("no jwt token in context")
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("sub missing in claims")
	}
	return sub, nil
}

// RequireSubject rejects verified tokens that carry no subject and exposes the
// subject to handlers.
func RequireSubject() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, err := SubjectFromToken(c)
			if err != nil {
				return echo.NewHTTPError(401, "unauthorized")
			}
			c.Set(customerKey, sub)
			return next(c)
		}
	}
}

func CustomerID(c echo.Context) string {
	s, _ := c.Get(customerKey).(string)
	return s
}
