package echoServer

import (
	"net/http"

	"bikerental/app/echoServer/controller/payment"
	"bikerental/app/echoServer/controller/rental"
	"bikerental/app/echoServer/jwtx"
	_ "bikerental/docs"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type C struct {
	Rental    *rental.Controller
	Payment   *payment.Controller
	JWTSecret string
	// Gatherer backs /metrics; nil skips the route.
	Gatherer prometheus.Gatherer
	// Health reports storage reachability for /health.
	Health func(echo.Context) error
}

func Register(e *echo.Echo, c C) {
	// Public
	e.GET("/health", func(ctx echo.Context) error {
		if c.Health != nil {
			if err := c.Health(ctx); err != nil {
				return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "message": err.Error()})
			}
		}
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	if c.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	auth.Use(jwtx.RequireSubject())

	// Rentals
	auth.POST("/rentals", c.Rental.Rent)
	auth.POST("/rentals/:id/return", c.Rental.Return)
	auth.GET("/rentals/my", c.Rental.MyRentals)
	auth.GET("/notifications/my", c.Rental.MyNotifications)

	// Waiting list
	auth.GET("/waitlist/my", c.Rental.MyWaitlist)
	auth.DELETE("/waitlist/:id", c.Rental.CancelWaiting)

	// Payments
	auth.POST("/rentals/:id/payments", c.Payment.Pay)
	auth.GET("/rentals/:id/payments", c.Payment.List)
}
