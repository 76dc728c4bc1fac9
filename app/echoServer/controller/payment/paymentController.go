package payment

import (
	"log/slog"
	"net/http"
	"strconv"

	"bikerental/app/echoServer/controller"
	paymentsvc "bikerental/service/payment"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// Pay godoc
// @Summary      Pay for a rental
// @Description  Converts the amount to EUR, authorizes and captures it with the card processor
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int     true  "Rental ID"
// @Param        payload  body  PayReq  true  "Payment payload"
// @Success      201  {object}  model.RentalPayment  "recorded, whatever its status"
// @Failure      400,401,404  {object}  map[string]any
// @Failure      502  {object}  map[string]any  "FX or card processor unavailable"
// @Router       /v1/rentals/{id}/payments [post]
func (h *Controller) Pay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return controller.BadRequest(c, "invalid id", nil)
	}
	var req PayReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest(c, "invalid JSON", nil)
	}
	if err := c.Validate(&req); err != nil {
		return controller.BadRequest(c, "validation error", err)
	}

	p, err := h.Svc.PayRental(c.Request().Context(), id, req.Amount, req.Currency, req.PaymentMethodID)
	if err != nil {
		return controller.Fail(c, h.Log, "pay rental", err)
	}
	// declined or pending attempts are still recorded
	return c.JSON(http.StatusCreated, p)
}

// @Summary   Payments of a rental
// @Tags      payments
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  int  true  "Rental ID"
// @Success   200  {object}  map[string]any
// @Failure   400,401,404  {object}  map[string]any
// @Router    /v1/rentals/{id}/payments [get]
func (h *Controller) List(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return controller.BadRequest(c, "invalid id", nil)
	}
	rows, err := h.Svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "list payments", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
