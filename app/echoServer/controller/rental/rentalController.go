package rental

import (
	"log/slog"
	"net/http"
	"strconv"

	"bikerental/app/echoServer/controller"
	"bikerental/app/echoServer/jwtx"
	"bikerental/model"
	rs "bikerental/service/rental"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	Log *slog.Logger
}

// Rent godoc
// @Summary      Rent a bike or join its waiting list
// @Description  Rents an idle bike, or queues the caller when it is already rented
// @Tags         rentals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  RentReq  true  "Rent payload"
// @Success      201  {object}  rs.RentResult  "rented"
// @Success      202  {object}  rs.RentResult  "waitlisted"
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any  "already waiting or concurrent update"
// @Router       /v1/rentals [post]
func (h *Controller) Rent(c echo.Context) error {
	var req RentReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest(c, "invalid JSON", nil)
	}
	if err := c.Validate(&req); err != nil {
		return controller.BadRequest(c, "validation error", err)
	}

	out, err := h.Svc.Rent(c.Request().Context(), req.BikeID, jwtx.CustomerID(c), req.Days)
	if err != nil {
		return controller.Fail(c, h.Log, "rent", err)
	}
	status := http.StatusCreated
	if out.Outcome == model.Waitlisted {
		status = http.StatusAccepted
	}
	return c.JSON(status, out)
}

// Return godoc
// @Summary      Return a rented bike
// @Description  Closes the rental, records a note and hands the bike to the first waiting customer
// @Tags         rentals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int        true  "Rental ID"
// @Param        payload  body  ReturnReq  true  "Return payload"
// @Success      200  {object}  rs.ReturnResult
// @Failure      400,401,404,409  {object}  map[string]any
// @Router       /v1/rentals/{id}/return [post]
func (h *Controller) Return(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return controller.BadRequest(c, "invalid id", nil)
	}
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest(c, "invalid JSON", nil)
	}
	if err := c.Validate(&req); err != nil {
		return controller.BadRequest(c, "validation error", err)
	}

	out, err := h.Svc.ReturnBike(c.Request().Context(), id, jwtx.CustomerID(c), req.Comment, req.Condition)
	if err != nil {
		return controller.Fail(c, h.Log, "return", err)
	}
	return c.JSON(http.StatusOK, out)
}

// CancelWaiting godoc
// @Summary   Leave a waiting list
// @Tags      waitlist
// @Security  BearerAuth
// @Param     id  path  int  true  "Entry ID"
// @Success   204
// @Failure   400,401,404,409  {object}  map[string]any
// @Router    /v1/waitlist/{id} [delete]
func (h *Controller) CancelWaiting(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return controller.BadRequest(c, "invalid id", nil)
	}
	if err := h.Svc.CancelWaiting(c.Request().Context(), id, jwtx.CustomerID(c)); err != nil {
		return controller.Fail(c, h.Log, "cancel waiting", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary   My rentals
// @Tags      rentals
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Failure   401,500  {object}  map[string]any
// @Router    /v1/rentals/my [get]
func (h *Controller) MyRentals(c echo.Context) error {
	rows, err := h.Svc.MyRentals(c.Request().Context(), jwtx.CustomerID(c))
	if err != nil {
		return controller.Fail(c, h.Log, "my rentals", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// @Summary   My notifications
// @Tags      notifications
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Failure   401,500  {object}  map[string]any
// @Router    /v1/notifications/my [get]
func (h *Controller) MyNotifications(c echo.Context) error {
	rows, err := h.Svc.MyNotifications(c.Request().Context(), jwtx.CustomerID(c))
	if err != nil {
		return controller.Fail(c, h.Log, "my notifications", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// @Summary   My open waiting-list entries
// @Tags      waitlist
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]any
// @Failure   401,500  {object}  map[string]any
// @Router    /v1/waitlist/my [get]
func (h *Controller) MyWaitlist(c echo.Context) error {
	rows, err := h.Svc.MyWaitlist(c.Request().Context(), jwtx.CustomerID(c))
	if err != nil {
		return controller.Fail(c, h.Log, "my waitlist", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
