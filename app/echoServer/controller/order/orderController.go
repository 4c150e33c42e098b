package order

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/jwtx"
	ordersvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/order"
)

type Controller struct {
	Svc ordersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/orders
func (h *Controller) Create(c echo.Context) error {
	var req CreateOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	out, err := h.Svc.Create(c.Request().Context(), uid, req.BookIDs, req.Discount)
	if err != nil {
		switch ordersvc.Code(err) {
		case ordersvc.ErrEmptyOrder:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message":      "no purchasable books in order",
				"duplicated":   out.Duplicated,
				"not_found":    out.NotFound,
				"not_sellable": out.NotSellable,
			})
		case ordersvc.ErrUserNotFound:
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		case ordersvc.ErrGateway:
			h.Log.Error("order gateway failure", "err", err, "user_id", uid)
			return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment gateway unavailable, order cancelled"})
		default:
			h.Log.Error("order create", "err", err, "user_id", uid)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// GET /v1/orders/my
func (h *Controller) MyBills(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	bills, err := h.Svc.MyBills(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("order history", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": bills})
}

// GET /v1/purchases/my
func (h *Controller) MyPurchases(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.MyPurchases(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("purchase list", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
