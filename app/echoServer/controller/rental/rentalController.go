package rental

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/jwtx"
	rentalsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/rental"
)

type Controller struct {
	Svc rentalsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/rentals
func (h *Controller) Create(c echo.Context) error {
	var req CreateRentalReq
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

	out, err := h.Svc.Rent(c.Request().Context(), uid, req.BookID, req.Days, req.Discount)
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case rentalsvc.ErrNotSellable:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "book not available for rent"})
		case rentalsvc.ErrDuplicate:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already owned"})
		case rentalsvc.ErrBadDuration:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid duration"})
		case rentalsvc.ErrGateway:
			h.Log.Error("rental gateway failure", "err", err, "user_id", uid)
			return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment gateway unavailable, rental cancelled"})
		default:
			h.Log.Error("rental create", "err", err, "user_id", uid)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// GET /v1/rentals/my
func (h *Controller) MyRentals(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.MyRentals(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("rental list", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/subscriptions/my
func (h *Controller) MySubscriptions(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.MySubscriptions(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("subscription list", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
