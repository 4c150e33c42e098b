package payment

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
	paymentsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/payment"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// POST /v1/payment/momo/ipn
//
// The gateway retries on timeout, so the handler acknowledges with an empty
// 204 as soon as the signature checks out and finishes reconciliation in
// the background.
func (h *Controller) HandleIPN(c echo.Context) error {
	var p momorepo.IPNPayload
	if err := c.Bind(&p); err != nil {
		h.Log.Warn("ipn bind failed", "err", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	}

	if !h.Svc.Verify(p) {
		h.Log.Warn("ipn signature mismatch", "order_id", p.OrderID, "ip", c.RealIP())
		return c.JSON(http.StatusForbidden, echo.Map{"message": "invalid signature"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Svc.Process(ctx, p); err != nil {
			h.Log.Error("ipn processing failed", "order_id", p.OrderID, "err", err)
		}
	}()

	return c.NoContent(http.StatusNoContent)
}
