package payment

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
)

type svcMock struct {
	verify    bool
	processed chan momorepo.IPNPayload
}

func (m *svcMock) Verify(p momorepo.IPNPayload) bool { return m.verify }
func (m *svcMock) Process(ctx context.Context, p momorepo.IPNPayload) error {
	m.processed <- p
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func post(t *testing.T, h *Controller, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payment/momo/ipn", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleIPN(e.NewContext(req, rec)))
	return rec
}

func TestHandleIPN_AcksThenProcesses(t *testing.T) {
	m := &svcMock{verify: true, processed: make(chan momorepo.IPNPayload, 1)}
	h := &Controller{Svc: m, Log: discard()}

	rec := post(t, h, `{"orderId":"bill-42","resultCode":0,"transId":1122334455,"signature":"aa"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String(), "gateway expects an empty acknowledgement")

	select {
	case p := <-m.processed:
		assert.Equal(t, "bill-42", p.OrderID)
		assert.Equal(t, int64(1122334455), p.TransID)
	case <-time.After(2 * time.Second):
		t.Fatal("payload was never handed to the reconciler")
	}
}

func TestHandleIPN_BadSignature(t *testing.T) {
	m := &svcMock{verify: false, processed: make(chan momorepo.IPNPayload, 1)}
	h := &Controller{Svc: m, Log: discard()}

	rec := post(t, h, `{"orderId":"bill-42","resultCode":0,"signature":"forged"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	select {
	case <-m.processed:
		t.Fatal("unverified payload must never reach the reconciler")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleIPN_BadPayload(t *testing.T) {
	m := &svcMock{verify: true, processed: make(chan momorepo.IPNPayload, 1)}
	h := &Controller{Svc: m, Log: discard()}

	rec := post(t, h, `{"orderId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
