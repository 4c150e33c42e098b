package momorepo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	PartnerCode: "MOMOTEST",
	AccessKey:   "access123",
	SecretKey:   "secret456",
	RedirectURL: "https://shop.example.com/return",
	IPNURL:      "https://shop.example.com/v1/payment/momo/ipn",
}

func signWith(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func signedIPN(cfg Config, resultCode int) IPNPayload {
	p := IPNPayload{
		PartnerCode:  cfg.PartnerCode,
		OrderID:      "bill-42",
		RequestID:    "req-1",
		Amount:       90000,
		OrderInfo:    "Book order bill-42",
		OrderType:    "momo_wallet",
		TransID:      1122334455,
		ResultCode:   resultCode,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1718000000000,
	}
	raw := "accessKey=" + cfg.AccessKey +
		"&amount=" + strconv.FormatInt(p.Amount, 10) +
		"&extraData=" + p.ExtraData +
		"&message=" + p.Message +
		"&orderId=" + p.OrderID +
		"&orderInfo=" + p.OrderInfo +
		"&orderType=" + p.OrderType +
		"&partnerCode=" + p.PartnerCode +
		"&payType=" + p.PayType +
		"&requestId=" + p.RequestID +
		"&responseTime=" + strconv.FormatInt(p.ResponseTime, 10) +
		"&resultCode=" + strconv.Itoa(p.ResultCode) +
		"&transId=" + strconv.FormatInt(p.TransID, 10)
	p.Signature = signWith(cfg.SecretKey, raw)
	return p
}

func TestVerifyIPN(t *testing.T) {
	r := NewHTTP(testCfg)

	assert.True(t, r.VerifyIPN(signedIPN(testCfg, 0)))
	assert.True(t, r.VerifyIPN(signedIPN(testCfg, 1006)), "failure payloads are signed too")
}

func TestVerifyIPN_Tampered(t *testing.T) {
	r := NewHTTP(testCfg)

	p := signedIPN(testCfg, 0)
	p.Amount = 1 // signed as 90000
	assert.False(t, r.VerifyIPN(p))

	p = signedIPN(testCfg, 0)
	p.Signature = "deadbeef"
	assert.False(t, r.VerifyIPN(p))

	wrongKey := testCfg
	wrongKey.SecretKey = "not-our-secret"
	assert.False(t, r.VerifyIPN(signedIPN(wrongKey, 0)), "signature from another key must not verify")
}

func TestInitiate(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v2/gateway/api/create", req.URL.Path)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resultCode": 0,
			"payUrl":     "https://test-payment.momo.vn/pay/abc",
			"deeplink":   "momo://app?action=payWithApp",
			"qrCodeUrl":  "https://test-payment.momo.vn/qr/abc",
		})
	}))
	defer srv.Close()

	cfg := testCfg
	cfg.Endpoint = srv.URL
	r := NewHTTP(cfg)

	out, err := r.Initiate(InitiateReq{Amount: 90000, OrderID: "bill-42", OrderInfo: "Book order bill-42"})
	require.NoError(t, err)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", out.PayURL)
	assert.Equal(t, "momo://app?action=payWithApp", out.Deeplink)
	assert.Equal(t, "https://test-payment.momo.vn/qr/abc", out.QRCodeURL)

	// the request must be signed over the documented field order
	raw := "accessKey=" + cfg.AccessKey +
		"&amount=90000" +
		"&extraData=" +
		"&ipnUrl=" + cfg.IPNURL +
		"&orderId=bill-42" +
		"&orderInfo=Book order bill-42" +
		"&partnerCode=" + cfg.PartnerCode +
		"&redirectUrl=" + cfg.RedirectURL +
		"&requestId=" + got["requestId"] +
		"&requestType=captureWallet"
	assert.Equal(t, signWith(cfg.SecretKey, raw), got["signature"])
	assert.Equal(t, "captureWallet", got["requestType"])
	assert.NotEmpty(t, got["requestId"])
}

func TestInitiate_GatewayRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"resultCode": 41, "message": "duplicate orderId"})
	}))
	defer srv.Close()

	cfg := testCfg
	cfg.Endpoint = srv.URL
	r := NewHTTP(cfg)

	_, err := r.Initiate(InitiateReq{Amount: 1000, OrderID: "bill-42"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=41")
}

func TestInitiate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testCfg
	cfg.Endpoint = srv.URL
	r := NewHTTP(cfg)

	_, err := r.Initiate(InitiateReq{Amount: 1000, OrderID: "bill-42"})
	require.Error(t, err)
}
