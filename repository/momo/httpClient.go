package momorepo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/util/httpx"
)

type Config struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string // e.g. https://test-payment.momo.vn
	RedirectURL string
	IPNURL      string
}

type httpRepo struct {
	cfg    Config
	client *http.Client
}

func NewHTTP(cfg Config) Repo { return &httpRepo{cfg: cfg, client: httpx.Client()} }

const requestType = "captureWallet"

func (r *httpRepo) Initiate(req InitiateReq) (*InitiateResp, error) {
	requestID := uuid.NewString()
	amount := strconv.FormatInt(req.Amount, 10)
	extraData := ""

	// The gateway rejects any deviation from this exact field order.
	raw := "accessKey=" + r.cfg.AccessKey +
		"&amount=" + amount +
		"&extraData=" + extraData +
		"&ipnUrl=" + r.cfg.IPNURL +
		"&orderId=" + req.OrderID +
		"&orderInfo=" + req.OrderInfo +
		"&partnerCode=" + r.cfg.PartnerCode +
		"&redirectUrl=" + r.cfg.RedirectURL +
		"&requestId=" + requestID +
		"&requestType=" + requestType

	body := map[string]any{
		"partnerCode": r.cfg.PartnerCode,
		"accessKey":   r.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     req.OrderID,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": r.cfg.RedirectURL,
		"ipnUrl":      r.cfg.IPNURL,
		"requestType": requestType,
		"extraData":   extraData,
		"lang":        "vi",
		"signature":   r.sign(raw),
	}
	b, _ := json.Marshal(body)

	httpReq, err := http.NewRequest(http.MethodPost, r.cfg.Endpoint+"/v2/gateway/api/create", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("momo create payment failed: %s", resp.Status)
	}

	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
		Deeplink   string `json:"deeplink"`
		QRCodeURL  string `json:"qrCodeUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("momo create payment rejected: code=%d message=%s", out.ResultCode, out.Message)
	}
	if out.PayURL == "" {
		return nil, errors.New("momo: empty pay url")
	}

	return &InitiateResp{PayURL: out.PayURL, Deeplink: out.Deeplink, QRCodeURL: out.QRCodeURL}, nil
}

func (r *httpRepo) VerifyIPN(p IPNPayload) bool {
	raw := "accessKey=" + r.cfg.AccessKey +
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

	want := r.sign(raw)
	return hmac.Equal([]byte(want), []byte(p.Signature))
}

func (r *httpRepo) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(r.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
