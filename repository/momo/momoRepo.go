package momorepo

// IPNPayload is the gateway's asynchronous payment notification. Field names
// follow the wire format; all of them except Signature participate in the
// signature hash.
type IPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// Succeeded reports whether the gateway confirmed the payment.
func (p IPNPayload) Succeeded() bool { return p.ResultCode == 0 }

type InitiateReq struct {
	Amount    int64
	OrderID   string
	OrderInfo string
}

type InitiateResp struct {
	PayURL    string
	Deeplink  string
	QRCodeURL string
}

type Repo interface {
	// Initiate creates a payment request at the gateway and returns the URLs
	// the client pays through. Any transport failure or non-zero gateway
	// result is returned as an error so the caller can compensate.
	Initiate(req InitiateReq) (*InitiateResp, error)

	// VerifyIPN recomputes the payload signature and compares it against
	// the delivered one.
	VerifyIPN(p IPNPayload) bool
}
