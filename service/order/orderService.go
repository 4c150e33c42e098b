// Package ordersvc builds pending purchase transactions: eligibility check,
// discount application, bill persistence, then gateway initiation with
// compensating deletes when the gateway refuses.
package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
	discountsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/discount"
	pricingsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/pricing"
)

type ErrCode string

const (
	ErrEmptyOrder   ErrCode = "EMPTY_ORDER"
	ErrGateway      ErrCode = "GATEWAY"
	ErrUserNotFound ErrCode = "USER_NOT_FOUND"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return string(e.code) + ": " + e.err.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode) error            { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type OrderRepo interface {
	CreateBill(ctx context.Context, b *model.Bill, items []model.BillItem) error
	DeleteUnconfirmed(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64) ([]model.Bill, error)
}

type EntitlementRepo interface {
	ListPurchases(ctx context.Context, userID int64) ([]model.Purchase, error)
}

type Created struct {
	BillID      string  `json:"bill_id"`
	Total       float64 `json:"total"`
	PayURL      string  `json:"pay_url"`
	Deeplink    string  `json:"deeplink"`
	QRCodeURL   string  `json:"qr_code_url"`
	Duplicated  []int64 `json:"duplicated,omitempty"`
	NotFound    []int64 `json:"not_found,omitempty"`
	NotSellable []int64 `json:"not_sellable,omitempty"`
	Warning     string  `json:"warning,omitempty"`
}

type Service interface {
	// Create runs the whole initiation sequence and returns the gateway pay
	// URLs. On ErrEmptyOrder the returned Created still carries the
	// rejection buckets and no pending rows are left behind.
	Create(ctx context.Context, userID int64, bookIDs []int64, discountName string) (*Created, error)

	MyBills(ctx context.Context, userID int64) ([]model.Bill, error)
	MyPurchases(ctx context.Context, userID int64) ([]model.Purchase, error)
}

type service struct {
	orders    OrderRepo
	ents      EntitlementRepo
	pricing   pricingsvc.Service
	discounts discountsvc.Service
	gw        momorepo.Repo
	log       *slog.Logger
}

func New(orders OrderRepo, ents EntitlementRepo, pricing pricingsvc.Service, discounts discountsvc.Service, gw momorepo.Repo, log *slog.Logger) Service {
	return &service{orders: orders, ents: ents, pricing: pricing, discounts: discounts, gw: gw, log: log}
}

func (s *service) Create(ctx context.Context, userID int64, bookIDs []int64, discountName string) (*Created, error) {
	chk, err := s.pricing.CheckPurchase(ctx, userID, bookIDs)
	if err != nil {
		if pricingsvc.Code(err) == pricingsvc.ErrUserNotFound {
			return nil, wrapErr(ErrUserNotFound, err)
		}
		return nil, err
	}

	out := &Created{
		Duplicated:  chk.Duplicated,
		NotFound:    chk.NotFound,
		NotSellable: chk.NotSellable,
	}
	if chk.Empty() {
		return out, makeErr(ErrEmptyOrder)
	}

	ap, err := s.discounts.Apply(ctx, userID, discountName, chk.Total)
	if err != nil {
		return nil, err
	}
	out.Warning = ap.Warning
	out.Total = ap.Total

	bill := &model.Bill{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: ap.Total,
	}
	if ap.Discount != nil {
		id := ap.Discount.ID
		bill.DiscountID = &id
	}

	if err := s.orders.CreateBill(ctx, bill, chk.Accepted); err != nil {
		return nil, err
	}
	out.BillID = bill.ID

	init, err := s.gw.Initiate(momorepo.InitiateReq{
		Amount:    int64(math.Round(ap.Total)),
		OrderID:   bill.ID,
		OrderInfo: fmt.Sprintf("Book order %s", bill.ID),
	})
	if err != nil {
		// Gateway refused: unwind the pending transaction completely.
		if derr := s.orders.DeleteUnconfirmed(ctx, bill.ID); derr != nil {
			s.log.Error("order compensation failed", "bill_id", bill.ID, "err", derr)
		}
		if ap.Discount != nil {
			if rerr := s.discounts.Release(ctx, userID, ap.Discount.ID); rerr != nil {
				s.log.Error("discount release failed", "bill_id", bill.ID, "err", rerr)
			}
		}
		return nil, wrapErr(ErrGateway, err)
	}

	// Redemption is recorded only once the gateway accepted; the webhook
	// reconciler re-asserts it from the bill, so a crash here heals.
	if ap.Discount != nil {
		if cerr := s.discounts.Commit(ctx, userID, ap.Discount.ID); cerr != nil {
			s.log.Warn("discount commit deferred to reconciler", "bill_id", bill.ID, "err", cerr)
		}
	}

	out.PayURL = init.PayURL
	out.Deeplink = init.Deeplink
	out.QRCodeURL = init.QRCodeURL
	return out, nil
}

func (s *service) MyBills(ctx context.Context, userID int64) ([]model.Bill, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *service) MyPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.ents.ListPurchases(ctx, userID)
}
