// Package rentalsvc builds pending rental transactions (subscriptions) and
// owns the daily entitlement expiry sweep.
package rentalsvc

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
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrNotSellable  ErrCode = "NOT_SELLABLE"
	ErrDuplicate    ErrCode = "DUPLICATE"
	ErrBadDuration  ErrCode = "BAD_DURATION"
	ErrGateway      ErrCode = "GATEWAY"
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

type SubscriptionRepo interface {
	Create(ctx context.Context, s *model.Subscription) error
	DeleteUnconfirmed(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error)
}

type EntitlementRepo interface {
	ListRentals(ctx context.Context, userID int64) ([]model.Rental, error)
}

type Created struct {
	SubscriptionID string  `json:"subscription_id"`
	Days           int     `json:"days"`
	Total          float64 `json:"total"`
	PayURL         string  `json:"pay_url"`
	Deeplink       string  `json:"deeplink"`
	QRCodeURL      string  `json:"qr_code_url"`
	Warning        string  `json:"warning,omitempty"`
}

type Service interface {
	Rent(ctx context.Context, userID, bookID int64, days int, discountName string) (*Created, error)
	MyRentals(ctx context.Context, userID int64) ([]model.Rental, error)
	MySubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error)
}

type service struct {
	subs      SubscriptionRepo
	ents      EntitlementRepo
	pricing   pricingsvc.Service
	discounts discountsvc.Service
	gw        momorepo.Repo
	log       *slog.Logger
}

func New(subs SubscriptionRepo, ents EntitlementRepo, pricing pricingsvc.Service, discounts discountsvc.Service, gw momorepo.Repo, log *slog.Logger) Service {
	return &service{subs: subs, ents: ents, pricing: pricing, discounts: discounts, gw: gw, log: log}
}

func (s *service) Rent(ctx context.Context, userID, bookID int64, days int, discountName string) (*Created, error) {
	quote, err := s.pricing.CheckRental(ctx, userID, bookID, days)
	if err != nil {
		switch pricingsvc.Code(err) {
		case pricingsvc.ErrBookNotFound, pricingsvc.ErrUserNotFound:
			return nil, wrapErr(ErrBookNotFound, err)
		case pricingsvc.ErrNotSellable:
			return nil, wrapErr(ErrNotSellable, err)
		case pricingsvc.ErrDuplicate:
			return nil, wrapErr(ErrDuplicate, err)
		case pricingsvc.ErrBadDuration:
			return nil, wrapErr(ErrBadDuration, err)
		}
		return nil, err
	}

	ap, err := s.discounts.Apply(ctx, userID, discountName, quote.Total)
	if err != nil {
		return nil, err
	}

	sub := &model.Subscription{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		Days:       days,
		TotalPrice: ap.Total,
	}
	if ap.Discount != nil {
		id := ap.Discount.ID
		sub.DiscountID = &id
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	init, err := s.gw.Initiate(momorepo.InitiateReq{
		Amount:    int64(math.Round(ap.Total)),
		OrderID:   sub.ID,
		OrderInfo: fmt.Sprintf("Rent book %d for %d days", bookID, days),
	})
	if err != nil {
		if derr := s.subs.DeleteUnconfirmed(ctx, sub.ID); derr != nil {
			s.log.Error("rental compensation failed", "subscription_id", sub.ID, "err", derr)
		}
		if ap.Discount != nil {
			if rerr := s.discounts.Release(ctx, userID, ap.Discount.ID); rerr != nil {
				s.log.Error("discount release failed", "subscription_id", sub.ID, "err", rerr)
			}
		}
		return nil, wrapErr(ErrGateway, err)
	}

	if ap.Discount != nil {
		if cerr := s.discounts.Commit(ctx, userID, ap.Discount.ID); cerr != nil {
			s.log.Warn("discount commit deferred to reconciler", "subscription_id", sub.ID, "err", cerr)
		}
	}

	return &Created{
		SubscriptionID: sub.ID,
		Days:           days,
		Total:          ap.Total,
		PayURL:         init.PayURL,
		Deeplink:       init.Deeplink,
		QRCodeURL:      init.QRCodeURL,
		Warning:        ap.Warning,
	}, nil
}

func (s *service) MyRentals(ctx context.Context, userID int64) ([]model.Rental, error) {
	return s.ents.ListRentals(ctx, userID)
}

func (s *service) MySubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	return s.subs.ListByUser(ctx, userID)
}
