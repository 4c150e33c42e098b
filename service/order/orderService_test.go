package ordersvc_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
	discountsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/discount"
	ordersvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/order"
	pricingsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/pricing"
)

type orderRepoMock struct {
	created  []*model.Bill
	deleted  []string
	createFn func(ctx context.Context, b *model.Bill, items []model.BillItem) error
}

func (m *orderRepoMock) CreateBill(ctx context.Context, b *model.Bill, items []model.BillItem) error {
	m.created = append(m.created, b)
	if m.createFn != nil {
		return m.createFn(ctx, b, items)
	}
	return nil
}
func (m *orderRepoMock) DeleteUnconfirmed(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}
func (m *orderRepoMock) ListByUser(ctx context.Context, userID int64) ([]model.Bill, error) {
	return nil, nil
}

type entRepoMock struct{}

func (m *entRepoMock) ListPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return nil, nil
}

type pricingMock struct {
	purchaseFn func(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error)
}

func (m *pricingMock) CheckPurchase(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error) {
	return m.purchaseFn(ctx, userID, bookIDs)
}
func (m *pricingMock) CheckRental(ctx context.Context, userID, bookID int64, days int) (*pricingsvc.RentalQuote, error) {
	panic("not used")
}

type discountMock struct {
	applyFn   func(ctx context.Context, userID int64, name string, total float64) (*discountsvc.Applied, error)
	committed []int64
	released  []int64
}

func (m *discountMock) Apply(ctx context.Context, userID int64, name string, total float64) (*discountsvc.Applied, error) {
	if m.applyFn == nil {
		return &discountsvc.Applied{Total: total}, nil
	}
	return m.applyFn(ctx, userID, name, total)
}
func (m *discountMock) Commit(ctx context.Context, userID, discountID int64) error {
	m.committed = append(m.committed, discountID)
	return nil
}
func (m *discountMock) Release(ctx context.Context, userID, discountID int64) error {
	m.released = append(m.released, discountID)
	return nil
}

type gatewayMock struct {
	initiateFn func(req momorepo.InitiateReq) (*momorepo.InitiateResp, error)
	requests   []momorepo.InitiateReq
}

func (m *gatewayMock) Initiate(req momorepo.InitiateReq) (*momorepo.InitiateResp, error) {
	m.requests = append(m.requests, req)
	return m.initiateFn(req)
}
func (m *gatewayMock) VerifyIPN(p momorepo.IPNPayload) bool { return true }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func okCheck(total float64, books ...int64) *pricingsvc.LineCheck {
	out := &pricingsvc.LineCheck{Total: total}
	per := total / float64(len(books))
	for _, id := range books {
		out.Accepted = append(out.Accepted, model.BillItem{BookID: id, Price: per})
	}
	return out
}

func TestCreate_EmptyOrderLeavesNoTrace(t *testing.T) {
	orders := &orderRepoMock{}
	pricing := &pricingMock{purchaseFn: func(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error) {
		return &pricingsvc.LineCheck{NotFound: []int64{9}, Duplicated: []int64{3}}, nil
	}}
	gw := &gatewayMock{}

	s := ordersvc.New(orders, &entRepoMock{}, pricing, &discountMock{}, gw, discard())
	out, err := s.Create(context.Background(), 1, []int64{3, 9}, "")

	if ordersvc.Code(err) != ordersvc.ErrEmptyOrder {
		t.Fatalf("got %v; want EMPTY_ORDER", err)
	}
	if out == nil || len(out.NotFound) != 1 || len(out.Duplicated) != 1 {
		t.Fatalf("rejection buckets missing: %+v", out)
	}
	if len(orders.created) != 0 {
		t.Fatal("no bill may be created for an empty order")
	}
	if len(gw.requests) != 0 {
		t.Fatal("gateway must not be called for an empty order")
	}
}

func TestCreate_GatewayFailureCompensates(t *testing.T) {
	orders := &orderRepoMock{}
	pricing := &pricingMock{purchaseFn: func(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error) {
		return okCheck(100000, 1), nil
	}}
	discounts := &discountMock{applyFn: func(ctx context.Context, userID int64, name string, total float64) (*discountsvc.Applied, error) {
		return &discountsvc.Applied{
			Discount: &model.Discount{ID: 7, Ratio: 0.1, Active: true},
			Total:    total * 0.9,
		}, nil
	}}
	gw := &gatewayMock{initiateFn: func(req momorepo.InitiateReq) (*momorepo.InitiateResp, error) {
		return nil, errors.New("connection refused")
	}}

	s := ordersvc.New(orders, &entRepoMock{}, pricing, discounts, gw, discard())
	_, err := s.Create(context.Background(), 1, []int64{1}, "WELCOME")

	if ordersvc.Code(err) != ordersvc.ErrGateway {
		t.Fatalf("got %v; want GATEWAY", err)
	}
	if len(orders.created) != 1 || len(orders.deleted) != 1 {
		t.Fatalf("created=%d deleted=%d; want the bill deleted again", len(orders.created), len(orders.deleted))
	}
	if orders.created[0].ID != orders.deleted[0] {
		t.Fatal("compensation must delete the bill it created")
	}
	if len(discounts.committed) != 0 {
		t.Fatal("discount must not be consumed on gateway failure")
	}
	if len(discounts.released) != 1 {
		t.Fatal("discount reservation must be released on gateway failure")
	}
}

func TestCreate_Success(t *testing.T) {
	orders := &orderRepoMock{}
	pricing := &pricingMock{purchaseFn: func(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error) {
		return okCheck(100000, 1), nil
	}}
	discounts := &discountMock{applyFn: func(ctx context.Context, userID int64, name string, total float64) (*discountsvc.Applied, error) {
		return &discountsvc.Applied{
			Discount: &model.Discount{ID: 7, Ratio: 0.1, Active: true},
			Total:    total * (1 - 0.1),
		}, nil
	}}
	gw := &gatewayMock{initiateFn: func(req momorepo.InitiateReq) (*momorepo.InitiateResp, error) {
		return &momorepo.InitiateResp{PayURL: "https://pay", Deeplink: "momo://", QRCodeURL: "https://qr"}, nil
	}}

	s := ordersvc.New(orders, &entRepoMock{}, pricing, discounts, gw, discard())
	out, err := s.Create(context.Background(), 1, []int64{1}, "WELCOME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Total != 90000 {
		t.Fatalf("total = %v; want 90000", out.Total)
	}
	if len(orders.created) != 1 {
		t.Fatal("bill not persisted")
	}
	bill := orders.created[0]
	if bill.DiscountID == nil || *bill.DiscountID != 7 {
		t.Fatalf("bill discount = %v; want 7", bill.DiscountID)
	}
	if bill.TotalPrice != 90000 {
		t.Fatalf("bill total = %v; want 90000", bill.TotalPrice)
	}
	if gw.requests[0].Amount != 90000 || gw.requests[0].OrderID != bill.ID {
		t.Fatalf("gateway request = %+v", gw.requests[0])
	}
	// redemption committed only after the gateway accepted
	if len(discounts.committed) != 1 || discounts.committed[0] != 7 {
		t.Fatalf("committed = %v; want [7]", discounts.committed)
	}
	if out.PayURL != "https://pay" || out.Deeplink != "momo://" || out.QRCodeURL != "https://qr" {
		t.Fatalf("pay urls = %+v", out)
	}
}

func TestCreate_NoDiscountName(t *testing.T) {
	orders := &orderRepoMock{}
	pricing := &pricingMock{purchaseFn: func(ctx context.Context, userID int64, bookIDs []int64) (*pricingsvc.LineCheck, error) {
		return okCheck(5000, 2), nil
	}}
	discounts := &discountMock{}
	gw := &gatewayMock{initiateFn: func(req momorepo.InitiateReq) (*momorepo.InitiateResp, error) {
		return &momorepo.InitiateResp{PayURL: "https://pay"}, nil
	}}

	s := ordersvc.New(orders, &entRepoMock{}, pricing, discounts, gw, discard())
	out, err := s.Create(context.Background(), 1, []int64{2}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Total != 5000 {
		t.Fatalf("total = %v; want 5000", out.Total)
	}
	if orders.created[0].DiscountID != nil {
		t.Fatal("no discount may be attached")
	}
	if len(discounts.committed) != 0 {
		t.Fatal("nothing to commit without a discount")
	}
}
