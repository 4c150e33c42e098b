// Package paymentsvc reconciles gateway IPN deliveries against pending
// transactions. Confirmation and reversal are both claim-based (conditional
// UPDATE / DELETE on still-pending rows inside one DB transaction), so
// re-delivered webhooks land as no-ops instead of double side effects.
package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
	notifysvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/notify"
)

type OrderRepo interface {
	BillByID(ctx context.Context, id string) (*model.Bill, []model.BillItem, error)
	Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error)
	Delete(ctx context.Context, tx *sql.Tx, id string) (bool, *int64, error)
}

type SubscriptionRepo interface {
	ByID(ctx context.Context, id string) (*model.Subscription, error)
	Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error)
	Delete(ctx context.Context, tx *sql.Tx, id string) (bool, *int64, error)
}

type EntitlementRepo interface {
	InsertPurchases(ctx context.Context, tx *sql.Tx, userID int64, items []model.BillItem) error
	ExtendRental(ctx context.Context, tx *sql.Tx, userID, bookID int64, days int) (time.Time, error)
}

type DiscountRepo interface {
	ByID(ctx context.Context, id int64) (*model.Discount, error)
	RedeemTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error
	ReleaseTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error
}

type BookRepo interface {
	ByID(ctx context.Context, id int64) (*model.Book, error)
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	// Verify authenticates an IPN payload. Nothing may be mutated before
	// this passes.
	Verify(p momorepo.IPNPayload) bool

	// Process finalizes or reverts the pending transaction the payload
	// refers to. Unknown ids are logged and dropped; duplicate deliveries
	// are no-ops.
	Process(ctx context.Context, p momorepo.IPNPayload) error
}

type service struct {
	db        *sql.DB
	orders    OrderRepo
	subs      SubscriptionRepo
	ents      EntitlementRepo
	discounts DiscountRepo
	books     BookRepo
	users     UserRepo
	gw        momorepo.Repo
	notifier  notifysvc.Notifier
	locks     *redis.Client // nil disables the per-transaction lock
	log       *slog.Logger
}

func New(db *sql.DB, orders OrderRepo, subs SubscriptionRepo, ents EntitlementRepo,
	discounts DiscountRepo, books BookRepo, users UserRepo,
	gw momorepo.Repo, notifier notifysvc.Notifier, locks *redis.Client, log *slog.Logger) Service {
	return &service{
		db: db, orders: orders, subs: subs, ents: ents,
		discounts: discounts, books: books, users: users,
		gw: gw, notifier: notifier, locks: locks, log: log,
	}
}

func (s *service) Verify(p momorepo.IPNPayload) bool { return s.gw.VerifyIPN(p) }

func (s *service) Process(ctx context.Context, p momorepo.IPNPayload) error {
	if s.locks != nil {
		key := "ipn:" + p.OrderID
		ok, err := s.locks.SetNX(ctx, key, 1, 2*time.Minute).Result()
		if err != nil {
			// Lock store down: the claim queries below still keep
			// duplicates from double-applying.
			s.log.Warn("ipn lock unavailable", "order_id", p.OrderID, "err", err)
		} else if !ok {
			s.log.Info("ipn already being processed", "order_id", p.OrderID)
			return nil
		} else {
			defer s.locks.Del(context.WithoutCancel(ctx), key)
		}
	}

	transID := strconv.FormatInt(p.TransID, 10)

	bill, items, err := s.orders.BillByID(ctx, p.OrderID)
	if err == nil {
		if p.Succeeded() {
			return s.confirmBill(ctx, bill, items, transID)
		}
		return s.revertBill(ctx, bill, p)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	sub, err := s.subs.ByID(ctx, p.OrderID)
	if err == nil {
		if p.Succeeded() {
			return s.confirmSubscription(ctx, sub, transID)
		}
		return s.revertSubscription(ctx, sub, p)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// Late re-delivery after a revert, or a payload we never issued.
	s.log.Warn("ipn for unknown transaction", "order_id", p.OrderID, "result_code", p.ResultCode)
	return nil
}

func (s *service) confirmBill(ctx context.Context, bill *model.Bill, items []model.BillItem, transID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claimed, err := s.orders.Confirm(ctx, tx, bill.ID, transID)
	if err != nil {
		return err
	}
	if !claimed {
		_ = tx.Rollback()
		s.log.Info("bill already finalized", "bill_id", bill.ID)
		return nil
	}

	if err = s.ents.InsertPurchases(ctx, tx, bill.UserID, items); err != nil {
		return err
	}
	// Re-assert the redemption from the bill itself in case the process
	// died between gateway acceptance and the initiation-time commit.
	if bill.DiscountID != nil {
		if err = s.discounts.RedeemTx(ctx, tx, bill.UserID, *bill.DiscountID); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.notify(ctx, bill.UserID, "Payment confirmed",
		fmt.Sprintf("Your order %s (%.0f) is confirmed. Enjoy your books!", bill.ID, bill.TotalPrice))
	return nil
}

func (s *service) revertBill(ctx context.Context, bill *model.Bill, p momorepo.IPNPayload) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, discountID, err := s.orders.Delete(ctx, tx, bill.ID)
	if err != nil {
		return err
	}
	if !deleted {
		_ = tx.Rollback()
		s.log.Info("bill not pending, revert skipped", "bill_id", bill.ID)
		return nil
	}
	if discountID != nil {
		if err = s.discounts.ReleaseTx(ctx, tx, bill.UserID, *discountID); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.notify(ctx, bill.UserID, "Payment failed",
		fmt.Sprintf("Your order %s was not completed (%s). No money was taken from your account.", bill.ID, p.Message))
	return nil
}

func (s *service) confirmSubscription(ctx context.Context, sub *model.Subscription, transID string) (err error) {
	days, err := s.rentalDays(ctx, sub)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claimed, err := s.subs.Confirm(ctx, tx, sub.ID, transID)
	if err != nil {
		return err
	}
	if !claimed {
		_ = tx.Rollback()
		s.log.Info("subscription already finalized", "subscription_id", sub.ID)
		return nil
	}

	expiry, err := s.ents.ExtendRental(ctx, tx, sub.UserID, sub.BookID, days)
	if err != nil {
		return err
	}
	if sub.DiscountID != nil {
		if err = s.discounts.RedeemTx(ctx, tx, sub.UserID, *sub.DiscountID); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, "Rental confirmed",
		fmt.Sprintf("Your rental of book %d is active until %s.", sub.BookID, expiry.Format("2006-01-02")))
	return nil
}

func (s *service) revertSubscription(ctx context.Context, sub *model.Subscription, p momorepo.IPNPayload) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, discountID, err := s.subs.Delete(ctx, tx, sub.ID)
	if err != nil {
		return err
	}
	if !deleted {
		_ = tx.Rollback()
		s.log.Info("subscription not pending, revert skipped", "subscription_id", sub.ID)
		return nil
	}
	if discountID != nil {
		if err = s.discounts.ReleaseTx(ctx, tx, sub.UserID, *discountID); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, "Payment failed",
		fmt.Sprintf("Your rental %s was not completed (%s).", sub.ID, p.Message))
	return nil
}

// rentalDays reconstructs the rental duration from the paid price so that a
// discount reduces money, never time: the paid amount is un-discounted
// before dividing by the per-day price.
func (s *service) rentalDays(ctx context.Context, sub *model.Subscription) (int, error) {
	book, err := s.books.ByID(ctx, sub.BookID)
	if err != nil {
		return 0, err
	}
	perDay := book.Price * model.RentalPriceRate
	if perDay <= 0 {
		return sub.Days, nil
	}

	paid := sub.TotalPrice
	if sub.DiscountID != nil {
		d, err := s.discounts.ByID(ctx, *sub.DiscountID)
		if err != nil {
			return 0, err
		}
		if d.Ratio < 1 {
			paid = paid / (1 - d.Ratio)
		}
	}

	days := int(math.Round(paid / perDay))
	if days <= 0 {
		days = sub.Days
	}
	return days, nil
}

func (s *service) notify(ctx context.Context, userID int64, subject, body string) {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		s.log.Error("notify: user lookup failed", "user_id", userID, "err", err)
		return
	}
	if err := s.notifier.Send(ctx, u.Email, subject, body); err != nil {
		s.log.Error("notify: send failed", "user_id", userID, "err", err)
	}
}
