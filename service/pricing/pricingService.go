// Package pricingsvc validates requested items and computes base prices
// before any pending transaction is created.
package pricingsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type ErrCode string

const (
	ErrUserNotFound ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrNotSellable  ErrCode = "NOT_SELLABLE"
	ErrDuplicate    ErrCode = "DUPLICATE"
	ErrBadDuration  ErrCode = "BAD_DURATION"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type BookRepo interface {
	ByID(ctx context.Context, id int64) (*model.Book, error)
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type EntitlementRepo interface {
	HasPurchase(ctx context.Context, userID, bookID int64) (bool, error)
	ActiveRental(ctx context.Context, userID, bookID int64) (*model.Rental, error)
}

// LineCheck is the outcome of a purchase eligibility pass: the priced
// accepted items plus the three rejection buckets.
type LineCheck struct {
	Accepted    []model.BillItem
	Total       float64
	Duplicated  []int64
	NotFound    []int64
	NotSellable []int64
}

func (c *LineCheck) Empty() bool { return len(c.Accepted) == 0 }

type RentalQuote struct {
	Book   *model.Book
	Days   int
	PerDay float64
	Total  float64
}

type Service interface {
	// CheckPurchase buckets every requested book; it never fails on a bad
	// book, only on infrastructure errors.
	CheckPurchase(ctx context.Context, userID int64, bookIDs []int64) (*LineCheck, error)

	// CheckRental runs the same gating for a single rental target and
	// quotes the deterministic duration price.
	CheckRental(ctx context.Context, userID, bookID int64, days int) (*RentalQuote, error)
}

type service struct {
	books BookRepo
	users UserRepo
	ents  EntitlementRepo
	now   func() time.Time
}

func New(books BookRepo, users UserRepo, ents EntitlementRepo) Service {
	return &service{books: books, users: users, ents: ents, now: time.Now}
}

func (s *service) CheckPurchase(ctx context.Context, userID int64, bookIDs []int64) (*LineCheck, error) {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	out := &LineCheck{}
	seen := make(map[int64]bool, len(bookIDs))
	for _, id := range bookIDs {
		if seen[id] {
			out.Duplicated = append(out.Duplicated, id)
			continue
		}
		seen[id] = true

		b, err := s.books.ByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			out.NotFound = append(out.NotFound, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !s.sellableTo(b, u) {
			out.NotSellable = append(out.NotSellable, id)
			continue
		}

		owned, err := s.owned(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if owned {
			out.Duplicated = append(out.Duplicated, id)
			continue
		}

		out.Accepted = append(out.Accepted, model.BillItem{BookID: id, Price: b.Price})
		out.Total += b.Price
	}
	return out, nil
}

func (s *service) CheckRental(ctx context.Context, userID, bookID int64, days int) (*RentalQuote, error) {
	if days <= 0 {
		return nil, makeErr(ErrBadDuration)
	}

	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	b, err := s.books.ByID(ctx, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBookNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !s.sellableTo(b, u) {
		return nil, makeErr(ErrNotSellable)
	}

	// Owning the book permanently makes a rental pointless; an active
	// rental is fine, confirmation extends it.
	owned, err := s.ents.HasPurchase(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, makeErr(ErrDuplicate)
	}

	perDay := b.Price * model.RentalPriceRate
	return &RentalQuote{
		Book:   b,
		Days:   days,
		PerDay: perDay,
		Total:  perDay * float64(days),
	}, nil
}

func (s *service) sellableTo(b *model.Book, u *model.User) bool {
	if !b.Sellable {
		return false
	}
	return b.MinAge <= 0 || u.Age(s.now()) >= b.MinAge
}

func (s *service) owned(ctx context.Context, userID, bookID int64) (bool, error) {
	owned, err := s.ents.HasPurchase(ctx, userID, bookID)
	if err != nil || owned {
		return owned, err
	}
	rt, err := s.ents.ActiveRental(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	return rt != nil, nil
}
