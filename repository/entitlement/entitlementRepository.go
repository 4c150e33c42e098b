package entitlementrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type Repo interface {
	HasPurchase(ctx context.Context, userID, bookID int64) (bool, error)

	// InsertPurchases grants permanent entitlements for every line item.
	// ON CONFLICT keeps a duplicate confirmation from double-granting.
	InsertPurchases(ctx context.Context, tx *sql.Tx, userID int64, items []model.BillItem) error

	ActiveRental(ctx context.Context, userID, bookID int64) (*model.Rental, error)

	// ExtendRental creates the rental expiring days from today, or pushes an
	// existing one's expiry forward by days. Expiry never moves backward.
	ExtendRental(ctx context.Context, tx *sql.Tx, userID, bookID int64, days int) (time.Time, error)

	// Expiry sweep: rentals whose expire_date equals day.
	ExpiringOn(ctx context.Context, day time.Time) ([]model.Rental, error)
	DeleteExpiringOn(ctx context.Context, day time.Time) (int64, error)

	ListRentals(ctx context.Context, userID int64) ([]model.Rental, error)
	ListPurchases(ctx context.Context, userID int64) ([]model.Purchase, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) HasPurchase(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND book_id = $2
		)`
	var owned bool
	err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&owned)
	return owned, err
}

func (r *repo) InsertPurchases(ctx context.Context, tx *sql.Tx, userID int64, items []model.BillItem) error {
	const q = `
		INSERT INTO purchases (user_id, book_id, price)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, book_id) DO NOTHING`
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, q, userID, it.BookID, it.Price); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ActiveRental(ctx context.Context, userID, bookID int64) (*model.Rental, error) {
	const q = `
		SELECT user_id, book_id, expire_date
		FROM rentals
		WHERE user_id = $1 AND book_id = $2`
	rt := &model.Rental{}
	err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&rt.UserID, &rt.BookID, &rt.ExpireDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *repo) ExtendRental(ctx context.Context, tx *sql.Tx, userID, bookID int64, days int) (time.Time, error) {
	const q = `
		INSERT INTO rentals (user_id, book_id, expire_date)
		VALUES ($1, $2, CURRENT_DATE + $3::int)
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET expire_date = rentals.expire_date + $3::int
		RETURNING expire_date`
	var expiry time.Time
	err := tx.QueryRowContext(ctx, q, userID, bookID, days).Scan(&expiry)
	return expiry, err
}

func (r *repo) ExpiringOn(ctx context.Context, day time.Time) ([]model.Rental, error) {
	const q = `
		SELECT user_id, book_id, expire_date
		FROM rentals
		WHERE expire_date = $1::date`
	rows, err := r.db.QueryContext(ctx, q, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		var rt model.Rental
		if err := rows.Scan(&rt.UserID, &rt.BookID, &rt.ExpireDate); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *repo) DeleteExpiringOn(ctx context.Context, day time.Time) (int64, error) {
	const q = `
		DELETE FROM rentals
		WHERE expire_date = $1::date`
	res, err := r.db.ExecContext(ctx, q, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) ListRentals(ctx context.Context, userID int64) ([]model.Rental, error) {
	const q = `
		SELECT user_id, book_id, expire_date
		FROM rentals
		WHERE user_id = $1
		ORDER BY expire_date`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		var rt model.Rental
		if err := rows.Scan(&rt.UserID, &rt.BookID, &rt.ExpireDate); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *repo) ListPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	const q = `
		SELECT user_id, book_id, price, created_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.UserID, &p.BookID, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
