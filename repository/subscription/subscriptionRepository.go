package subscriptionrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type Repo interface {
	Create(ctx context.Context, s *model.Subscription) error
	ByID(ctx context.Context, id string) (*model.Subscription, error)

	// Confirm claims a still-pending subscription; false means a previous
	// delivery already finalized it.
	Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error)

	// Delete removes a still-pending subscription (compare-and-delete).
	Delete(ctx context.Context, tx *sql.Tx, id string) (deleted bool, discountID *int64, err error)
	DeleteUnconfirmed(ctx context.Context, id string) error

	ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, s *model.Subscription) error {
	const q = `
		INSERT INTO subscriptions (id, user_id, book_id, discount_id, days, total_price)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, q, s.ID, s.UserID, s.BookID, s.DiscountID, s.Days, s.TotalPrice).
		Scan(&s.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Subscription, error) {
	const q = `
		SELECT id, user_id, book_id, discount_id, days, total_price, created_at, finalized_at, trans_id
		FROM subscriptions
		WHERE id = $1`
	s := &model.Subscription{}
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.UserID, &s.BookID, &s.DiscountID, &s.Days, &s.TotalPrice, &s.CreatedAt, &s.FinalizedAt, &s.TransID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error) {
	const q = `
		UPDATE subscriptions
		SET finalized_at = NOW(), trans_id = $2
		WHERE id = $1
		AND finalized_at IS NULL`
	res, err := tx.ExecContext(ctx, q, id, transID)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff == 1, err
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, id string) (bool, *int64, error) {
	const q = `
		DELETE FROM subscriptions
		WHERE id = $1
		AND finalized_at IS NULL
		RETURNING discount_id`
	var discountID *int64
	err := tx.QueryRowContext(ctx, q, id).Scan(&discountID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, discountID, nil
}

func (r *repo) DeleteUnconfirmed(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, _, err = r.Delete(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	const q = `
		SELECT id, user_id, book_id, discount_id, days, total_price, created_at, finalized_at, trans_id
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.BookID, &s.DiscountID, &s.Days, &s.TotalPrice, &s.CreatedAt, &s.FinalizedAt, &s.TransID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
