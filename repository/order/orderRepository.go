// repository/order/orderRepository.go
package orderrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type Repo interface {
	// CreateBill inserts the bill and all its line items in one transaction.
	CreateBill(ctx context.Context, b *model.Bill, items []model.BillItem) error

	// BillByID loads the bill and its line items. sql.ErrNoRows when absent.
	BillByID(ctx context.Context, id string) (*model.Bill, []model.BillItem, error)

	// Confirm stamps finalized_at and the gateway transaction id, but only
	// on a still-pending bill. Returns false when another delivery already
	// finalized it.
	Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error)

	// Delete removes a still-pending bill and its line items, returning the
	// bill's discount id. Returns deleted=false when the bill is gone or
	// already confirmed, which makes duplicate reverts no-ops.
	Delete(ctx context.Context, tx *sql.Tx, id string) (deleted bool, discountID *int64, err error)

	// DeleteUnconfirmed is the non-tx compensation path used when the
	// gateway rejects initiation.
	DeleteUnconfirmed(ctx context.Context, id string) error

	ListByUser(ctx context.Context, userID int64) ([]model.Bill, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) CreateBill(ctx context.Context, b *model.Bill, items []model.BillItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const ins = `
		INSERT INTO bills (id, user_id, discount_id, total_price)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`
	if err = tx.QueryRowContext(ctx, ins, b.ID, b.UserID, b.DiscountID, b.TotalPrice).Scan(&b.CreatedAt); err != nil {
		return err
	}

	const insItem = `
		INSERT INTO bill_items (bill_id, book_id, price)
		VALUES ($1,$2,$3)`
	for i := range items {
		items[i].BillID = b.ID
		if _, err = tx.ExecContext(ctx, insItem, b.ID, items[i].BookID, items[i].Price); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *repo) BillByID(ctx context.Context, id string) (*model.Bill, []model.BillItem, error) {
	const q = `
		SELECT id, user_id, discount_id, total_price, created_at, finalized_at, trans_id
		FROM bills
		WHERE id = $1`
	b := &model.Bill{}
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.UserID, &b.DiscountID, &b.TotalPrice, &b.CreatedAt, &b.FinalizedAt, &b.TransID)
	if err != nil {
		return nil, nil, err
	}

	const qi = `
		SELECT bill_id, book_id, price
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY book_id`
	rows, err := r.db.QueryContext(ctx, qi, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []model.BillItem
	for rows.Next() {
		var it model.BillItem
		if err := rows.Scan(&it.BillID, &it.BookID, &it.Price); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return b, items, rows.Err()
}

func (r *repo) Confirm(ctx context.Context, tx *sql.Tx, id, transID string) (bool, error) {
	const q = `
		UPDATE bills
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, id); err != nil {
		return false, nil, err
	}
	// Compare-and-delete: confirmed bills are never reverted.
	const q = `
		DELETE FROM bills
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

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Bill, error) {
	const q = `
		SELECT id, user_id, discount_id, total_price, created_at, finalized_at, trans_id
		FROM bills
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bill
	for rows.Next() {
		var b model.Bill
		if err := rows.Scan(&b.ID, &b.UserID, &b.DiscountID, &b.TotalPrice, &b.CreatedAt, &b.FinalizedAt, &b.TransID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
