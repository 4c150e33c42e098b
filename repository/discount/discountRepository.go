package discountrepo

import (
	"context"
	"database/sql"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type Repo interface {
	ByName(ctx context.Context, name string) (*model.Discount, error)
	ByID(ctx context.Context, id int64) (*model.Discount, error)

	// Redemption tracking. At most one (user, discount) row ever exists;
	// Redeem is a no-op when the row is already there, Release when it is
	// not, so both are safe to repeat.
	HasRedeemed(ctx context.Context, userID, discountID int64) (bool, error)
	Redeem(ctx context.Context, userID, discountID int64) error
	RedeemTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error
	Release(ctx context.Context, userID, discountID int64) error
	ReleaseTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) ByName(ctx context.Context, name string) (*model.Discount, error) {
	const q = `
		SELECT id, name, ratio, active
		FROM discounts
		WHERE name = $1`
	d := &model.Discount{}
	err := r.db.QueryRowContext(ctx, q, name).Scan(&d.ID, &d.Name, &d.Ratio, &d.Active)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Discount, error) {
	const q = `
		SELECT id, name, ratio, active
		FROM discounts
		WHERE id = $1`
	d := &model.Discount{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.Ratio, &d.Active)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repo) HasRedeemed(ctx context.Context, userID, discountID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM used_discounts
			WHERE user_id = $1 AND discount_id = $2
		)`
	var used bool
	err := r.db.QueryRowContext(ctx, q, userID, discountID).Scan(&used)
	return used, err
}

const redeemQ = `
	INSERT INTO used_discounts (user_id, discount_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id, discount_id) DO NOTHING`

func (r *repo) Redeem(ctx context.Context, userID, discountID int64) error {
	_, err := r.db.ExecContext(ctx, redeemQ, userID, discountID)
	return err
}

func (r *repo) RedeemTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error {
	_, err := tx.ExecContext(ctx, redeemQ, userID, discountID)
	return err
}

const releaseQ = `
	DELETE FROM used_discounts
	WHERE user_id = $1 AND discount_id = $2`

func (r *repo) Release(ctx context.Context, userID, discountID int64) error {
	_, err := r.db.ExecContext(ctx, releaseQ, userID, discountID)
	return err
}

func (r *repo) ReleaseTx(ctx context.Context, tx *sql.Tx, userID, discountID int64) error {
	_, err := tx.ExecContext(ctx, releaseQ, userID, discountID)
	return err
}
