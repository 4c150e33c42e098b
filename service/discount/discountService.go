// Package discountsvc enforces at-most-once discount redemption per user.
// A missing or already-consumed discount downgrades the order to full price
// with a warning instead of failing it.
package discountsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type Repo interface {
	ByName(ctx context.Context, name string) (*model.Discount, error)
	HasRedeemed(ctx context.Context, userID, discountID int64) (bool, error)
	Redeem(ctx context.Context, userID, discountID int64) error
	Release(ctx context.Context, userID, discountID int64) error
}

// Applied is the outcome of trying a discount against a pre-discount total.
// Discount is nil when none could be applied; Warning says why.
type Applied struct {
	Discount *model.Discount
	Total    float64
	Warning  string
}

type Service interface {
	// Apply looks the discount up by name and recomputes the total. It
	// reserves nothing durable; Commit does that once the gateway accepted
	// the initiation request.
	Apply(ctx context.Context, userID int64, name string, total float64) (*Applied, error)

	// Commit records the (user, discount) redemption. Safe to repeat.
	Commit(ctx context.Context, userID, discountID int64) error

	// Release removes the redemption. Safe to call when it was partially
	// applied or never applied at all.
	Release(ctx context.Context, userID, discountID int64) error
}

type service struct {
	r   Repo
	log *slog.Logger
}

func New(r Repo, log *slog.Logger) Service { return &service{r: r, log: log} }

func (s *service) Apply(ctx context.Context, userID int64, name string, total float64) (*Applied, error) {
	if name == "" {
		return &Applied{Total: total}, nil
	}

	d, err := s.r.ByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Warn("discount not found, proceeding without", "name", name, "user_id", userID)
		return &Applied{Total: total, Warning: fmt.Sprintf("discount %q not found", name)}, nil
	}
	if err != nil {
		return nil, err
	}
	if !d.Active {
		s.log.Warn("discount inactive, proceeding without", "name", name, "user_id", userID)
		return &Applied{Total: total, Warning: fmt.Sprintf("discount %q is not active", name)}, nil
	}

	used, err := s.r.HasRedeemed(ctx, userID, d.ID)
	if err != nil {
		return nil, err
	}
	if used {
		s.log.Warn("discount already consumed, proceeding without", "name", name, "user_id", userID)
		return &Applied{Total: total, Warning: fmt.Sprintf("discount %q already used", name)}, nil
	}

	return &Applied{Discount: d, Total: total * (1 - d.Ratio)}, nil
}

func (s *service) Commit(ctx context.Context, userID, discountID int64) error {
	return s.r.Redeem(ctx, userID, discountID)
}

func (s *service) Release(ctx context.Context, userID, discountID int64) error {
	return s.r.Release(ctx, userID, discountID)
}
