// model/transaction.go
package model

import "time"

// Bill is a pending purchase transaction spanning one or more line items.
// FinalizedAt is set exactly when the gateway confirms the payment; a bill
// that was denied is deleted outright, so absence after a webhook run means
// the transaction was reverted.
type Bill struct {
	ID          string     `json:"id"` // opaque uuid token, doubles as gateway order id
	UserID      int64      `json:"user_id"`
	DiscountID  *int64     `json:"discount_id,omitempty"`
	TotalPrice  float64    `json:"total_price"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	TransID     *string    `json:"trans_id,omitempty"` // gateway transaction id
}

func (b *Bill) Confirmed() bool { return b.FinalizedAt != nil }

// BillItem is one purchasable unit inside a bill, priced at reservation time.
type BillItem struct {
	BillID string  `json:"bill_id"`
	BookID int64   `json:"book_id"`
	Price  float64 `json:"price"`
}

// Subscription is a pending rental transaction for a single book.
type Subscription struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"user_id"`
	BookID      int64      `json:"book_id"`
	DiscountID  *int64     `json:"discount_id,omitempty"`
	Days        int        `json:"days"`
	TotalPrice  float64    `json:"total_price"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	TransID     *string    `json:"trans_id,omitempty"`
}

func (s *Subscription) Confirmed() bool { return s.FinalizedAt != nil }
