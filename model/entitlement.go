package model

import "time"

// Purchase is a permanent entitlement, one row per (user, book).
type Purchase struct {
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Rental is a time-bounded entitlement, at most one row per (user, book).
// ExpireDate only ever moves forward; confirmation of a second rental for
// the same book extends it.
type Rental struct {
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	ExpireDate time.Time `json:"expire_date"`
}
