// model/book.go
package model

import "time"

type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     float64   `json:"price"`
	Sellable  bool      `json:"sellable"`
	MinAge    int       `json:"min_age"`
	CreatedAt time.Time `json:"created_at"`
}

// RentalPriceRate is the per-day rental price as a fraction of the book price.
const RentalPriceRate = 0.05
