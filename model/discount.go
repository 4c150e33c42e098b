package model

type Discount struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Ratio  float64 `json:"ratio"` // in [0,1)
	Active bool    `json:"active"`
}
