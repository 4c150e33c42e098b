package rental

type CreateRentalReq struct {
	BookID   int64  `json:"book_id" validate:"required,gt=0"`
	Days     int    `json:"days" validate:"required,gt=0"`
	Discount string `json:"discount"`
}
