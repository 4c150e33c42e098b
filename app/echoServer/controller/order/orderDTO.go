package order

type CreateOrderReq struct {
	BookIDs  []int64 `json:"book_ids" validate:"required,min=1,dive,gt=0"`
	Discount string  `json:"discount"`
}
