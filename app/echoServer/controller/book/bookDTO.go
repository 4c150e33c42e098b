package book

type CreateBookReq struct {
	Title    string  `json:"title" validate:"required"`
	Author   string  `json:"author"`
	Price    float64 `json:"price" validate:"gte=0"`
	Sellable bool    `json:"sellable"`
	MinAge   int     `json:"min_age" validate:"gte=0"`
}

type ListBooksReq struct {
	Sort   string `query:"sort"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}
