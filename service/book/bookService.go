package booksvc

import (
	"context"
	"errors"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	bookrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/book"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, sortKey string, limit, offset int) ([]model.Book, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	Detail(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, sortKey string, limit, offset int) ([]model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	if b.Title == "" || b.Price < 0 || b.MinAge < 0 {
		return errors.New("invalid payload")
	}
	return s.r.Create(ctx, b)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return s.r.ByID(ctx, id)
}

func (s *service) List(ctx context.Context, sortKey string, limit, offset int) ([]model.Book, error) {
	if !bookrepo.SortKeyAllowed(sortKey) {
		sortKey = ""
	}
	return s.r.List(ctx, sortKey, limit, offset)
}
