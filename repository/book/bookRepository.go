package bookrepo

import (
	"context"
	"database/sql"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

// Allowed sort keys for listing. Free-form field names from the client are
// never interpolated into SQL.
var sortKeys = map[string]string{
	"":      "id",
	"id":    "id",
	"title": "title",
	"price": "price",
}

func SortKeyAllowed(k string) bool {
	_, ok := sortKeys[k]
	return ok
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, sortKey string, limit, offset int) ([]model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author, price, sellable, min_age)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, b.Title, b.Author, b.Price, b.Sellable, b.MinAge).
		Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author, price, sellable, min_age, created_at
		FROM books
		WHERE id = $1`
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.Sellable, &b.MinAge, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, sortKey string, limit, offset int) ([]model.Book, error) {
	col, ok := sortKeys[sortKey]
	if !ok {
		col = "id"
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := `
		SELECT id, title, author, price, sellable, min_age, created_at
		FROM books
		ORDER BY ` + col + ` DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.Sellable, &b.MinAge, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
