package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	BirthYear    int       `json:"birth_year"`
	CreatedAt    time.Time `json:"created_at"`
}

// Age is the coarse year-based age used for book restrictions.
func (u *User) Age(now time.Time) int {
	if u.BirthYear <= 0 {
		return 0
	}
	return now.Year() - u.BirthYear
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	BirthYear int    `json:"birth_year" validate:"required,gt=1900"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
