package authsvc_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	authsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/auth"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/util/hash"
	jwtutil "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/util/jwt"
)

const secret = "test-secret"

type userRepoMock struct {
	createFn  func(ctx context.Context, u *model.User) error
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *userRepoMock) Create(ctx context.Context, u *model.User) error {
	return m.createFn(ctx, u)
}
func (m *userRepoMock) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.byEmailFn(ctx, email)
}
func (m *userRepoMock) ByID(ctx context.Context, id int64) (*model.User, error) {
	panic("not used")
}

func TestRegister(t *testing.T) {
	var stored *model.User
	m := &userRepoMock{createFn: func(ctx context.Context, u *model.User) error {
		u.ID = 42
		stored = u
		return nil
	}}
	s := authsvc.New(m, secret)

	u, token, err := s.Register(context.Background(), model.RegisterReq{
		Name:      "Thang",
		Email:     "  Thang@Example.COM ",
		Password:  "hunter22",
		BirthYear: 1999,
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "thang@example.com", stored.Email, "email is normalized before insert")
	require.NotEqual(t, "hunter22", stored.PasswordHash, "password must be hashed")
	require.True(t, hash.Check(stored.PasswordHash, "hunter22"))

	claims, err := jwtutil.ParseAuth("Bearer "+token, secret)
	require.NoError(t, err)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "user", claims["role"])
}

func TestRegister_EmailTaken(t *testing.T) {
	m := &userRepoMock{createFn: func(ctx context.Context, u *model.User) error {
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
	}}
	s := authsvc.New(m, secret)

	_, _, err := s.Register(context.Background(), model.RegisterReq{
		Email: "dup@example.com", Password: "hunter22", BirthYear: 1999,
	})
	require.Equal(t, authsvc.ErrEmailTaken, authsvc.Code(err))
}

func TestRegister_BadInput(t *testing.T) {
	s := authsvc.New(&userRepoMock{}, secret)

	_, _, err := s.Register(context.Background(), model.RegisterReq{Email: "", Password: "hunter22"})
	require.Equal(t, authsvc.ErrBadInput, authsvc.Code(err))

	_, _, err = s.Register(context.Background(), model.RegisterReq{Email: "a@b.c", Password: "short"})
	require.Equal(t, authsvc.ErrBadInput, authsvc.Code(err))
}

func TestLogin(t *testing.T) {
	hashed, err := hash.HashPassword("hunter22")
	require.NoError(t, err)
	m := &userRepoMock{byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
		return &model.User{ID: 7, Email: email, PasswordHash: hashed}, nil
	}}
	s := authsvc.New(m, secret)

	u, token, err := s.Login(context.Background(), model.LoginReq{Email: "thang@example.com", Password: "hunter22"})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.NotEmpty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed, err := hash.HashPassword("hunter22")
	require.NoError(t, err)
	m := &userRepoMock{byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
		return &model.User{ID: 7, Email: email, PasswordHash: hashed}, nil
	}}
	s := authsvc.New(m, secret)

	_, _, err = s.Login(context.Background(), model.LoginReq{Email: "thang@example.com", Password: "wrong"})
	require.Equal(t, authsvc.ErrInvalidCreds, authsvc.Code(err))
}

func TestLogin_UnknownEmail(t *testing.T) {
	m := &userRepoMock{byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
		return nil, sql.ErrNoRows
	}}
	s := authsvc.New(m, secret)

	_, _, err := s.Login(context.Background(), model.LoginReq{Email: "ghost@example.com", Password: "hunter22"})
	require.Equal(t, authsvc.ErrInvalidCreds, authsvc.Code(err), "unknown email and wrong password are indistinguishable")
}
