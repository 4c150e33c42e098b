package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/auth"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/book"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/order"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/payment"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/rental"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Order     *order.Controller
	Rental    *rental.Controller
	Payment   *payment.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Gateway callback, authenticated by signature instead of JWT.
	pub.POST("/payment/momo/ipn", c.Payment.HandleIPN)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var claims jwt.MapClaims
			switch tok := ctx.Get("user").(type) {
			case *jwt.Token:
				claims, _ = tok.Claims.(jwt.MapClaims)
			case jwt.MapClaims:
				claims = tok
			}
			if claims == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			return next(ctx)
		}
	})

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	authed.POST("/books", c.Book.Create)

	// Purchases
	authed.POST("/orders", c.Order.Create)
	authed.GET("/orders/my", c.Order.MyBills)
	authed.GET("/purchases/my", c.Order.MyPurchases)

	// Rentals
	authed.POST("/rentals", c.Rental.Create)
	authed.GET("/rentals/my", c.Rental.MyRentals)
	authed.GET("/subscriptions/my", c.Rental.MySubscriptions)
}
