// Package main digital bookstore API.
//
// @title           Bookstore API
// @version         1.0
// @description     digital book sales and rentals with MoMo payment reconciliation.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer"
	authctrl "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/auth"
	bookctrl "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/book"
	orderctrl "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/order"
	paymentctrl "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/payment"
	rentalctrl "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/controller/rental"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/app/echoServer/validation"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/config"
	bookrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/book"
	discountrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/discount"
	entitlementrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/entitlement"
	momorepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/momo"
	orderrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/order"
	subscriptionrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/subscription"
	userrepo "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/repository/user"
	authsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/auth"
	booksvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/book"
	discountsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/discount"
	notifysvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/notify"
	ordersvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/order"
	paymentsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/payment"
	pricingsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/pricing"
	rentalsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/rental"
	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB on the pgx driver
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Optional IPN lock store; nil degrades to claim-query guards only.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, ipn locks disabled", "err", err)
			rdb = nil
		}
	}

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	dr := discountrepo.New(db)
	or := orderrepo.New(db)
	sr := subscriptionrepo.New(db)
	er := entitlementrepo.New(db)
	gw := momorepo.NewHTTP(momorepo.Config{
		PartnerCode: cfg.MomoPartnerCode,
		AccessKey:   cfg.MomoAccessKey,
		SecretKey:   cfg.MomoSecretKey,
		Endpoint:    cfg.MomoEndpoint,
		RedirectURL: cfg.MomoRedirectURL,
		IPNURL:      cfg.MomoIPNURL,
	})

	// notifications
	var notifier notifysvc.Notifier
	if cfg.AMQPURL != "" {
		notifier = notifysvc.NewAMQP(cfg.AMQPURL, cfg.MailQueue)
	} else {
		notifier = notifysvc.NewLog(log)
	}

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	ps := pricingsvc.New(br, ur, er)
	ds := discountsvc.New(dr, log)
	osvc := ordersvc.New(or, er, ps, ds, gw, log)
	rs := rentalsvc.New(sr, er, ps, ds, gw, log)
	whs := paymentsvc.New(db, or, sr, er, dr, br, ur, gw, notifier, rdb, log)

	// expiry sweeper
	cleaner := rentalsvc.NewCleaner(er, log)
	go cleaner.Run(ctx)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	orderC := &orderctrl.Controller{Svc: osvc, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: whs, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Book:      bookC,
		Order:     orderC,
		Rental:    rentalC,
		Payment:   paymentC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
