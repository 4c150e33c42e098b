package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func Load() App {
	// Local dev convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		Env:         getenv("APP_ENV", "dev"),

		MomoPartnerCode: must("MOMO_PARTNER_CODE"),
		MomoAccessKey:   must("MOMO_ACCESS_KEY"),
		MomoSecretKey:   must("MOMO_SECRET_KEY"),
		MomoEndpoint:    getenv("MOMO_ENDPOINT", "https://test-payment.momo.vn"),
		MomoRedirectURL: os.Getenv("MOMO_REDIRECT_URL"),
		MomoIPNURL:      must("MOMO_IPN_URL"),

		AMQPURL:   os.Getenv("AMQP_URL"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		MailQueue: getenv("MAIL_QUEUE", "mail.send"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
