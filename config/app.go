package config

type App struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	Env         string

	// MoMo gateway credentials and endpoints.
	MomoPartnerCode string
	MomoAccessKey   string
	MomoSecretKey   string
	MomoEndpoint    string
	MomoRedirectURL string
	MomoIPNURL      string

	AMQPURL   string
	RedisAddr string
	MailQueue string
}
