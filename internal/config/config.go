package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	Stripe Stripe `envPrefix:"STRIPE_"`
	SES    SES    `envPrefix:"SES_"`

	// JSON object of size label -> unit price in minor units.
	// Overrides the built-in catalog when set.
	CatalogPrices string `env:"CATALOG_PRICES"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	SuccessURL    string `env:"SUCCESS_URL" envDefault:"https://nosweatsealer.com/success"`
	CancelURL     string `env:"CANCEL_URL" envDefault:"https://nosweatsealer.com/cancel"`
}

type SES struct {
	Region   string `env:"REGION" envDefault:"us-east-1"`
	Sender   string `env:"SENDER"`
	Receiver string `env:"RECEIVER"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
