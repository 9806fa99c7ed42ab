package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Identity struct {
		// Shared secret the identity provider signs bearer tokens with.
		JWTSecret string `env:"IDENTITY_JWT_SECRET,required"`
	}

	Media struct {
		// Base URL of the signed-URL broker in front of the object store.
		APIBaseURL string `env:"MEDIA_API_BASE_URL" envDefault:"http://localhost:8787"`
		PublicURL  string `env:"MEDIA_PUBLIC_URL" envDefault:"http://localhost:8787/files"`
	}

	Payment struct {
		GatewayURL    string `env:"PAYMENT_GATEWAY_URL" envDefault:"https://payment.jet.co.ke/process_incoming_payment.php"`
		WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET,required"`
	}
}

func Load() *Config {
	// No .env file is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
