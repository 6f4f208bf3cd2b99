package config

import "github.com/caarlos0/env/v11"

// Config holds the process configuration, parsed from the environment.
// A .env file, if present, is loaded by main before Load runs.
type Config struct {
	Addr   string `env:"ADDR" envDefault:":8080"`
	DBPath string `env:"DB_PATH" envDefault:"kids.db"`
	Env    string `env:"ENV" envDefault:"development"`

	// Static staff credential pair for the admin gate.
	AdminUser     string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"` // change in production

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Public base URL encoded into pre-check-in QR images.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
