package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config regroupe la configuration du serveur, lue depuis l'environnement (.env optionnel).
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Mode           string        `env:"APP_MODE" envDefault:"development"`
	RedisAddr      string        `env:"REDIS_HOST"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`
	WhatsAppPhone  string        `env:"WHATSAPP_PHONE" envDefault:"923352723423"`
	CartTTL        time.Duration `env:"CART_TTL" envDefault:"720h"`
	SessionIdle    time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	CartRateLimit  int           `env:"CART_RATE_LIMIT" envDefault:"20"`
}

// UseRedis indique si le slot durable est Redis (sinon : mémoire)
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

// Load charge .env s'il existe puis parse l'environnement
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET manquant")
	}
	return &cfg, nil
}
