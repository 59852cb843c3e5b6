package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servidor y del cliente de chat.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`

	// Lado cliente (cmd/cli_chat).
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws/chat"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
