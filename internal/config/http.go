package config

import "time"

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"8000"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`

	CorsAllowedOrigins []string `env:"HTTP_CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Per-IP rate limit. Zero RateLimitMax disables limiting.
	// RateLimitTrustProxy keys the limit on X-Forwarded-For; leave it off
	// unless a trusted proxy terminates client connections.
	RateLimitMax        int           `env:"HTTP_RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow     time.Duration `env:"HTTP_RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitTrustProxy bool          `env:"HTTP_RATE_LIMIT_TRUST_PROXY" envDefault:"false"`
}
