package config

import (
	"errors"
	"time"
)

// Development defaults for the secrets. They must match the envDefault tags
// below and are refused in production.
const (
	defaultReturnSecret  = "change-me"
	defaultSessionSecret = "dev-session-secret"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database `envPrefix:"DB_"`
	Redis       Redis    `envPrefix:"REDIS_"`
	Session     Session  `envPrefix:"SESSION_"`
	Cache       Cache    `envPrefix:"CACHE_"`

	Gateway Gateway `envPrefix:"GATEWAY_"`
}

// Gateway holds the settings shared by every gateway-backed payment method.
// Per-method credentials (shop id, secret key) live on the payment method row.
type Gateway struct {
	BaseApiURL     string        `env:"BASE_API_URL" envDefault:"https://api.yookassa.ru/v3"`
	Currency       string        `env:"CURRENCY" envDefault:"RUB"`
	SiteDomain     string        `env:"SITE_DOMAIN" envDefault:"http://localhost:8080"`
	ShopName       string        `env:"SHOP_NAME" envDefault:"SportZone"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ReturnSecret   string        `env:"RETURN_SECRET" envDefault:"change-me"`
	ReturnTokenTTL time.Duration `env:"RETURN_TOKEN_TTL" envDefault:"24h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type Database struct {
	Driver       string        `env:"DRIVER" envDefault:"sqlite"`
	URL          string        `env:"URL" envDefault:"sportzone.db"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Redis struct {
	Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	CartTTL  time.Duration `env:"CART_TTL" envDefault:"336h"`
}

type Session struct {
	CookieName string `env:"COOKIE_NAME" envDefault:"sportzone_session"`
	Secret     string `env:"SECRET" envDefault:"dev-session-secret"`
	MaxAge     int    `env:"MAX_AGE" envDefault:"1209600"`
	Secure     bool   `env:"SECURE" envDefault:"false"`
}

type Cache struct {
	CategoryTTL time.Duration `env:"CATEGORY_TTL" envDefault:"1h"`
}

func (h HTTPServer) Address() string {
	return h.Host + ":" + h.Port
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

// Validate refuses to start production with a missing or development
// secret, since either would let anyone forge sessions or return links.
func (c *Config) Validate() error {
	if !c.Environment.IsProduction() {
		return nil
	}

	var errs []error
	if c.Gateway.ReturnSecret == "" || c.Gateway.ReturnSecret == defaultReturnSecret {
		errs = append(errs, errors.New("GATEWAY_RETURN_SECRET must be set in production"))
	}
	if c.Session.Secret == "" || c.Session.Secret == defaultSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}
