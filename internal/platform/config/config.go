package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config of the web UI, read from the environment.
type Config struct {
	Port           string        `envconfig:"APP_PORT" default:"8080"`
	UsersAPIURL    string        `envconfig:"USERS_API_URL" default:"http://localhost:8081/users"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`
	Secret         string        `envconfig:"APP_SECRET"`
	FormTTL        time.Duration `envconfig:"FORM_TTL" default:"30m"`
	SchemaPath     string        `envconfig:"SCHEMA_PATH"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// MockAPI configures the in-memory users backend.
type MockAPI struct {
	Port     string `envconfig:"MOCKAPI_PORT" default:"8081"`
	Seed     bool   `envconfig:"MOCKAPI_SEED" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c Config) Addr() string  { return ":" + c.Port }
func (c MockAPI) Addr() string { return ":" + c.Port }

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if _, err := url.ParseRequestURI(c.UsersAPIURL); err != nil {
		return Config{}, fmt.Errorf("bad USERS_API_URL: %w", err)
	}
	if c.FormTTL <= 0 {
		return Config{}, fmt.Errorf("bad FORM_TTL: must be positive")
	}
	if c.RequestTimeout < 0 {
		return Config{}, fmt.Errorf("bad REQUEST_TIMEOUT: must not be negative")
	}
	return c, nil
}

func LoadMockAPI() (MockAPI, error) {
	var c MockAPI
	err := envconfig.Process("", &c)
	return c, err
}
