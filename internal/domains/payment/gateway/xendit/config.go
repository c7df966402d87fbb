package xendit

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const DefaultBaseURL = "https://api.xendit.co"

type Config struct {
	SecretKey string        // xnd_development_... / xnd_production_...
	BaseURL   string        // API host, overridable for tests
	Timeout   time.Duration // per request
}

func NewConfig(secretKey, baseURL string, timeout time.Duration) *Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{SecretKey: secretKey, BaseURL: baseURL, Timeout: timeout}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SecretKey, validation.Required.Error("Xendit secret key is required")),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required),
	)
}
