// Package config loads the authflow service configuration from an optional
// file and AUTHFLOW_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. AUTHFLOW_HTTP_PORT.
const EnvPrefix = "AUTHFLOW"

type (
	Config struct {
		HTTP    HTTP            `mapstructure:"http"`
		Auth    Auth            `mapstructure:"auth"`
		Log     Log             `mapstructure:"log"`
		Catalog Catalog         `mapstructure:"catalog"`
		Forms   authflow.Config `mapstructure:"forms"`
		Debug   bool            `mapstructure:"debug"`
	}

	HTTP struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		SessionTTL      time.Duration `mapstructure:"session_ttl"`
	}

	Auth struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
		APIKey  string        `mapstructure:"api_key"`
	}

	Log struct {
		Format string `mapstructure:"format"`
		Level  string `mapstructure:"level"`
	}

	Catalog struct {
		// Path to a YAML catalog merged over the bundled one. Optional.
		Path string `mapstructure:"path"`
	}
)

// Addr returns host:port.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func setDefaults(v *viper.Viper) {
	forms := authflow.DefaultConfig()

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8190)
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("http.session_ttl", 30*time.Minute)

	v.SetDefault("auth.base_url", "")
	v.SetDefault("auth.timeout", 10*time.Second)
	v.SetDefault("auth.api_key", "")

	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.path", "")
	v.SetDefault("debug", false)

	v.SetDefault("forms.routes.account", string(forms.Routes.Account))
	v.SetDefault("forms.routes.sign_up_step2", string(forms.Routes.SignUpStep2))
	v.SetDefault("forms.routes.forgot_password", string(forms.Routes.ForgotPassword))
	v.SetDefault("forms.messages.failure_title", forms.Messages.FailureTitle)
	v.SetDefault("forms.messages.sign_up_failure_title", forms.Messages.SignUpFailureTitle)
	v.SetDefault("forms.messages.reset_success_title", forms.Messages.ResetSuccessTitle)
	v.SetDefault("forms.messages.reset_success_message", forms.Messages.ResetSuccessMessage)
	v.SetDefault("forms.messages.provider_failure", forms.Messages.ProviderFailure)
	v.SetDefault("forms.minimum_age", forms.MinimumAge)
	v.SetDefault("forms.provider_purpose", forms.ProviderPurpose)
}

// Load reads the configuration. An empty path skips the file and relies on
// defaults and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.BaseURL == "" {
		errs = append(errs, errors.New("auth.base_url is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d is out of range", c.HTTP.Port))
	}
	if c.HTTP.SessionTTL <= 0 {
		errs = append(errs, errors.New("http.session_ttl must be positive"))
	}
	if c.Forms.MinimumAge < 0 {
		errs = append(errs, errors.New("forms.minimum_age must not be negative"))
	}
	switch c.Log.Format {
	case "json", "text", "":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
