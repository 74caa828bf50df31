// Package config loads taskboard settings from defaults, an optional config
// file, a .env file and TASKBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. TASKBOARD_API_URL.
const EnvPrefix = "TASKBOARD"

// Config is the resolved client configuration. Load fills it from defaults,
// an optional config file and TASKBOARD_* environment variables.
type Config struct {
	APIURL         string        `mapstructure:"api_url" validate:"required,url"`
	AuthURL        string        `mapstructure:"auth_url" validate:"required,url"`
	AuthKey        string        `mapstructure:"auth_key" validate:"required"`
	SiteURL        string        `mapstructure:"site_url" validate:"required,url"`
	DataDir        string        `mapstructure:"data_dir" validate:"required"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	PersistDrag    bool          `mapstructure:"persist_drag"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
}

// Options controls where Load looks.
type Options struct {
	ConfigFile string // explicit config file; empty searches . and the data dir
	EnvFile    string // defaults to .env; a missing file is ignored
}

var defaults = map[string]any{
	"api_url":         "",
	"auth_url":        "",
	"auth_key":        "",
	"site_url":        "http://localhost:5173",
	"data_dir":        "~/.taskboard",
	"log_level":       "info",
	"persist_drag":    false,
	"request_timeout": "0s",
}

// Load reads the configuration. It does not validate; call Validate.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k := range defaults {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := expandHome(v.GetString("data_dir")); err == nil {
			v.AddConfigPath(dir)
		}
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	dir, err := expandHome(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("config: data_dir: %w", err)
	}
	c.DataDir = dir
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.AuthURL = strings.TrimRight(c.AuthURL, "/")
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	return &c, nil
}

var validate = validator.New()

// Validate reports every missing or malformed key in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := keyFor(fe.StructField())
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required (set %s_%s)", key, EnvPrefix, strings.ToUpper(key)))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid (%s)", key, fe.Tag()))
		}
	}
	return fmt.Errorf("config: %s", strings.Join(problems, "; "))
}

// keyFor maps a struct field back to its config key.
func keyFor(field string) string {
	switch field {
	case "APIURL":
		return "api_url"
	case "AuthURL":
		return "auth_url"
	case "AuthKey":
		return "auth_key"
	case "SiteURL":
		return "site_url"
	case "DataDir":
		return "data_dir"
	case "LogLevel":
		return "log_level"
	case "RequestTimeout":
		return "request_timeout"
	}
	return strings.ToLower(field)
}

// RedirectURL joins a route onto the site URL for emailed links.
func (c *Config) RedirectURL(route string) string {
	return c.SiteURL + "/" + strings.TrimLeft(route, "/")
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
