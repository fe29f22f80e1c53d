package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Env string

const (
	EnvLocal Env = "local"
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// ErrMissing is returned by Validate when any required key is absent.
// Processes treat it as fatal before doing any work.
var ErrMissing = fmt.Errorf("config: missing required keys")

type Config struct {
	Authentication    string `mapstructure:"authentication"`
	CJCID             string `mapstructure:"cj_cid"`
	CJSignature       string `mapstructure:"cj_signature"`
	CJSubID           string `mapstructure:"cj_subid"`
	CJType            string `mapstructure:"cj_type"`
	CJSFTPUser        string `mapstructure:"cj_sftp_user"`
	AICExpirationDays int    `mapstructure:"aic_expiration_days"`
	DatabaseURL       string `mapstructure:"database_url"`
	Environment       Env    `mapstructure:"environment"`
	GCPProject        string `mapstructure:"gcp_project"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	LogLevel          string `mapstructure:"log_level"`
	SentryDSN         string `mapstructure:"sentry_dsn"`
	SentryEnvironment string `mapstructure:"sentry_environment"`
	StatsdHost        string `mapstructure:"statsd_host"`
	StatsdPort        int    `mapstructure:"statsd_port"`
}

// keys lists every recognized configuration key. Each one is bound to a
// CJMS_-prefixed environment variable so the YAML file and the environment
// are interchangeable.
var keys = []string{
	"authentication",
	"cj_cid",
	"cj_signature",
	"cj_subid",
	"cj_type",
	"cj_sftp_user",
	"aic_expiration_days",
	"database_url",
	"environment",
	"gcp_project",
	"host",
	"port",
	"log_level",
	"sentry_dsn",
	"sentry_environment",
	"statsd_host",
	"statsd_port",
}

func New() (*Config, error) {
	v := viper.New()
	// Allow overriding config file via env:
	// - CJMS_CONFIG_FILE: absolute or relative file path (e.g., /etc/cjms/prod.yaml)
	// - CJMS_CONFIG_NAME: config base name without extension (default: "config")
	if file := os.Getenv("CJMS_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		cfgName := os.Getenv("CJMS_CONFIG_NAME")
		if cfgName == "" {
			cfgName = "config"
		}
		v.SetConfigName(cfgName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("CJMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		// Env-only deployments run without a config file.
		_ = err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate aborts on any missing key. Sentry and statsd settings are the only
// optional ones; everything else is required for every process.
func (c *Config) Validate() error {
	var missing []string
	req := map[string]string{
		"authentication": c.Authentication,
		"cj_cid":         c.CJCID,
		"cj_signature":   c.CJSignature,
		"cj_subid":       c.CJSubID,
		"cj_type":        c.CJType,
		"cj_sftp_user":   c.CJSFTPUser,
		"database_url":   c.DatabaseURL,
		"gcp_project":    c.GCPProject,
		"host":           c.Host,
		"log_level":      c.LogLevel,
	}
	for k, val := range req {
		if val == "" {
			missing = append(missing, k)
		}
	}
	if c.AICExpirationDays <= 0 {
		missing = append(missing, "aic_expiration_days")
	}
	if c.Port <= 0 {
		missing = append(missing, "port")
	}
	switch c.Environment {
	case EnvLocal, EnvDev, EnvStage, EnvProd:
	default:
		missing = append(missing, "environment")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
