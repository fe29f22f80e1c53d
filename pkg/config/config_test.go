package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Authentication:    "sekret",
		CJCID:             "1234567",
		CJSignature:       "sig",
		CJSubID:           "subid",
		CJType:            "424242",
		CJSFTPUser:        "cjsftp",
		AICExpirationDays: 30,
		DatabaseURL:       "postgres://localhost/cjms",
		Environment:       EnvLocal,
		GCPProject:        "proj",
		Host:              "127.0.0.1",
		Port:              8100,
		LogLevel:          "info",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingKeys(t *testing.T) {
	c := validConfig()
	c.Authentication = ""
	c.AICExpirationDays = 0

	err := c.Validate()
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "authentication")
	assert.Contains(t, err.Error(), "aic_expiration_days")
}

func TestValidate_UnknownEnvironment(t *testing.T) {
	c := validConfig()
	c.Environment = "staging"

	err := c.Validate()
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "environment")
}

func TestValidate_SentryAndStatsdOptional(t *testing.T) {
	c := validConfig()
	c.SentryDSN = ""
	c.StatsdHost = ""
	assert.NoError(t, c.Validate())
}
