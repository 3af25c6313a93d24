package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present; the process environment always wins.
const DefaultEnvFile = "settings.env"

type LDAPOptions struct {
	BaseDN   string `env:"LDAP_BASEDN"`
	DcFQDN   string `env:"LDAP_DCFQDN"`
	Username string `env:"LDAP_USERNAME"`
	Password string `env:"LDAP_PASSWORD"`
	PageSize uint32 `env:"LDAP_PAGESIZE" envDefault:"500"`
	UseTLS   bool   `env:"LDAP_USE_TLS" envDefault:"false"`
}

type SMTPOptions struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"25"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Configuration is read once at start and handed to the runner; nothing below main
// looks at the environment.
type Configuration struct {
	LDAP LDAPOptions
	SMTP SMTPOptions

	LogFolder          string `env:"LOG_FOLDER" envDefault:"logs"`
	ScriptAdmin        string `env:"SCRIPT_ADMIN"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	MatchEmptyLocation bool   `env:"AUDIT_MATCH_EMPTY_LOCATION" envDefault:"false"`
}

var (
	errMissingDomainController = errors.New("LDAP_DCFQDN is required")
	errMissingBaseDN           = errors.New("LDAP_BASEDN is required")
	errMissingSMTPHost         = errors.New("SMTP_HOST is required")
	errMissingSMTPFrom         = errors.New("SMTP_FROM is required")
)

// Load reads envFile when it exists and parses the environment into a Configuration.
func Load(envFile string) (Configuration, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Configuration{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c Configuration) Validate() error {
	var errs []error
	if c.LDAP.DcFQDN == "" {
		errs = append(errs, errMissingDomainController)
	}
	if c.LDAP.BaseDN == "" {
		errs = append(errs, errMissingBaseDN)
	}
	if c.SMTP.Host == "" {
		errs = append(errs, errMissingSMTPHost)
	}
	if c.SMTP.From == "" {
		errs = append(errs, errMissingSMTPFrom)
	}
	return errors.Join(errs...)
}
