// Package config loads the account profiles: bindings between a bank
// account, its credentials, and a Firefly III instance. The loaded config is
// a read-only snapshot passed explicitly into the import pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Account binds one bank account to one ledger account.
type Account struct {
	Name         string `yaml:"name"`
	BankURL      string `yaml:"bank_url"`
	BankOrg      string `yaml:"bank_org"`
	BankFID      string `yaml:"bank_fid"`
	BankCode     string `yaml:"bank_code"`
	BankUsername string `yaml:"bank_username"`
	BankPassword string `yaml:"bank_password"`
	BankIBAN     string `yaml:"bank_iban"`

	FireflyURL       string `yaml:"firefly_url"`
	FireflyToken     string `yaml:"firefly_access_token"`
	FireflyAccountID int64  `yaml:"firefly_account_id"`
}

// Config is the top-level YAML configuration.
type Config struct {
	Accounts []Account `yaml:"accounts"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every account profile. Errors carry the profile name so a
// multi-account file stays debuggable.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return errors.New("config has no accounts")
	}
	for i, a := range c.Accounts {
		if err := a.validate(); err != nil {
			name := a.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return fmt.Errorf("account %s: %w", name, err)
		}
	}
	return nil
}

func (a Account) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"bank_url", a.BankURL},
		{"bank_code", a.BankCode},
		{"bank_username", a.BankUsername},
		{"bank_password", a.BankPassword},
		{"bank_iban", a.BankIBAN},
		{"firefly_url", a.FireflyURL},
		{"firefly_access_token", a.FireflyToken},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
	}
	if a.FireflyAccountID <= 0 {
		return errors.New("firefly_account_id must be a positive number")
	}
	return nil
}

// ForIBAN returns the profile configured for a bank IBAN.
func (c *Config) ForIBAN(iban string) (Account, error) {
	for _, a := range c.Accounts {
		if a.BankIBAN == iban {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("no account configured for IBAN %q", iban)
}
