package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/fxgrab/storage/types"
)

const (
	DefaultListenAddress  = "0.0.0.0:8545"
	DefaultTargetCurrency = types.CurrencyVES
)

var (
	ErrInvalidListenAddress  = errors.New("invalid listen address")
	ErrInvalidTargetCurrency = errors.New("invalid target currency")
	ErrInvalidBank           = errors.New("invalid bank")
	ErrInvalidCurrency       = errors.New("invalid currency")
)

var (
	listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)
	currencyCodeRegex  = regexp.MustCompile(`^[A-Z]{3,5}$`)
)

// Config defines the base-level service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The local currency all grabbed rates are quoted in
	TargetCurrency string `toml:"target_currency"`

	// The grabbed banks
	Banks []Bank `toml:"banks"`

	// The currency reference used for validating grabbed rates
	Currencies []Currency `toml:"currencies"`
}

// Bank is a single grabbed bank, and its metadata
type Bank struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Interval string `toml:"interval"` // Go duration, ex. "1h"
	BankID   int64  `toml:"bank_id"`
}

// Currency is a single currency reference entry
type Currency struct {
	Code    string   `toml:"code"`
	Symbol  string   `toml:"symbol"`
	Aliases []string `toml:"aliases"`
	ID      int64    `toml:"id"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  DefaultListenAddress,
		CORSConfig:     DefaultCORSConfig(),
		TargetCurrency: DefaultTargetCurrency.String(),
		Banks: []Bank{
			{
				Name:     "BCV",
				URL:      "https://www.bcv.org.ve/",
				Interval: "1h",
				BankID:   1,
			},
			{
				Name:     "BinanceP2P",
				Interval: "15m",
				BankID:   2,
			},
		},
		Currencies: []Currency{
			{ID: 1, Code: "USD", Symbol: "$", Aliases: []string{"USD$", "Dólar"}},
			{ID: 2, Code: "EUR", Symbol: "€", Aliases: []string{"Euro"}},
			{ID: 3, Code: "CNY", Symbol: "¥", Aliases: []string{"Yuan"}},
			{ID: 4, Code: "TRY", Symbol: "₺", Aliases: []string{"Lira"}},
			{ID: 5, Code: "RUB", Symbol: "₽", Aliases: []string{"Rublo"}},
			{ID: 6, Code: "USDT", Symbol: "₮", Aliases: []string{"Tether"}},
		},
	}
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the target currency
	if !currencyCodeRegex.MatchString(config.TargetCurrency) {
		return ErrInvalidTargetCurrency
	}

	// Validate the banks
	names := make(map[string]struct{}, len(config.Banks))

	for _, bank := range config.Banks {
		if bank.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidBank)
		}

		if _, exists := names[bank.Name]; exists {
			return fmt.Errorf("%w: duplicate bank %s", ErrInvalidBank, bank.Name)
		}

		names[bank.Name] = struct{}{}

		if bank.BankID < 0 {
			return fmt.Errorf("%w: negative bank ID for %s", ErrInvalidBank, bank.Name)
		}

		if _, err := bank.ParseInterval(); err != nil {
			return fmt.Errorf("%w: %s, %w", ErrInvalidBank, bank.Name, err)
		}
	}

	// Validate the currency reference
	ids := make(map[int64]struct{}, len(config.Currencies))

	for _, currency := range config.Currencies {
		if currency.ID <= 0 {
			return fmt.Errorf("%w: non-positive ID %d", ErrInvalidCurrency, currency.ID)
		}

		if _, exists := ids[currency.ID]; exists {
			return fmt.Errorf("%w: duplicate ID %d", ErrInvalidCurrency, currency.ID)
		}

		ids[currency.ID] = struct{}{}

		if !currencyCodeRegex.MatchString(currency.Code) {
			return fmt.Errorf("%w: code %q", ErrInvalidCurrency, currency.Code)
		}
	}

	return nil
}

// ParseInterval parses the bank's grab interval
func (b Bank) ParseInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(b.Interval)
	if err != nil {
		return 0, fmt.Errorf("unable to parse interval: %w", err)
	}

	if interval <= 0 {
		return 0, fmt.Errorf("non-positive interval %s", b.Interval)
	}

	return interval, nil
}

// GrabberInfos returns the grabber metadata for the configured banks
func (c *Config) GrabberInfos() []types.GrabberInfo {
	out := make([]types.GrabberInfo, 0, len(c.Banks))

	for _, bank := range c.Banks {
		out = append(out, types.GrabberInfo{
			Name:   bank.Name,
			URL:    bank.URL,
			BankID: bank.BankID,
		})
	}

	return out
}

// CurrencyInfos returns the configured currency reference
func (c *Config) CurrencyInfos() []types.CurrencyInfo {
	out := make([]types.CurrencyInfo, 0, len(c.Currencies))

	for _, currency := range c.Currencies {
		out = append(out, types.CurrencyInfo{
			ID:      currency.ID,
			Code:    types.Currency(currency.Code),
			Symbol:  currency.Symbol,
			Aliases: currency.Aliases,
		})
	}

	return out
}

// Read reads the configuration from the given path.
// Settings missing from the file keep their default values
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	fillDefaults(&cfg)

	return &cfg, nil
}

// fillDefaults sets the default values for the omitted settings
func fillDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaults.ListenAddress
	}

	if cfg.TargetCurrency == "" {
		cfg.TargetCurrency = defaults.TargetCurrency
	}

	if cfg.Banks == nil {
		cfg.Banks = defaults.Banks
	}

	if cfg.Currencies == nil {
		cfg.Currencies = defaults.Currencies
	}
}
