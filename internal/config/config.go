// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr            string `mapstructure:"listen_addr"`
	OwnerAddress          string `mapstructure:"owner_address"`
	FeeRecipient          string `mapstructure:"fee_recipient"`
	DefaultCreatorFeeBps  uint16 `mapstructure:"default_creator_fee_bps"`
	DefaultPlatformFeeBps uint16 `mapstructure:"default_platform_fee_bps"`
	SeedFile              string `mapstructure:"seed_file"`
	FaucetEnabled         bool   `mapstructure:"faucet_enabled"`
	FaucetAmountBNB       string `mapstructure:"faucet_amount_bnb"`
	DebugLogging          bool   `mapstructure:"debug_logging"`
	LogFile               string `mapstructure:"log_file"`
}

const (
	DefaultListenAddr     = ":8080"
	DefaultCreatorFeeBps  = 50
	DefaultPlatformFeeBps = 100
	DefaultFaucetAmount   = "10"
	DefaultLogFile        = "launchpad.log"

	maxBasisPoints = 10_000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":              DefaultListenAddr,
		"default_creator_fee_bps":  DefaultCreatorFeeBps,
		"default_platform_fee_bps": DefaultPlatformFeeBps,
		"faucet_amount_bnb":        DefaultFaucetAmount,
		"log_file":                 DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.OwnerAddress == "" {
		return errors.New("missing owner_address in configuration")
	}
	if cfg.FeeRecipient == "" {
		return errors.New("missing fee_recipient in configuration")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return errors.New("invalid listen_addr")
	}
	if int(cfg.DefaultCreatorFeeBps)+int(cfg.DefaultPlatformFeeBps) > maxBasisPoints {
		return errors.New("combined default fees exceed 10000 bps")
	}
	if cfg.FaucetEnabled && cfg.FaucetAmountBNB == "" {
		return errors.New("faucet_enabled requires faucet_amount_bnb")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envListen := v.GetString("LISTEN_ADDR")
	if envListen != "" {
		cfg.ListenAddr = envListen
	}

	envOwner := v.GetString("OWNER_ADDRESS")
	if envOwner != "" {
		cfg.OwnerAddress = envOwner
	}

	envRecipient := v.GetString("FEE_RECIPIENT")
	if envRecipient != "" {
		cfg.FeeRecipient = envRecipient
	}
	return nil
}
