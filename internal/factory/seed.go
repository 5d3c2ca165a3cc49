package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Seed is the startup fixture: accounts to fund with base currency and
// launches to create before the server starts taking requests. Amounts are
// written in human units ("10.5" BNB, "0.0001" per token) and scaled to wei
// when applied.
type Seed struct {
	Accounts []SeedAccount `yaml:"accounts"`
	Launches []SeedLaunch  `yaml:"launches"`
}

type SeedAccount struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance_bnb"`
}

type SeedLaunch struct {
	Name                string `yaml:"name"`
	Symbol              string `yaml:"symbol"`
	Creator             string `yaml:"creator"`
	TotalSupply         string `yaml:"total_supply"`
	InitialPrice        string `yaml:"initial_price_bnb"`
	PriceIncrement      string `yaml:"price_increment_bnb"`
	GraduationThreshold string `yaml:"graduation_threshold_bnb"`
	EnableSell          bool   `yaml:"enable_sell"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed funds the listed accounts and creates the listed launches.
// Invalid entries are skipped with a warning so one bad line does not take
// the whole fixture down.
func (f *Factory) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, acct := range seed.Accounts {
		amount, err := ParseUnits(acct.Balance)
		if err != nil {
			f.logger.Warn("skipping seed account",
				zap.String("address", acct.Address),
				zap.String("balance", acct.Balance),
				zap.Error(err))
			continue
		}
		if err := f.bank.Mint(acct.Address, amount); err != nil {
			return fmt.Errorf("fund seed account %s: %w", acct.Address, err)
		}
		f.logger.Info("seed account funded",
			zap.String("address", acct.Address),
			zap.String("balance", acct.Balance))
	}

	for _, def := range seed.Launches {
		spec, err := def.toSpec()
		if err != nil {
			f.logger.Warn("skipping seed launch",
				zap.String("symbol", def.Symbol),
				zap.Error(err))
			continue
		}
		id, err := f.CreateLaunch(ctx, spec)
		if err != nil {
			f.logger.Warn("skipping seed launch",
				zap.String("symbol", def.Symbol),
				zap.Error(err))
			continue
		}
		f.logger.Info("seed launch created",
			zap.String("launch_id", id),
			zap.String("symbol", def.Symbol))
	}
	return nil
}

func (def SeedLaunch) toSpec() (LaunchSpec, error) {
	supply, err := ParseUnits(def.TotalSupply)
	if err != nil {
		return LaunchSpec{}, fmt.Errorf("total_supply: %w", err)
	}
	initialPrice, err := ParseUnits(def.InitialPrice)
	if err != nil {
		return LaunchSpec{}, fmt.Errorf("initial_price_bnb: %w", err)
	}
	increment := uint256.NewInt(0)
	if def.PriceIncrement != "" {
		increment, err = ParseUnits(def.PriceIncrement)
		if err != nil {
			return LaunchSpec{}, fmt.Errorf("price_increment_bnb: %w", err)
		}
	}
	threshold, err := ParseUnits(def.GraduationThreshold)
	if err != nil {
		return LaunchSpec{}, fmt.Errorf("graduation_threshold_bnb: %w", err)
	}

	return LaunchSpec{
		Name:                def.Name,
		Symbol:              def.Symbol,
		TotalSupply:         supply,
		InitialPrice:        initialPrice,
		PriceIncrement:      increment,
		GraduationThreshold: threshold,
		EnableSell:          def.EnableSell,
		Creator:             def.Creator,
	}, nil
}

// ParseUnits converts a human-readable decimal amount into 18-decimal wei.
func ParseUnits(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	scaled := d.Shift(18)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than 18 decimal places", s)
	}
	out, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %q does not fit in 256 bits", s)
	}
	return out, nil
}
