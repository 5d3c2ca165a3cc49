// Package factory deploys new launches from a shared template configuration
// and keeps the append-only registry of every launch it created.
package factory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/curve"
	"github.com/bnbfun/launchpad/internal/launch"
	"github.com/bnbfun/launchpad/internal/token"
	"github.com/bnbfun/launchpad/internal/venue"
)

var (
	ErrNotOwner       = errors.New("factory: caller is not the owner")
	ErrFeeOutOfRange  = errors.New("factory: combined default fees exceed 10000 bps")
	ErrLaunchNotFound = errors.New("factory: launch not found")
	ErrEmptyName      = errors.New("factory: token name is empty")
	ErrEmptySymbol    = errors.New("factory: token symbol is empty")
	ErrEmptyCreator   = errors.New("factory: creator address is empty")
)

// Defaults are the fee parameters stamped onto launches at creation time.
// Changing them affects only launches created afterward.
type Defaults struct {
	CreatorFeeBps  uint16
	PlatformFeeBps uint16
}

// LaunchSpec is the caller-supplied portion of a new launch.
type LaunchSpec struct {
	Name                string
	Symbol              string
	TotalSupply         *uint256.Int
	InitialPrice        *uint256.Int
	PriceIncrement      *uint256.Int
	GraduationThreshold *uint256.Int
	EnableSell          bool
	Creator             string
}

// Factory owns the launch registry, the default fee configuration and the
// collaborator handles shared by every launch it deploys.
type Factory struct {
	mu sync.Mutex

	owner        string
	feeRecipient string
	defaults     Defaults

	bank   *token.Ledger
	pool   venue.Liquidity
	logger *zap.Logger

	order    []string
	launches map[string]*launch.Launch
}

// New constructs a factory. owner gates fee changes; feeRecipient receives
// the platform side of every fee split.
func New(owner, feeRecipient string, defaults Defaults, bank *token.Ledger, pool venue.Liquidity, logger *zap.Logger) (*Factory, error) {
	if int(defaults.CreatorFeeBps)+int(defaults.PlatformFeeBps) > curve.MaxBasisPoints {
		return nil, ErrFeeOutOfRange
	}
	return &Factory{
		owner:        owner,
		feeRecipient: feeRecipient,
		defaults:     defaults,
		bank:         bank,
		pool:         pool,
		logger:       logger,
		launches:     make(map[string]*launch.Launch),
	}, nil
}

// CreateLaunch mints a new token with the full curve supply in launch
// custody, initializes a launch from the template defaults and registers it.
// Returns the new launch identifier.
func (f *Factory) CreateLaunch(ctx context.Context, spec LaunchSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if spec.Name == "" {
		return "", ErrEmptyName
	}
	if spec.Symbol == "" {
		return "", ErrEmptySymbol
	}
	if spec.Creator == "" {
		return "", ErrEmptyCreator
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	params := &curve.Params{
		InitialPrice:        spec.InitialPrice,
		PriceIncrement:      spec.PriceIncrement,
		TotalSupply:         spec.TotalSupply,
		GraduationThreshold: spec.GraduationThreshold,
		CreatorFeeBps:       f.defaults.CreatorFeeBps,
		PlatformFeeBps:      f.defaults.PlatformFeeBps,
		EnableSell:          spec.EnableSell,
	}
	if params.PriceIncrement == nil {
		params.PriceIncrement = uint256.NewInt(0)
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	asset := token.NewLedger(spec.Name, spec.Symbol)

	l := launch.New()
	cfg := launch.Config{
		ID:                id,
		Creator:           spec.Creator,
		Params:            params,
		PlatformRecipient: f.feeRecipient,
	}
	if err := l.Initialize(cfg, asset, f.bank, f.pool, f.logger); err != nil {
		return "", fmt.Errorf("factory: initialize launch: %w", err)
	}
	if err := asset.Mint(id, params.TotalSupply); err != nil {
		return "", fmt.Errorf("factory: mint curve supply: %w", err)
	}

	f.order = append(f.order, id)
	f.launches[id] = l

	f.logger.Info("launch created",
		zap.String("launch_id", id),
		zap.String("symbol", spec.Symbol),
		zap.String("creator", spec.Creator),
		zap.String("total_supply", params.TotalSupply.Dec()),
		zap.Uint16("creator_fee_bps", params.CreatorFeeBps),
		zap.Uint16("platform_fee_bps", params.PlatformFeeBps))

	return id, nil
}

// GetLaunch looks a launch up by identifier.
func (f *Factory) GetLaunch(id string) (*launch.Launch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.launches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLaunchNotFound, id)
	}
	return l, nil
}

// GetAllLaunches returns every launch in insertion order.
func (f *Factory) GetAllLaunches() []*launch.Launch {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*launch.Launch, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.launches[id])
	}
	return out
}

// LaunchCount returns the number of launches ever created.
func (f *Factory) LaunchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// DefaultFees returns the current default fee configuration.
func (f *Factory) DefaultFees() Defaults {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defaults
}

// SetDefaultFees updates the defaults applied to future launches. Owner
// only; existing launches keep the fees they were created with.
func (f *Factory) SetDefaultFees(caller string, creatorFeeBps, platformFeeBps uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.owner {
		return ErrNotOwner
	}
	if int(creatorFeeBps)+int(platformFeeBps) > curve.MaxBasisPoints {
		return ErrFeeOutOfRange
	}

	f.defaults = Defaults{CreatorFeeBps: creatorFeeBps, PlatformFeeBps: platformFeeBps}
	f.logger.Info("default fees updated",
		zap.Uint16("creator_fee_bps", creatorFeeBps),
		zap.Uint16("platform_fee_bps", platformFeeBps))
	return nil
}
