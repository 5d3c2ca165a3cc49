// ====================================
// File: cmd/launchpad/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bnbfun/launchpad/internal/config"
	"github.com/bnbfun/launchpad/internal/factory"
	"github.com/bnbfun/launchpad/internal/logging"
	"github.com/bnbfun/launchpad/internal/server"
	"github.com/bnbfun/launchpad/internal/token"
	"github.com/bnbfun/launchpad/internal/venue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.InitLogger(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("starting launchpad", zap.String("listen_addr", cfg.ListenAddr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank := token.NewLedger("Wrapped BNB", "WBNB")
	amm := venue.NewAMM(bank, logger.Named("amm"))

	defaults := factory.Defaults{
		CreatorFeeBps:  cfg.DefaultCreatorFeeBps,
		PlatformFeeBps: cfg.DefaultPlatformFeeBps,
	}
	f, err := factory.New(cfg.OwnerAddress, cfg.FeeRecipient, defaults, bank, amm, logger.Named("factory"))
	if err != nil {
		return fmt.Errorf("create factory: %w", err)
	}

	if cfg.SeedFile != "" {
		seed, err := factory.LoadSeed(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		if err := f.ApplySeed(ctx, seed); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	faucetAmount := uint256.NewInt(0)
	if cfg.FaucetEnabled {
		faucetAmount, err = factory.ParseUnits(cfg.FaucetAmountBNB)
		if err != nil {
			return fmt.Errorf("parse faucet amount: %w", err)
		}
	}

	srv := server.New(server.Options{
		Factory:       f,
		Bank:          bank,
		Logger:        logger.Named("http"),
		FaucetEnabled: cfg.FaucetEnabled,
		FaucetAmount:  faucetAmount,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(cfg.ListenAddr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
