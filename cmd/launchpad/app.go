package main

import (
	"fmt"

	"launchpad/config"
	"launchpad/ledger"
	"launchpad/logging"
	"launchpad/presale"
	"launchpad/solprogram"
	"launchpad/staking"
)

// app is the wired set of stores and engines shared by serve and sync.
type app struct {
	store   ledger.Store
	journal ledger.Journal
	presale *presale.Engine
	staking *staking.Engine
	close   func() error
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{close: func() error { return nil }}
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := ledger.OpenSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.store = ledger.NewGormStore(db)
		a.journal = ledger.NewGormJournal(db)
		a.close = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	default:
		a.store = ledger.NewMemoryStore()
		a.journal = ledger.NewMemoryJournal()
	}
	logging.Info("Store opened", logging.Store, "driver", cfg.Store.Driver)

	if err := a.buildEngines(cfg); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildEngines(cfg *config.Config) error {
	presaleDeriver, err := solprogram.NewProgramDeriver(cfg.Solana.PresaleProgramID)
	if err != nil {
		return fmt.Errorf("presale program: %w", err)
	}
	stakingDeriver, err := solprogram.NewProgramDeriver(cfg.Solana.StakingProgramID)
	if err != nil {
		return fmt.Errorf("staking program: %w", err)
	}
	if a.presale, err = presale.NewEngine(a.store, presaleDeriver, cfg.PresaleEngineConfig()); err != nil {
		return err
	}
	a.staking, err = staking.NewEngine(a.store, stakingDeriver, cfg.StakingEngineConfig())
	return err
}
