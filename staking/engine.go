package staking

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"launchpad/ledger"
	"launchpad/logging"
	"launchpad/solprogram"
)

// Engine executes staking commands. Reward accrual is lazy: each command
// settles the interval since the depositor's last update before acting.
type Engine struct {
	store         ledger.Store
	deriver       solprogram.Deriver
	rate          Rate
	lockingPeriod int64
	rewardVault   solana.PublicKey
}

func NewEngine(store ledger.Store, deriver solprogram.Deriver, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	vault, err := solprogram.DeriveRewardVaultPDA(deriver)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:         store,
		deriver:       deriver,
		rate:          cfg.RewardRate,
		lockingPeriod: int64(cfg.LockingPeriod),
		rewardVault:   vault,
	}, nil
}

func (e *Engine) Rate() Rate {
	return e.rate
}

func (e *Engine) LockingPeriod() int64 {
	return e.lockingPeriod
}

func (e *Engine) RewardVault() solana.PublicKey {
	return e.rewardVault
}

func (e *Engine) exec(ctx context.Context, fn func(txn *ledger.Txn) error) error {
	txn := ledger.Begin(ctx, e.store)
	if err := fn(txn); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

// mint reads the staking mint off the reward vault.
func (e *Engine) mint(txn *ledger.Txn) (solana.PublicKey, error) {
	vault, err := txn.GetTokenAccount(e.rewardVault)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return solana.PublicKey{}, ErrNotInitialized
	}
	if err != nil {
		return solana.PublicKey{}, err
	}
	return vault.Mint, nil
}

// Addresses derives the accounts of depositor.
func (e *Engine) Addresses(depositor, mint solana.PublicKey) (*DepositorAddresses, error) {
	stakeInfo, err := solprogram.DeriveStakeInfoPDA(e.deriver, depositor)
	if err != nil {
		return nil, err
	}
	stakeAccount, err := solprogram.DeriveStakeAccountPDA(e.deriver, depositor)
	if err != nil {
		return nil, err
	}
	holding, err := solprogram.GetAssociatedTokenAddress(depositor, mint)
	if err != nil {
		return nil, err
	}
	return &DepositorAddresses{StakeInfo: stakeInfo, StakeAccount: stakeAccount, HoldingAccount: holding}, nil
}

func (e *Engine) loadStake(txn *ledger.Txn, address solana.PublicKey) (*StakeInfo, error) {
	var info StakeInfo
	err := txn.GetRecord(address, stakeDisc, "StakeState", &info)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, ErrNotStaked
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (e *Engine) saveStake(txn *ledger.Txn, address solana.PublicKey, info StakeInfo) error {
	return txn.PutRecord(address, e.deriver.ProgramID(), stakeDisc, info)
}

func walletError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) || errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}
	return err
}

func vaultError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		return fmt.Errorf("%w: %v", ErrInsufficientVaultBalance, err)
	}
	return err
}

// stakeAccountError covers a stake account that is missing or holds less
// than the recorded principal, as after importing a record on its own.
func stakeAccountError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) || errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("%w: stake account: %v", ErrInsufficientVaultBalance, err)
	}
	return err
}

// Initialize creates the reward vault for mint.
func (e *Engine) Initialize(ctx context.Context, signer, mint solana.PublicKey) error {
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		exists, err := txn.Exists(e.rewardVault)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		return txn.CreateTokenAccount(e.rewardVault, mint, e.rewardVault)
	})
	if err != nil {
		return err
	}
	logging.Info("Reward vault initialized", logging.Staking, "signer", signer, "mint", mint, "vault", e.rewardVault)
	return nil
}

// FundRewards moves amount from funder's holding account into the reward vault.
func (e *Engine) FundRewards(ctx context.Context, funder solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		mint, err := e.mint(txn)
		if err != nil {
			return err
		}
		holding, err := solprogram.GetAssociatedTokenAddress(funder, mint)
		if err != nil {
			return err
		}
		if err := txn.Transfer(holding, e.rewardVault, funder, amount); err != nil {
			return walletError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Info("Reward vault funded", logging.Staking, "funder", funder, "amount", amount)
	return nil
}

// Stake locks amount more tokens for depositor at ledger time now.
func (e *Engine) Stake(ctx context.Context, depositor solana.PublicKey, amount uint64, now int64) (*StakeInfo, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	var info StakeInfo
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		mint, err := e.mint(txn)
		if err != nil {
			return err
		}
		addrs, err := e.Addresses(depositor, mint)
		if err != nil {
			return err
		}

		existing, err := e.loadStake(txn, addrs.StakeInfo)
		switch {
		case errors.Is(err, ErrNotStaked):
			info = StakeInfo{StakedAmount: amount, LastUpdateTimestamp: now, StakeStartTimestamp: now}
		case err != nil:
			return err
		default:
			if info, err = Accrue(*existing, e.rate, now); err != nil {
				return err
			}
			staked, overflow := math.SafeAdd(info.StakedAmount, amount)
			if overflow {
				return fmt.Errorf("%w: staked amount", ErrMathOverflow)
			}
			info.StakedAmount = staked
		}
		if e.lockingPeriod > 0 {
			end := now + e.lockingPeriod
			if end < now {
				return fmt.Errorf("%w: locking period end", ErrMathOverflow)
			}
			info.LockingPeriodEnd = end
		}

		if err := txn.EnsureTokenAccount(addrs.StakeAccount, mint, addrs.StakeAccount); err != nil {
			return err
		}
		if err := txn.Transfer(addrs.HoldingAccount, addrs.StakeAccount, depositor, amount); err != nil {
			return walletError(err)
		}
		return e.saveStake(txn, addrs.StakeInfo, info)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Tokens staked", logging.Staking,
		"depositor", depositor, "amount", amount, "staked", info.StakedAmount, "pending", info.PendingRewards)
	return &info, nil
}

// ClaimReward pays out every pending reward and returns the amount paid.
func (e *Engine) ClaimReward(ctx context.Context, depositor solana.PublicKey, now int64) (uint64, error) {
	var paid uint64
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		mint, err := e.mint(txn)
		if err != nil {
			return err
		}
		addrs, err := e.Addresses(depositor, mint)
		if err != nil {
			return err
		}
		existing, err := e.loadStake(txn, addrs.StakeInfo)
		if err != nil {
			return err
		}
		info, err := Accrue(*existing, e.rate, now)
		if err != nil {
			return err
		}

		paid = info.PendingRewards
		if paid > 0 {
			if err := txn.EnsureTokenAccount(addrs.HoldingAccount, mint, depositor); err != nil {
				return err
			}
			if err := txn.Transfer(e.rewardVault, addrs.HoldingAccount, e.rewardVault, paid); err != nil {
				return vaultError(err)
			}
		}
		info.PendingRewards = 0
		return e.saveStake(txn, addrs.StakeInfo, info)
	})
	if err != nil {
		return 0, err
	}
	logging.Info("Reward claimed", logging.Staking, "depositor", depositor, "amount", paid)
	return paid, nil
}

// Unstake returns the whole stake plus rewards and closes the depositor's accounts.
func (e *Engine) Unstake(ctx context.Context, depositor solana.PublicKey, now int64) (*Payout, error) {
	var payout Payout
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		mint, err := e.mint(txn)
		if err != nil {
			return err
		}
		addrs, err := e.Addresses(depositor, mint)
		if err != nil {
			return err
		}
		existing, err := e.loadStake(txn, addrs.StakeInfo)
		if err != nil {
			return err
		}
		if existing.StakedAmount == 0 {
			return ErrNotStaked
		}
		if existing.Locked(now) {
			return fmt.Errorf("%w: locked until %d", ErrLockingPeriodNotOverYet, existing.LockingPeriodEnd)
		}
		info, err := Accrue(*existing, e.rate, now)
		if err != nil {
			return err
		}

		payout = Payout{Principal: info.StakedAmount, Rewards: info.PendingRewards}
		if err := txn.EnsureTokenAccount(addrs.HoldingAccount, mint, depositor); err != nil {
			return err
		}
		if err := txn.Transfer(addrs.StakeAccount, addrs.HoldingAccount, addrs.StakeAccount, payout.Principal); err != nil {
			return stakeAccountError(err)
		}
		if payout.Rewards > 0 {
			if err := txn.Transfer(e.rewardVault, addrs.HoldingAccount, e.rewardVault, payout.Rewards); err != nil {
				return vaultError(err)
			}
		}
		if err := txn.CloseTokenAccount(addrs.StakeAccount, addrs.StakeAccount, depositor); err != nil {
			return err
		}
		return txn.CloseAccount(addrs.StakeInfo, depositor)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Tokens unstaked", logging.Staking,
		"depositor", depositor, "principal", payout.Principal, "rewards", payout.Rewards)
	return &payout, nil
}

// GetStakeInfo returns the stored record of depositor.
func (e *Engine) GetStakeInfo(ctx context.Context, depositor solana.PublicKey) (*StakeInfo, error) {
	address, err := solprogram.DeriveStakeInfoPDA(e.deriver, depositor)
	if err != nil {
		return nil, err
	}
	return e.loadStake(ledger.Begin(ctx, e.store), address)
}

// PendingRewardsAt returns what a claim at now would pay, without writing.
func (e *Engine) PendingRewardsAt(ctx context.Context, depositor solana.PublicKey, now int64) (uint64, error) {
	info, err := e.GetStakeInfo(ctx, depositor)
	if err != nil {
		return 0, err
	}
	accrued, err := Accrue(*info, e.rate, now)
	if err != nil {
		return 0, err
	}
	return accrued.PendingRewards, nil
}

// VaultBalance returns the reward vault holdings.
func (e *Engine) VaultBalance(ctx context.Context) (uint64, error) {
	txn := ledger.Begin(ctx, e.store)
	if _, err := e.mint(txn); err != nil {
		return 0, err
	}
	return txn.TokenBalance(e.rewardVault)
}

// Restore writes an imported stake record for depositor together with the
// balance of its stake account. The reward vault must exist.
func (e *Engine) Restore(ctx context.Context, depositor solana.PublicKey, info StakeInfo, stakeBalance uint64) error {
	return e.exec(ctx, func(txn *ledger.Txn) error {
		mint, err := e.mint(txn)
		if err != nil {
			return err
		}
		addrs, err := e.Addresses(depositor, mint)
		if err != nil {
			return err
		}
		if err := txn.SetTokenBalance(addrs.StakeAccount, mint, addrs.StakeAccount, stakeBalance); err != nil {
			return err
		}
		return e.saveStake(txn, addrs.StakeInfo, info)
	})
}

// RestoreVault creates the reward vault for mint if missing and sets its balance.
func (e *Engine) RestoreVault(ctx context.Context, mint solana.PublicKey, balance uint64) error {
	return e.exec(ctx, func(txn *ledger.Txn) error {
		return txn.SetTokenBalance(e.rewardVault, mint, e.rewardVault, balance)
	})
}
