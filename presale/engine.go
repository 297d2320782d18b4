package presale

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"launchpad/ledger"
	"launchpad/logging"
	"launchpad/metrics"
	"launchpad/solprogram"
)

// Config - engine parameters not stored on chain
type Config struct {
	// PriceScale multiplies the payment value before dividing by the round price.
	// 1 gives tokens = input / price; the deployed program uses LamportsPerSOL.
	PriceScale uint64
	// NativePrice is the payment-token value of one SOL.
	NativePrice uint64
	// BurnUnsold burns a round's remaining allocation when the round closes.
	BurnUnsold bool
}

func DefaultConfig() Config {
	return Config{
		PriceScale:  1,
		NativePrice: solprogram.DefaultNativePrice,
	}
}

// Engine executes presale commands against a ledger store. The host must
// serialize commands; every command commits atomically or not at all.
type Engine struct {
	store     ledger.Store
	deriver   solprogram.Deriver
	cfg       Config
	addresses Addresses
}

func NewEngine(store ledger.Store, deriver solprogram.Deriver, cfg Config) (*Engine, error) {
	if cfg.PriceScale == 0 {
		return nil, fmt.Errorf("price scale must be positive")
	}
	if cfg.NativePrice == 0 {
		return nil, fmt.Errorf("native price must be positive")
	}
	info, err := solprogram.DerivePresaleInfoPDA(deriver)
	if err != nil {
		return nil, err
	}
	paymentVault, err := solprogram.DerivePaymentVaultPDA(deriver)
	if err != nil {
		return nil, err
	}
	tokenVault, err := solprogram.DeriveTokenVaultPDA(deriver)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:   store,
		deriver: deriver,
		cfg:     cfg,
		addresses: Addresses{
			PresaleInfo:  info,
			PaymentVault: paymentVault,
			TokenVault:   tokenVault,
		},
	}, nil
}

func (e *Engine) Addresses() Addresses {
	return e.addresses
}

func (e *Engine) Config() Config {
	return e.cfg
}

// exec runs fn in a fresh transaction and commits only when fn succeeds.
func (e *Engine) exec(ctx context.Context, fn func(txn *ledger.Txn) error) error {
	txn := ledger.Begin(ctx, e.store)
	if err := fn(txn); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

func (e *Engine) load(txn *ledger.Txn) (*Info, error) {
	var info Info
	err := txn.GetRecord(e.addresses.PresaleInfo, infoDisc, "PresaleState", &info)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (e *Engine) save(txn *ledger.Txn, info *Info) error {
	return txn.PutRecord(e.addresses.PresaleInfo, e.deriver.ProgramID(), infoDisc, *info)
}

func requireOwner(info *Info, caller solana.PublicKey) error {
	if !info.Owner.Equals(caller) {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorizedAdmin, caller)
	}
	return nil
}

// walletError maps a failed debit of a user wallet.
func walletError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) || errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}
	return err
}

// vaultError maps a failed debit of an engine vault.
func vaultError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		return fmt.Errorf("%w: %v", ErrInsufficientVaultBalance, err)
	}
	return err
}

// Initialize creates the presale config in NotStarted and two empty vaults.
func (e *Engine) Initialize(ctx context.Context, owner solana.PublicKey, params InitializeParams) (*Info, error) {
	var info *Info
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		exists, err := txn.Exists(e.addresses.PresaleInfo)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		for r := 0; r < Rounds; r++ {
			if params.Prices[r] == 0 {
				return fmt.Errorf("%w: round %d", ErrPriceCantBeZero, r+1)
			}
		}
		for r := 0; r < Rounds; r++ {
			if params.Allocations[r] == 0 {
				return fmt.Errorf("%w: round %d", ErrSupplyCantBeZero, r+1)
			}
		}
		if _, err := sumAllocations(params.Allocations); err != nil {
			return err
		}

		info = &Info{
			Stage:               NotStarted,
			Owner:               owner,
			Prices:              params.Prices,
			AllocationInitial:   params.Allocations,
			AllocationRemaining: params.Allocations,
			PaymentMint:         params.PaymentMint,
			SaleMint:            params.SaleMint,
		}
		for _, vault := range []struct {
			address, mint solana.PublicKey
		}{
			{e.addresses.PaymentVault, params.PaymentMint},
			{e.addresses.TokenVault, params.SaleMint},
		} {
			if err := txn.CreateTokenAccount(vault.address, vault.mint, e.addresses.PresaleInfo); err != nil {
				if errors.Is(err, ledger.ErrAccountExists) {
					return fmt.Errorf("%w: vault %s exists", ErrAlreadyInitialized, vault.address)
				}
				return err
			}
		}
		return e.save(txn, info)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Presale initialized", logging.Presale,
		"owner", owner, "prices", info.Prices, "allocations", info.AllocationInitial)
	metrics.SetPresaleStage(int64(info.Stage))
	return info, nil
}

// fundFromOwner tops the token vault up to target from the owner's sale-token wallet.
func (e *Engine) fundFromOwner(txn *ledger.Txn, info *Info, target uint64) (uint64, error) {
	balance, err := txn.TokenBalance(e.addresses.TokenVault)
	if err != nil {
		return 0, err
	}
	if balance >= target {
		return 0, nil
	}
	shortfall := target - balance
	wallet, err := solprogram.GetAssociatedTokenAddress(info.Owner, info.SaleMint)
	if err != nil {
		return 0, err
	}
	if err := txn.Transfer(wallet, e.addresses.TokenVault, info.Owner, shortfall); err != nil {
		return 0, walletError(err)
	}
	return shortfall, nil
}

// closeIfEmpty closes a vault holding no tokens and returns whether it did.
func (e *Engine) closeIfEmpty(txn *ledger.Txn, vault, dest solana.PublicKey) (bool, error) {
	token, err := txn.GetTokenAccount(vault)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if token.Amount != 0 {
		return false, nil
	}
	if err := txn.CloseTokenAccount(vault, e.addresses.PresaleInfo, dest); err != nil {
		return false, err
	}
	return true, nil
}

// openAllocation sums what is left in the active round and the rounds after it.
// Rounds already closed cannot sell again.
func openAllocation(info *Info) (uint64, error) {
	first := info.Stage.Round()
	if first == 0 {
		first = 1
	}
	var open [Rounds]uint64
	copy(open[first-1:], info.AllocationRemaining[first-1:])
	return sumAllocations(open)
}

// FundVault moves the sale tokens still missing for the open allocations
// from the owner into the token vault.
func (e *Engine) FundVault(ctx context.Context, caller solana.PublicKey) (uint64, error) {
	var deposited uint64
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		if info.Stage == Ended {
			return ErrPresaleEnded
		}
		target, err := openAllocation(info)
		if err != nil {
			return err
		}
		deposited, err = e.fundFromOwner(txn, info, target)
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.Info("Token vault funded", logging.Presale, "amount", deposited)
	return deposited, nil
}

// StartNextRound advances the stage one step. Entering a round funds the
// vault up to that round's allocation; leaving a round optionally burns
// what was not sold.
func (e *Engine) StartNextRound(ctx context.Context, caller solana.PublicKey) (Stage, error) {
	var next Stage
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		next, err = info.Stage.Next()
		if err != nil {
			return err
		}

		if r := info.Stage.Round(); r > 0 && e.cfg.BurnUnsold {
			unsold := info.AllocationRemaining[r-1]
			if unsold > 0 {
				if err := txn.Burn(e.addresses.TokenVault, e.addresses.PresaleInfo, unsold); err != nil {
					return vaultError(err)
				}
				info.AllocationRemaining[r-1] = 0
				logging.Info("Unsold allocation burned", logging.Presale, "round", r, "amount", unsold)
			}
		}

		if r := next.Round(); r > 0 {
			funded, err := e.fundFromOwner(txn, info, info.AllocationRemaining[r-1])
			if err != nil {
				return err
			}
			if funded > 0 {
				logging.Info("Round funded", logging.Presale, "round", r, "amount", funded)
			}
		}
		if next == Ended {
			closed, err := e.closeIfEmpty(txn, e.addresses.TokenVault, info.Owner)
			if err != nil {
				return err
			}
			if closed {
				logging.Info("Token vault closed", logging.Presale, "vault", e.addresses.TokenVault)
			}
		}

		info.Stage = next
		return e.save(txn, info)
	})
	if err != nil {
		return 0, err
	}
	logging.Info("Stage advanced", logging.Presale, "stage", next)
	metrics.SetPresaleStage(int64(next))
	return next, nil
}

// BuyTokens sells tokens of the active round for inputAmount of payment
// token, or lamports when isNative. Orders are filled completely or rejected.
func (e *Engine) BuyTokens(ctx context.Context, buyer solana.PublicKey, inputAmount uint64, isNative bool) (*Purchase, error) {
	var purchase *Purchase
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		switch info.Stage {
		case NotStarted:
			return ErrPresaleNotStartedYet
		case Ended:
			return ErrPresaleEnded
		}
		round := info.Stage.Round()
		if round == 0 {
			return fmt.Errorf("%w: %s", ErrStageInvalid, info.Stage)
		}
		if inputAmount == 0 {
			return ErrZeroAmount
		}

		paymentValue := inputAmount
		if isNative {
			if paymentValue, err = NativePaymentValue(inputAmount, e.cfg.NativePrice); err != nil {
				return err
			}
		}

		price := info.Prices[round-1]
		discounted, err := e.whitelisted(txn, buyer)
		if err != nil {
			return err
		}
		if discounted && info.Discount > 0 {
			if price, err = EffectivePrice(price, info.Discount); err != nil {
				return err
			}
		}
		tokensOut, err := TokensOut(paymentValue, e.cfg.PriceScale, price)
		if err != nil {
			return err
		}
		if tokensOut == 0 {
			return ErrPurchaseTooSmall
		}
		if tokensOut > info.AllocationRemaining[round-1] {
			return fmt.Errorf("%w: want %d, round %d has %d",
				ErrInsufficientAllocation, tokensOut, round, info.AllocationRemaining[round-1])
		}

		if isNative {
			if err := txn.TransferLamports(buyer, e.addresses.PaymentVault, inputAmount); err != nil {
				return walletError(err)
			}
		} else {
			buyerPayment, err := solprogram.GetAssociatedTokenAddress(buyer, info.PaymentMint)
			if err != nil {
				return err
			}
			if err := txn.Transfer(buyerPayment, e.addresses.PaymentVault, buyer, inputAmount); err != nil {
				return walletError(err)
			}
		}

		walletToDepositTo, err := solprogram.GetAssociatedTokenAddress(buyer, info.SaleMint)
		if err != nil {
			return err
		}
		if err := txn.EnsureTokenAccount(walletToDepositTo, info.SaleMint, buyer); err != nil {
			return err
		}
		if err := txn.Transfer(e.addresses.TokenVault, walletToDepositTo, e.addresses.PresaleInfo, tokensOut); err != nil {
			return vaultError(err)
		}

		info.AllocationRemaining[round-1] -= tokensOut
		purchase = &Purchase{
			Round:         round,
			InputAmount:   inputAmount,
			PaymentValue:  paymentValue,
			Price:         price,
			TokensOut:     tokensOut,
			Native:        isNative,
			Discounted:    discounted && info.Discount > 0,
			RemainingLeft: info.AllocationRemaining[round-1],
		}
		return e.save(txn, info)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Tokens bought", logging.Presale,
		"buyer", buyer, "round", purchase.Round, "input", inputAmount, "native", isNative, "tokens", purchase.TokensOut)
	metrics.AddTokensSold(purchase.TokensOut)
	return purchase, nil
}

// WithdrawUsdc sends everything in the payment vault (tokens and lamports) to the owner.
func (e *Engine) WithdrawUsdc(ctx context.Context, caller solana.PublicKey) (*Withdrawal, error) {
	var out Withdrawal
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}

		out.Tokens, err = txn.TokenBalance(e.addresses.PaymentVault)
		if err != nil {
			return err
		}
		if out.Tokens > 0 {
			wallet, err := solprogram.GetAssociatedTokenAddress(info.Owner, info.PaymentMint)
			if err != nil {
				return err
			}
			if err := txn.EnsureTokenAccount(wallet, info.PaymentMint, info.Owner); err != nil {
				return err
			}
			if err := txn.Transfer(e.addresses.PaymentVault, wallet, e.addresses.PresaleInfo, out.Tokens); err != nil {
				return vaultError(err)
			}
		}

		out.Lamports, err = txn.Lamports(e.addresses.PaymentVault)
		if err != nil {
			return err
		}
		if out.Lamports > 0 {
			if err := txn.TransferLamports(e.addresses.PaymentVault, info.Owner, out.Lamports); err != nil {
				return vaultError(err)
			}
		}
		if info.Stage == Ended {
			out.VaultClosed, err = e.closeIfEmpty(txn, e.addresses.PaymentVault, info.Owner)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Payment vault withdrawn", logging.Presale, "tokens", out.Tokens, "lamports", out.Lamports)
	return &out, nil
}

// SetDiscount sets the whitelist discount, in parts of DiscountBase.
func (e *Engine) SetDiscount(ctx context.Context, caller solana.PublicKey, discount uint64) error {
	if discount > solprogram.DiscountBase {
		return fmt.Errorf("%w: %d > %d", ErrInvalidDiscount, discount, solprogram.DiscountBase)
	}
	return e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		info.Discount = discount
		logging.Info("Discount changed", logging.Presale, "discount", discount)
		return e.save(txn, info)
	})
}

// ChangeOwner hands owner rights to newOwner.
func (e *Engine) ChangeOwner(ctx context.Context, caller, newOwner solana.PublicKey) error {
	return e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		info.Owner = newOwner
		logging.Info("Owner changed", logging.Presale, "from", caller, "to", newOwner)
		return e.save(txn, info)
	})
}

// AddToWhitelist marks buyer for the discount. Adding twice is a no-op.
func (e *Engine) AddToWhitelist(ctx context.Context, caller, buyer solana.PublicKey, now int64) error {
	return e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		address, err := solprogram.DeriveWhitelistPDA(e.deriver, buyer)
		if err != nil {
			return err
		}
		exists, err := txn.Exists(address)
		if err != nil || exists {
			return err
		}
		return txn.PutRecord(address, e.deriver.ProgramID(), whitelistDisc, WhitelistEntry{Buyer: buyer, AddedAt: now})
	})
}

// RemoveFromWhitelist drops buyer's whitelist entry if present.
func (e *Engine) RemoveFromWhitelist(ctx context.Context, caller, buyer solana.PublicKey) error {
	return e.exec(ctx, func(txn *ledger.Txn) error {
		info, err := e.load(txn)
		if err != nil {
			return err
		}
		if err := requireOwner(info, caller); err != nil {
			return err
		}
		address, err := solprogram.DeriveWhitelistPDA(e.deriver, buyer)
		if err != nil {
			return err
		}
		exists, err := txn.Exists(address)
		if err != nil || !exists {
			return err
		}
		return txn.CloseAccount(address, info.Owner)
	})
}

func (e *Engine) whitelisted(txn *ledger.Txn, buyer solana.PublicKey) (bool, error) {
	address, err := solprogram.DeriveWhitelistPDA(e.deriver, buyer)
	if err != nil {
		return false, err
	}
	return txn.Exists(address)
}

// IsWhitelisted reports whether buyer gets the discount.
func (e *Engine) IsWhitelisted(ctx context.Context, buyer solana.PublicKey) (bool, error) {
	return e.whitelisted(ledger.Begin(ctx, e.store), buyer)
}

// Info returns the current presale config.
func (e *Engine) Info(ctx context.Context) (*Info, error) {
	return e.load(ledger.Begin(ctx, e.store))
}

// Balances returns what the vaults hold.
func (e *Engine) Balances(ctx context.Context) (*Balances, error) {
	return e.balances(ledger.Begin(ctx, e.store))
}

// Snapshot reads the config and the vault balances in one transaction.
func (e *Engine) Snapshot(ctx context.Context) (*Info, *Balances, error) {
	txn := ledger.Begin(ctx, e.store)
	info, err := e.load(txn)
	if err != nil {
		return nil, nil, err
	}
	b, err := e.balances(txn)
	if err != nil {
		return nil, nil, err
	}
	return info, b, nil
}

func (e *Engine) balances(txn *ledger.Txn) (*Balances, error) {
	var (
		b   Balances
		err error
	)
	if b.TokenVault, err = txn.TokenBalance(e.addresses.TokenVault); err != nil {
		return nil, err
	}
	if b.PaymentVault, err = txn.TokenBalance(e.addresses.PaymentVault); err != nil {
		return nil, err
	}
	if b.NativeLamports, err = txn.Lamports(e.addresses.PaymentVault); err != nil {
		return nil, err
	}
	return &b, nil
}

// Restore writes info as the current config, creating the vaults when
// missing. Used to mirror an on-chain presale locally.
func (e *Engine) Restore(ctx context.Context, info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}
	err := e.exec(ctx, func(txn *ledger.Txn) error {
		if err := txn.EnsureTokenAccount(e.addresses.PaymentVault, info.PaymentMint, e.addresses.PresaleInfo); err != nil {
			return err
		}
		if err := txn.EnsureTokenAccount(e.addresses.TokenVault, info.SaleMint, e.addresses.PresaleInfo); err != nil {
			return err
		}
		return e.save(txn, info)
	})
	if err != nil {
		return err
	}
	metrics.SetPresaleStage(int64(info.Stage))
	return nil
}
