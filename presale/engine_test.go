package presale

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/ledger"
	"launchpad/solprogram"
)

var (
	testAllocations = [Rounds]uint64{1_000_000_000_000, 2_000_000_000_000, 3_000_000_000_000}
	testPrices      = [Rounds]uint64{1_000_000_000, 2_000_000_000, 3_000_000_000}
)

type fixture struct {
	ctx         context.Context
	store       *ledger.MemoryStore
	engine      *Engine
	owner       solana.PublicKey
	paymentMint solana.PublicKey
	saleMint    solana.PublicKey
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := ledger.NewMemoryStore()
	deriver := solprogram.NewDeriver(solana.MustPublicKeyFromBase58(solprogram.PresaleProgramID))
	engine, err := NewEngine(store, deriver, cfg)
	require.NoError(t, err)
	return &fixture{
		ctx:         context.Background(),
		store:       store,
		engine:      engine,
		owner:       solana.NewWallet().PublicKey(),
		paymentMint: solana.NewWallet().PublicKey(),
		saleMint:    solana.NewWallet().PublicKey(),
	}
}

func (f *fixture) mint(t *testing.T, wallet, mint solana.PublicKey, amount uint64) {
	t.Helper()
	txn := ledger.Begin(f.ctx, f.store)
	ata, err := solprogram.GetAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	require.NoError(t, txn.EnsureTokenAccount(ata, mint, wallet))
	require.NoError(t, txn.MintTo(ata, amount))
	require.NoError(t, txn.Commit())
}

func (f *fixture) airdrop(t *testing.T, wallet solana.PublicKey, lamports uint64) {
	t.Helper()
	txn := ledger.Begin(f.ctx, f.store)
	require.NoError(t, txn.Airdrop(wallet, lamports))
	require.NoError(t, txn.Commit())
}

func (f *fixture) balance(t *testing.T, wallet, mint solana.PublicKey) uint64 {
	t.Helper()
	ata, err := solprogram.GetAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	return f.tokenBalance(t, ata)
}

func (f *fixture) tokenBalance(t *testing.T, address solana.PublicKey) uint64 {
	t.Helper()
	amount, err := ledger.Begin(f.ctx, f.store).TokenBalance(address)
	require.NoError(t, err)
	return amount
}

func (f *fixture) lamports(t *testing.T, address solana.PublicKey) uint64 {
	t.Helper()
	amount, err := ledger.Begin(f.ctx, f.store).Lamports(address)
	require.NoError(t, err)
	return amount
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()
	_, err := f.engine.Initialize(f.ctx, f.owner, InitializeParams{
		Allocations: testAllocations,
		Prices:      testPrices,
		PaymentMint: f.paymentMint,
		SaleMint:    f.saleMint,
	})
	require.NoError(t, err)
}

// open initializes, funds the owner with every allocation and enters round one.
func (f *fixture) open(t *testing.T) {
	t.Helper()
	f.mint(t, f.owner, f.saleMint, 6_000_000_000_000)
	f.initialize(t)
	stage, err := f.engine.StartNextRound(f.ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, RoundOne, stage)
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.initialize(t)

	info, err := f.engine.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, NotStarted, info.Stage)
	assert.Equal(t, f.owner, info.Owner)
	assert.Equal(t, testPrices, info.Prices)
	assert.Equal(t, testAllocations, info.AllocationRemaining)
	assert.Equal(t, testAllocations, info.AllocationInitial)

	balances, err := f.engine.Balances(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, Balances{}, *balances)

	_, err = f.engine.Initialize(f.ctx, f.owner, InitializeParams{
		Allocations: testAllocations,
		Prices:      testPrices,
		PaymentMint: f.paymentMint,
		SaleMint:    f.saleMint,
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeValidation(t *testing.T) {
	tests := []struct {
		name        string
		allocations [Rounds]uint64
		prices      [Rounds]uint64
		want        error
	}{
		{"zero price", testAllocations, [Rounds]uint64{1, 0, 3}, ErrPriceCantBeZero},
		{"zero supply", [Rounds]uint64{1, 2, 0}, testPrices, ErrSupplyCantBeZero},
		{"both zero reports price", [Rounds]uint64{0, 0, 0}, [Rounds]uint64{0, 0, 0}, ErrPriceCantBeZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			_, err := f.engine.Initialize(f.ctx, f.owner, InitializeParams{
				Allocations: tt.allocations,
				Prices:      tt.prices,
				PaymentMint: f.paymentMint,
				SaleMint:    f.saleMint,
			})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.store.Accounts())
		})
	}
}

func TestCommandsBeforeInitialize(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := f.engine.StartNextRound(f.ctx, f.owner)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.BuyTokens(f.ctx, f.owner, 1, false)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.WithdrawUsdc(f.ctx, f.owner)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEndToEndRounds(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.mint(t, f.owner, f.saleMint, 7_000_000_000_000)
	f.initialize(t)
	vault := f.engine.Addresses().TokenVault

	stage, err := f.engine.StartNextRound(f.ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, RoundOne, stage)
	assert.Equal(t, uint64(1_000_000_000_000), f.tokenBalance(t, vault))

	moved, err := f.engine.FundVault(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000_000), moved)
	assert.Equal(t, uint64(1_000_000_000_000), f.balance(t, f.owner, f.saleMint))
	assert.Equal(t, uint64(6_000_000_000_000), f.tokenBalance(t, vault))

	for _, want := range []Stage{RoundTwo, RoundThree, Ended} {
		stage, err := f.engine.StartNextRound(f.ctx, f.owner)
		require.NoError(t, err)
		assert.Equal(t, want, stage)
		assert.Equal(t, uint64(6_000_000_000_000), f.tokenBalance(t, vault))
	}

	_, err = f.engine.StartNextRound(f.ctx, f.owner)
	assert.ErrorIs(t, err, ErrPresaleEnded)
}

func TestStartNextRoundRequiresOwner(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.initialize(t)

	_, err := f.engine.StartNextRound(f.ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, ErrUnauthorizedAdmin)
	info, err := f.engine.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, NotStarted, info.Stage)
}

func TestStartNextRoundUnfundedOwner(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.initialize(t)
	before := f.store.Accounts()

	_, err := f.engine.StartNextRound(f.ctx, f.owner)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, before, f.store.Accounts())
}

func TestBuyTokens(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 100_000_000_000)
	addrs := f.engine.Addresses()
	vaultBefore := f.tokenBalance(t, addrs.TokenVault)

	purchase, err := f.engine.BuyTokens(f.ctx, buyer, 10_500_000_000, false)
	require.NoError(t, err)
	assert.Equal(t, 1, purchase.Round)
	assert.Equal(t, uint64(10), purchase.TokensOut)
	assert.LessOrEqual(t, purchase.TokensOut*testPrices[0], purchase.InputAmount)

	// buyer debit equals payment vault credit
	assert.Equal(t, uint64(100_000_000_000-10_500_000_000), f.balance(t, buyer, f.paymentMint))
	assert.Equal(t, uint64(10_500_000_000), f.tokenBalance(t, addrs.PaymentVault))
	// token vault debit equals buyer credit
	assert.Equal(t, uint64(10), f.balance(t, buyer, f.saleMint))
	assert.Equal(t, vaultBefore-10, f.tokenBalance(t, addrs.TokenVault))

	info, err := f.engine.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, testAllocations[0]-10, info.AllocationRemaining[0])
	assert.Equal(t, testAllocations[1], info.AllocationRemaining[1])
}

func TestBuyTokensStageErrors(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.mint(t, f.owner, f.saleMint, 6_000_000_000_000)
	f.initialize(t)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 10_000_000_000)

	_, err := f.engine.BuyTokens(f.ctx, buyer, 1_000_000_000, false)
	assert.ErrorIs(t, err, ErrPresaleNotStartedYet)

	for i := 0; i < 4; i++ {
		_, err := f.engine.StartNextRound(f.ctx, f.owner)
		require.NoError(t, err)
	}
	_, err = f.engine.BuyTokens(f.ctx, buyer, 1_000_000_000, false)
	assert.ErrorIs(t, err, ErrPresaleEnded)
}

func TestBuyTokensRejectsWithoutChange(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 5_000_000_000)

	tests := []struct {
		name  string
		input uint64
		want  error
	}{
		{"zero", 0, ErrZeroAmount},
		{"below price", 999_999_999, ErrPurchaseTooSmall},
		{"more than the wallet holds", 6_000_000_000, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Accounts()
			_, err := f.engine.BuyTokens(f.ctx, buyer, tt.input, false)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, f.store.Accounts())
		})
	}
}

func TestBuyTokensNoPartialFill(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.mint(t, f.owner, f.saleMint, 60)
	_, err := f.engine.Initialize(f.ctx, f.owner, InitializeParams{
		Allocations: [Rounds]uint64{10, 20, 30},
		Prices:      [Rounds]uint64{1, 2, 3},
		PaymentMint: f.paymentMint,
		SaleMint:    f.saleMint,
	})
	require.NoError(t, err)
	_, err = f.engine.StartNextRound(f.ctx, f.owner)
	require.NoError(t, err)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 100)

	before := f.store.Accounts()
	_, err = f.engine.BuyTokens(f.ctx, buyer, 11, false)
	assert.ErrorIs(t, err, ErrInsufficientAllocation)
	assert.Equal(t, before, f.store.Accounts())

	purchase, err := f.engine.BuyTokens(f.ctx, buyer, 10, false)
	require.NoError(t, err)
	assert.Zero(t, purchase.RemainingLeft)

	_, err = f.engine.BuyTokens(f.ctx, buyer, 1, false)
	assert.ErrorIs(t, err, ErrInsufficientAllocation)
	assert.Equal(t, uint64(90), f.balance(t, buyer, f.paymentMint))
}

func TestBuyTokensNative(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	buyer := solana.NewWallet().PublicKey()
	f.airdrop(t, buyer, 2*solprogram.LamportsPerSOL)

	purchase, err := f.engine.BuyTokens(f.ctx, buyer, solprogram.LamportsPerSOL, true)
	require.NoError(t, err)
	assert.True(t, purchase.Native)
	assert.Equal(t, uint64(solprogram.DefaultNativePrice), purchase.PaymentValue)
	assert.Equal(t, uint64(168), purchase.TokensOut)
	assert.Equal(t, uint64(solprogram.LamportsPerSOL), f.lamports(t, buyer))
	assert.Equal(t, uint64(solprogram.LamportsPerSOL), f.lamports(t, f.engine.Addresses().PaymentVault))
	assert.Equal(t, uint64(168), f.balance(t, buyer, f.saleMint))
}

func TestWhitelistDiscount(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 100_000_000_000)

	assert.ErrorIs(t, f.engine.SetDiscount(f.ctx, buyer, 100), ErrUnauthorizedAdmin)
	assert.ErrorIs(t, f.engine.SetDiscount(f.ctx, f.owner, solprogram.DiscountBase+1), ErrInvalidDiscount)
	require.NoError(t, f.engine.SetDiscount(f.ctx, f.owner, 100))
	require.NoError(t, f.engine.AddToWhitelist(f.ctx, f.owner, buyer, 1_700_000_000))
	require.NoError(t, f.engine.AddToWhitelist(f.ctx, f.owner, buyer, 1_700_000_001))

	ok, err := f.engine.IsWhitelisted(f.ctx, buyer)
	require.NoError(t, err)
	assert.True(t, ok)

	purchase, err := f.engine.BuyTokens(f.ctx, buyer, 9_000_000_000, false)
	require.NoError(t, err)
	assert.True(t, purchase.Discounted)
	assert.Equal(t, uint64(900_000_000), purchase.Price)
	assert.Equal(t, uint64(10), purchase.TokensOut)

	require.NoError(t, f.engine.RemoveFromWhitelist(f.ctx, f.owner, buyer))
	ok, err = f.engine.IsWhitelisted(f.ctx, buyer)
	require.NoError(t, err)
	assert.False(t, ok)

	purchase, err = f.engine.BuyTokens(f.ctx, buyer, 9_000_000_000, false)
	require.NoError(t, err)
	assert.False(t, purchase.Discounted)
	assert.Equal(t, uint64(9), purchase.TokensOut)
}

func TestWithdrawUsdc(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 20_000_000_000)
	f.airdrop(t, buyer, solprogram.LamportsPerSOL)

	_, err := f.engine.BuyTokens(f.ctx, buyer, 20_000_000_000, false)
	require.NoError(t, err)
	_, err = f.engine.BuyTokens(f.ctx, buyer, solprogram.LamportsPerSOL/2, true)
	require.NoError(t, err)

	_, err = f.engine.WithdrawUsdc(f.ctx, buyer)
	assert.ErrorIs(t, err, ErrUnauthorizedAdmin)

	out, err := f.engine.WithdrawUsdc(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000_000_000), out.Tokens)
	assert.Equal(t, uint64(solprogram.LamportsPerSOL/2), out.Lamports)
	assert.Equal(t, uint64(20_000_000_000), f.balance(t, f.owner, f.paymentMint))
	assert.Equal(t, uint64(solprogram.LamportsPerSOL/2), f.lamports(t, f.owner))

	balances, err := f.engine.Balances(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, balances.PaymentVault)
	assert.Zero(t, balances.NativeLamports)
}

func TestBurnUnsold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BurnUnsold = true
	f := newFixture(t, cfg)
	f.open(t)
	vault := f.engine.Addresses().TokenVault
	require.Equal(t, testAllocations[0], f.tokenBalance(t, vault))

	stage, err := f.engine.StartNextRound(f.ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, RoundTwo, stage)

	info, err := f.engine.Info(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, info.AllocationRemaining[0])
	assert.Equal(t, testAllocations[1], f.tokenBalance(t, vault))
}

func TestChangeOwner(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.initialize(t)
	next := solana.NewWallet().PublicKey()

	assert.ErrorIs(t, f.engine.ChangeOwner(f.ctx, next, next), ErrUnauthorizedAdmin)
	require.NoError(t, f.engine.ChangeOwner(f.ctx, f.owner, next))

	_, err := f.engine.StartNextRound(f.ctx, f.owner)
	assert.ErrorIs(t, err, ErrUnauthorizedAdmin)
}

func TestRestoreFromDetails(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	details := &solprogram.PreSaleDetails{
		Stage:                         2,
		Owner:                         f.owner,
		RoundOnePrice:                 1,
		RoundTwoPrice:                 2,
		RoundThreePrice:               3,
		RoundOneAllocationRemaining:   0,
		RoundTwoAllocationRemaining:   50,
		RoundThreeAllocationRemaining: 300,
	}
	info, err := FromDetails(details, f.paymentMint, f.saleMint)
	require.NoError(t, err)
	require.NoError(t, f.engine.Restore(f.ctx, info))

	got, err := f.engine.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, RoundTwo, got.Stage)
	assert.Equal(t, details, got.Details())

	details.Stage = 9
	_, err = FromDetails(details, f.paymentMint, f.saleMint)
	assert.ErrorIs(t, err, ErrStageInvalid)
}

func TestFundVaultSkipsClosedRounds(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	vault := f.engine.Addresses().TokenVault

	stage, err := f.engine.StartNextRound(f.ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, RoundTwo, stage)
	// round one's unsold tokens covered part of round two
	assert.Equal(t, testAllocations[1], f.tokenBalance(t, vault))

	moved, err := f.engine.FundVault(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, testAllocations[2], moved)
	assert.Equal(t, testAllocations[1]+testAllocations[2], f.tokenBalance(t, vault))
	assert.Equal(t, testAllocations[0], f.balance(t, f.owner, f.saleMint))

	moved, err = f.engine.FundVault(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestEndedClosesEmptyVaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BurnUnsold = true
	f := newFixture(t, cfg)
	f.open(t)
	addrs := f.engine.Addresses()
	buyer := solana.NewWallet().PublicKey()
	f.mint(t, buyer, f.paymentMint, 10_000_000_000)
	_, err := f.engine.BuyTokens(f.ctx, buyer, 10_000_000_000, false)
	require.NoError(t, err)

	for _, want := range []Stage{RoundTwo, RoundThree, Ended} {
		stage, err := f.engine.StartNextRound(f.ctx, f.owner)
		require.NoError(t, err)
		require.Equal(t, want, stage)
	}
	_, err = f.store.Get(f.ctx, addrs.TokenVault)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	out, err := f.engine.WithdrawUsdc(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000), out.Tokens)
	assert.True(t, out.VaultClosed)
	_, err = f.store.Get(f.ctx, addrs.PaymentVault)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	// nothing left, nothing to close
	out, err = f.engine.WithdrawUsdc(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, Withdrawal{}, *out)

	balances, err := f.engine.Balances(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, Balances{}, *balances)
}

func TestEndedKeepsFundedVault(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.open(t)
	for i := 0; i < 3; i++ {
		_, err := f.engine.StartNextRound(f.ctx, f.owner)
		require.NoError(t, err)
	}
	assert.Equal(t, testAllocations[2], f.tokenBalance(t, f.engine.Addresses().TokenVault))

	// withdrawing before the end leaves the payment vault open
	g := newFixture(t, DefaultConfig())
	g.open(t)
	out, err := g.engine.WithdrawUsdc(g.ctx, g.owner)
	require.NoError(t, err)
	assert.False(t, out.VaultClosed)
	_, err = g.store.Get(g.ctx, g.engine.Addresses().PaymentVault)
	assert.NoError(t, err)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	_, _, err := f.engine.Snapshot(f.ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	f.open(t)
	info, balances, err := f.engine.Snapshot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, RoundOne, info.Stage)
	assert.Equal(t, testAllocations[0], balances.TokenVault)
}
