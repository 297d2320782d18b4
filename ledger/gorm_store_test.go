package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/solprogram"
)

func openTestDB(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func TestGormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)
	address := solana.NewWallet().PublicKey()

	_, err := store.Get(ctx, address)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	acc := &Account{Address: address, Lamports: 99, Owner: solprogram.TokenProgramID, Data: []byte{1, 2, 3}}
	require.NoError(t, store.Apply(ctx, []*Account{acc}, nil))
	got, err := store.Get(ctx, address)
	require.NoError(t, err)
	assert.True(t, acc.Equal(got))

	acc.Lamports = 100
	require.NoError(t, store.Apply(ctx, []*Account{acc}, nil))
	got, err = store.Get(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Lamports)

	require.NoError(t, store.Apply(ctx, nil, []solana.PublicKey{address}))
	_, err = store.Get(ctx, address)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// token scenario applied to both stores must leave the same accounts
func TestGormStoreMatchesMemory(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	aAta := solana.NewWallet().PublicKey()
	bAta := solana.NewWallet().PublicKey()

	scenario := []func(txn *Txn) error{
		func(txn *Txn) error { return txn.CreateTokenAccount(aAta, mint, alice) },
		func(txn *Txn) error { return txn.MintTo(aAta, 1_000) },
		func(txn *Txn) error { return txn.EnsureTokenAccount(bAta, mint, bob) },
		func(txn *Txn) error { return txn.Transfer(aAta, bAta, alice, 250) },
		func(txn *Txn) error { return txn.Transfer(aAta, bAta, alice, 5_000) },
		func(txn *Txn) error { return txn.Airdrop(alice, 10) },
		func(txn *Txn) error { return txn.Burn(bAta, bob, 50) },
		func(txn *Txn) error { return txn.TransferLamports(alice, bob, 4) },
	}

	memory := NewMemoryStore()
	gormStore := openTestDB(t)
	for i, step := range scenario {
		var errs [2]error
		for j, store := range []Store{memory, gormStore} {
			txn := Begin(ctx, store)
			if errs[j] = step(txn); errs[j] != nil {
				txn.Discard()
				continue
			}
			require.NoError(t, txn.Commit())
		}
		assert.Equal(t, errs[0] == nil, errs[1] == nil, "step %d", i)
	}

	for _, want := range memory.Accounts() {
		got, err := gormStore.Get(ctx, want.Address)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "account %s", want.Address)
	}
	for _, address := range []solana.PublicKey{aAta, bAta} {
		token, err := Begin(ctx, gormStore).GetTokenAccount(address)
		require.NoError(t, err)
		mem, err := Begin(ctx, memory).GetTokenAccount(address)
		require.NoError(t, err)
		assert.Equal(t, mem.Amount, token.Amount)
	}
}
