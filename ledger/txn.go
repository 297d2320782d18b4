package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"launchpad/solprogram"
)

// Txn buffers account writes over a Store. Nothing reaches the store
// until Commit, so a command that fails part way leaves no trace.
type Txn struct {
	ctx     context.Context
	store   Store
	writes  map[solana.PublicKey]*Account
	deletes map[solana.PublicKey]struct{}
	order   []solana.PublicKey
	closed  bool
}

// Begin opens a transaction on store.
func Begin(ctx context.Context, store Store) *Txn {
	return &Txn{
		ctx:     ctx,
		store:   store,
		writes:  make(map[solana.PublicKey]*Account),
		deletes: make(map[solana.PublicKey]struct{}),
	}
}

// Get returns a copy of the account as seen by this transaction.
func (t *Txn) Get(address solana.PublicKey) (*Account, error) {
	if _, ok := t.deletes[address]; ok {
		return nil, ErrAccountNotFound
	}
	if acc, ok := t.writes[address]; ok {
		return acc.clone(), nil
	}
	acc, err := t.store.Get(t.ctx, address)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	return acc, nil
}

// Exists reports whether address holds an account.
func (t *Txn) Exists(address solana.PublicKey) (bool, error) {
	_, err := t.Get(address)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Put stages acc.
func (t *Txn) Put(acc *Account) {
	delete(t.deletes, acc.Address)
	if _, ok := t.writes[acc.Address]; !ok {
		t.order = append(t.order, acc.Address)
	}
	t.writes[acc.Address] = acc.clone()
}

// Delete stages removal of address.
func (t *Txn) Delete(address solana.PublicKey) {
	delete(t.writes, address)
	t.deletes[address] = struct{}{}
}

// Commit applies every staged write in one Store.Apply call.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true

	puts := make([]*Account, 0, len(t.writes))
	for _, address := range t.order {
		if acc, ok := t.writes[address]; ok {
			puts = append(puts, acc)
		}
	}
	deletes := make([]solana.PublicKey, 0, len(t.deletes))
	for address := range t.deletes {
		deletes = append(deletes, address)
	}
	if len(puts) == 0 && len(deletes) == 0 {
		return nil
	}
	if err := t.store.Apply(t.ctx, puts, deletes); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Discard drops every staged write.
func (t *Txn) Discard() {
	t.closed = true
	t.writes = nil
	t.deletes = nil
	t.order = nil
}

// GetRecord decodes the program record at address into v.
func (t *Txn) GetRecord(address solana.PublicKey, disc [8]byte, name string, v interface{}) error {
	acc, err := t.Get(address)
	if err != nil {
		return err
	}
	return solprogram.DecodeAccount(acc.Data, disc, name, v)
}

// PutRecord encodes v as a program record owned by program, keeping existing lamports.
func (t *Txn) PutRecord(address, program solana.PublicKey, disc [8]byte, v interface{}) error {
	data, err := solprogram.EncodeAccount(disc, v)
	if err != nil {
		return err
	}
	acc, err := t.Get(address)
	if errors.Is(err, ErrAccountNotFound) {
		acc = &Account{Address: address}
	} else if err != nil {
		return err
	}
	acc.Owner = program
	acc.Data = data
	t.Put(acc)
	return nil
}
