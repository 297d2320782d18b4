package ledger

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintMismatch      = errors.New("token account mint mismatch")
	ErrOwnerMismatch     = errors.New("token account owner mismatch")
	ErrNotTokenAccount   = errors.New("account is not a token account")
	ErrNonZeroBalance    = errors.New("account still holds tokens")
	ErrOverflow          = errors.New("balance overflow")
	ErrTxnClosed         = errors.New("transaction already committed or discarded")
)

// Account mirrors a ledger account: lamports, owning program and raw data.
type Account struct {
	Address  solana.PublicKey
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

func (a *Account) clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// Equal reports whether both accounts hold the same state.
func (a *Account) Equal(b *Account) bool {
	return a.Address.Equals(b.Address) &&
		a.Lamports == b.Lamports &&
		a.Owner.Equals(b.Owner) &&
		bytes.Equal(a.Data, b.Data)
}

// Store is a key-value account map keyed by address.
// Apply must write all puts and deletes or none of them.
type Store interface {
	Get(ctx context.Context, address solana.PublicKey) (*Account, error)
	Apply(ctx context.Context, puts []*Account, deletes []solana.PublicKey) error
}

// MemoryStore keeps accounts in a map.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[solana.PublicKey]*Account)}
}

func (m *MemoryStore) Get(_ context.Context, address solana.PublicKey) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[address]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc.clone(), nil
}

func (m *MemoryStore) Apply(_ context.Context, puts []*Account, deletes []solana.PublicKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range puts {
		m.accounts[acc.Address] = acc.clone()
	}
	for _, address := range deletes {
		delete(m.accounts, address)
	}
	return nil
}

// Accounts returns a copy of every account ordered by address.
func (m *MemoryStore) Accounts() []*Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		out = append(out, acc.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
