package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"launchpad/solprogram"
)

// Token accounts use the leading SPL layout (mint, owner, amount) so the
// same parser reads local vaults and on-chain token accounts.

// GetTokenAccount decodes the token account at address.
func (t *Txn) GetTokenAccount(address solana.PublicKey) (*solprogram.TokenAccount, error) {
	acc, err := t.Get(address)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(solprogram.TokenProgramID) {
		return nil, fmt.Errorf("%s: %w", address, ErrNotTokenAccount)
	}
	return solprogram.ParseTokenAccount(acc.Data)
}

func (t *Txn) putTokenAccount(address solana.PublicKey, token *solprogram.TokenAccount) error {
	data, err := solprogram.EncodeTokenAccount(token)
	if err != nil {
		return err
	}
	acc, err := t.Get(address)
	if errors.Is(err, ErrAccountNotFound) {
		acc = &Account{Address: address}
	} else if err != nil {
		return err
	}
	acc.Owner = solprogram.TokenProgramID
	acc.Data = data
	t.Put(acc)
	return nil
}

// CreateTokenAccount opens an empty token account for mint controlled by authority.
func (t *Txn) CreateTokenAccount(address, mint, authority solana.PublicKey) error {
	exists, err := t.Exists(address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", address, ErrAccountExists)
	}
	return t.putTokenAccount(address, &solprogram.TokenAccount{Mint: mint, Owner: authority})
}

// EnsureTokenAccount creates the account if missing, otherwise checks mint and authority.
func (t *Txn) EnsureTokenAccount(address, mint, authority solana.PublicKey) error {
	token, err := t.GetTokenAccount(address)
	if errors.Is(err, ErrAccountNotFound) {
		return t.putTokenAccount(address, &solprogram.TokenAccount{Mint: mint, Owner: authority})
	}
	if err != nil {
		return err
	}
	if !token.Mint.Equals(mint) {
		return fmt.Errorf("%s: %w", address, ErrMintMismatch)
	}
	if !token.Owner.Equals(authority) {
		return fmt.Errorf("%s: %w", address, ErrOwnerMismatch)
	}
	return nil
}

// TokenBalance returns the amount held, zero for a missing account.
func (t *Txn) TokenBalance(address solana.PublicKey) (uint64, error) {
	token, err := t.GetTokenAccount(address)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return token.Amount, nil
}

// MintTo credits amount to an existing token account.
func (t *Txn) MintTo(address solana.PublicKey, amount uint64) error {
	token, err := t.GetTokenAccount(address)
	if err != nil {
		return err
	}
	sum, overflow := math.SafeAdd(token.Amount, amount)
	if overflow {
		return fmt.Errorf("%s: %w", address, ErrOverflow)
	}
	token.Amount = sum
	return t.putTokenAccount(address, token)
}

// SetTokenBalance creates the account if missing and overwrites its amount.
// It is used when mirroring balances read from a cluster.
func (t *Txn) SetTokenBalance(address, mint, authority solana.PublicKey, amount uint64) error {
	if err := t.EnsureTokenAccount(address, mint, authority); err != nil {
		return err
	}
	return t.putTokenAccount(address, &solprogram.TokenAccount{Mint: mint, Owner: authority, Amount: amount})
}

// Transfer moves amount between token accounts of the same mint.
// authority must own the source account.
func (t *Txn) Transfer(from, to, authority solana.PublicKey, amount uint64) error {
	src, err := t.GetTokenAccount(from)
	if err != nil {
		return err
	}
	dst, err := t.GetTokenAccount(to)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return fmt.Errorf("%s: %w", from, ErrOwnerMismatch)
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrMintMismatch)
	}
	if src.Amount < amount {
		return fmt.Errorf("%s holds %d, needs %d: %w", from, src.Amount, amount, ErrInsufficientFunds)
	}
	if from.Equals(to) {
		return nil
	}
	credited, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return fmt.Errorf("%s: %w", to, ErrOverflow)
	}
	src.Amount -= amount
	dst.Amount = credited
	if err := t.putTokenAccount(from, src); err != nil {
		return err
	}
	return t.putTokenAccount(to, dst)
}

// Burn destroys amount from a token account.
func (t *Txn) Burn(from, authority solana.PublicKey, amount uint64) error {
	src, err := t.GetTokenAccount(from)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return fmt.Errorf("%s: %w", from, ErrOwnerMismatch)
	}
	remaining, underflow := math.SafeSub(src.Amount, amount)
	if underflow {
		return fmt.Errorf("%s holds %d, burn %d: %w", from, src.Amount, amount, ErrInsufficientFunds)
	}
	src.Amount = remaining
	return t.putTokenAccount(from, src)
}

// CloseTokenAccount deletes an empty token account and sends its lamports to dest.
func (t *Txn) CloseTokenAccount(address, authority, dest solana.PublicKey) error {
	token, err := t.GetTokenAccount(address)
	if err != nil {
		return err
	}
	if !token.Owner.Equals(authority) {
		return fmt.Errorf("%s: %w", address, ErrOwnerMismatch)
	}
	if token.Amount != 0 {
		return fmt.Errorf("%s: %w", address, ErrNonZeroBalance)
	}
	return t.CloseAccount(address, dest)
}

// CloseAccount deletes address and sends its lamports to dest.
func (t *Txn) CloseAccount(address, dest solana.PublicKey) error {
	lamports, err := t.Lamports(address)
	if err != nil {
		return err
	}
	if lamports > 0 {
		if err := t.TransferLamports(address, dest, lamports); err != nil {
			return err
		}
	}
	t.Delete(address)
	return nil
}

// Lamports returns the native balance of address, zero when missing.
func (t *Txn) Lamports(address solana.PublicKey) (uint64, error) {
	acc, err := t.Get(address)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// TransferLamports moves native balance. A missing destination is created
// as a system account.
func (t *Txn) TransferLamports(from, to solana.PublicKey, amount uint64) error {
	src, err := t.Get(from)
	if errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("%s holds 0 lamports, needs %d: %w", from, amount, ErrInsufficientFunds)
	}
	if err != nil {
		return err
	}
	if src.Lamports < amount {
		return fmt.Errorf("%s holds %d lamports, needs %d: %w", from, src.Lamports, amount, ErrInsufficientFunds)
	}
	if from.Equals(to) {
		return nil
	}
	dst, err := t.Get(to)
	if errors.Is(err, ErrAccountNotFound) {
		dst = &Account{Address: to, Owner: solprogram.SystemProgramID}
	} else if err != nil {
		return err
	}
	credited, overflow := math.SafeAdd(dst.Lamports, amount)
	if overflow {
		return fmt.Errorf("%s: %w", to, ErrOverflow)
	}
	src.Lamports -= amount
	dst.Lamports = credited
	t.Put(src)
	t.Put(dst)
	return nil
}

// Airdrop credits lamports to address, creating a system account if needed.
func (t *Txn) Airdrop(address solana.PublicKey, amount uint64) error {
	acc, err := t.Get(address)
	if errors.Is(err, ErrAccountNotFound) {
		acc = &Account{Address: address, Owner: solprogram.SystemProgramID}
	} else if err != nil {
		return err
	}
	sum, overflow := math.SafeAdd(acc.Lamports, amount)
	if overflow {
		return fmt.Errorf("%s: %w", address, ErrOverflow)
	}
	acc.Lamports = sum
	t.Put(acc)
	return nil
}
