package solprogram

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Deriver computes program derived addresses for one program.
type Deriver interface {
	ProgramID() solana.PublicKey
	FindProgramAddress(seeds [][]byte) (solana.PublicKey, uint8, error)
}

// ProgramDeriver derives addresses exactly like the on-chain runtime.
type ProgramDeriver struct {
	programID solana.PublicKey
}

// NewProgramDeriver - parse program id and build deriver
func NewProgramDeriver(programID string) (*ProgramDeriver, error) {
	pk, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}
	return NewDeriver(pk), nil
}

// NewDeriver - deriver for an already parsed program id
func NewDeriver(programID solana.PublicKey) *ProgramDeriver {
	return &ProgramDeriver{programID: programID}
}

func (d *ProgramDeriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *ProgramDeriver) FindProgramAddress(seeds [][]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, d.programID)
}

// Derive returns the address for seed plus optional index seeds.
func Derive(d Deriver, seed []byte, index ...[]byte) (solana.PublicKey, error) {
	seeds := append([][]byte{seed}, index...)
	pda, _, err := d.FindProgramAddress(seeds)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive %s PDA: %w", seed, err)
	}
	return pda, nil
}

// DerivePresaleInfoPDA - presale config singleton
func DerivePresaleInfoPDA(d Deriver) (solana.PublicKey, error) {
	return Derive(d, SeedPresaleInfo)
}

// DerivePaymentVaultPDA - vault holding the payment token (and native lamports)
func DerivePaymentVaultPDA(d Deriver) (solana.PublicKey, error) {
	return Derive(d, SeedPaymentVault)
}

// DeriveTokenVaultPDA - vault holding the sale token
func DeriveTokenVaultPDA(d Deriver) (solana.PublicKey, error) {
	return Derive(d, SeedTokenVault)
}

// DeriveWhitelistPDA - whitelist entry of a buyer
func DeriveWhitelistPDA(d Deriver, buyer solana.PublicKey) (solana.PublicKey, error) {
	return Derive(d, SeedWhitelist, buyer.Bytes())
}

// DeriveRewardVaultPDA - staking reward pool
func DeriveRewardVaultPDA(d Deriver) (solana.PublicKey, error) {
	return Derive(d, SeedRewardVault)
}

// DeriveStakeInfoPDA - per depositor stake record
func DeriveStakeInfoPDA(d Deriver, depositor solana.PublicKey) (solana.PublicKey, error) {
	return Derive(d, SeedStakeInfo, depositor.Bytes())
}

// DeriveStakeAccountPDA - per depositor custody of staked tokens
func DeriveStakeAccountPDA(d Deriver, depositor solana.PublicKey) (solana.PublicKey, error) {
	return Derive(d, SeedStakeAccount, depositor.Bytes())
}

// GetAssociatedTokenAddress - Derive Associated Token Account address for a wallet and mint
func GetAssociatedTokenAddress(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet.Bytes(),
			TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		AssociatedTokenProgID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return ata, nil
}
