package solprogram

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// getDiscriminator returns the anchor 8 byte prefix of "namespace:name"
func getDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte(name))
	var disc [8]byte
	copy(disc[:], hash[:8])
	return disc
}

// InstructionDiscriminator - sha256("global:<name>")[:8]
func InstructionDiscriminator(name string) [8]byte {
	return getDiscriminator("global:" + name)
}

// AccountDiscriminator - sha256("account:<Name>")[:8]
func AccountDiscriminator(name string) [8]byte {
	return getDiscriminator("account:" + name)
}

var (
	InitializePresaleDisc = InstructionDiscriminator("initialize")
	StartNextRoundDisc    = InstructionDiscriminator("start_next_round")
	BuyTokensDisc         = InstructionDiscriminator("buy_tokens")
	WithdrawUSDCDisc      = InstructionDiscriminator("withdraw_usdc")

	InitializeStakingDisc = InstructionDiscriminator("initialize")
	StakeDisc             = InstructionDiscriminator("stake")
	ClaimRewardDisc       = InstructionDiscriminator("claim_reward")
	UnstakeDisc           = InstructionDiscriminator("unstake")

	PreSaleDetailsAccountDisc = AccountDiscriminator("PreSaleDetails")
	StakeInfoAccountDisc      = AccountDiscriminator("StakeInfo")
)

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// instructionData - discriminator followed by little endian args
func instructionData(disc [8]byte, args ...[]byte) []byte {
	data := make([]byte, 0, 8+8*len(args))
	data = append(data, disc[:]...)
	for _, arg := range args {
		data = append(data, arg...)
	}
	return data
}

// PresaleAccounts - addresses shared by every presale instruction
type PresaleAccounts struct {
	ProgramID    solana.PublicKey
	PresaleInfo  solana.PublicKey
	PaymentVault solana.PublicKey
	TokenVault   solana.PublicKey
	PaymentMint  solana.PublicKey
	SaleMint     solana.PublicKey
}

// NewPresaleAccounts derives presale PDAs under programID.
func NewPresaleAccounts(programID, paymentMint, saleMint solana.PublicKey) (*PresaleAccounts, error) {
	d := NewDeriver(programID)
	info, err := DerivePresaleInfoPDA(d)
	if err != nil {
		return nil, err
	}
	paymentVault, err := DerivePaymentVaultPDA(d)
	if err != nil {
		return nil, err
	}
	tokenVault, err := DeriveTokenVaultPDA(d)
	if err != nil {
		return nil, err
	}
	return &PresaleAccounts{
		ProgramID:    programID,
		PresaleInfo:  info,
		PaymentVault: paymentVault,
		TokenVault:   tokenVault,
		PaymentMint:  paymentMint,
		SaleMint:     saleMint,
	}, nil
}

// BuildInitializePresaleInstruction builds initialize(allocations[3], prices[3])
func (a *PresaleAccounts) BuildInitializePresaleInstruction(
	admin solana.PublicKey,
	allocations [3]uint64,
	prices [3]uint64,
) (solana.Instruction, error) {
	for i := 0; i < 3; i++ {
		if prices[i] == 0 {
			return nil, fmt.Errorf("round %d price is zero", i+1)
		}
		if allocations[i] == 0 {
			return nil, fmt.Errorf("round %d allocation is zero", i+1)
		}
	}
	depositor, err := GetAssociatedTokenAddress(admin, a.SaleMint)
	if err != nil {
		return nil, err
	}

	data := instructionData(InitializePresaleDisc,
		uint64ToBytes(allocations[0]),
		uint64ToBytes(allocations[1]),
		uint64ToBytes(allocations[2]),
		uint64ToBytes(prices[0]),
		uint64ToBytes(prices[1]),
		uint64ToBytes(prices[2]),
	)

	return solana.NewInstruction(
		a.ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(a.PresaleInfo).WRITE(),
			solana.Meta(a.PaymentVault).WRITE(),
			solana.Meta(a.TokenVault).WRITE(),
			solana.Meta(a.PaymentMint),
			solana.Meta(a.SaleMint),
			solana.Meta(depositor).WRITE(),
			solana.Meta(admin).WRITE().SIGNER(),
			solana.Meta(SystemProgramID),
			solana.Meta(TokenProgramID),
		},
		data,
	), nil
}

// BuildStartNextRoundInstruction builds start_next_round
func (a *PresaleAccounts) BuildStartNextRoundInstruction(admin solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		a.ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(a.PresaleInfo).WRITE(),
			solana.Meta(a.TokenVault).WRITE(),
			solana.Meta(a.SaleMint).WRITE(),
			solana.Meta(admin).WRITE().SIGNER(),
			solana.Meta(TokenProgramID),
		},
		StartNextRoundDisc[:],
	)
}

// BuildBuyTokensInstruction builds buy_tokens(input_amount, is_native)
func (a *PresaleAccounts) BuildBuyTokensInstruction(
	buyer solana.PublicKey,
	inputAmount uint64,
	isNative bool,
) (solana.Instruction, error) {
	if inputAmount == 0 {
		return nil, fmt.Errorf("input amount is zero")
	}
	walletToDepositTo, err := GetAssociatedTokenAddress(buyer, a.SaleMint)
	if err != nil {
		return nil, err
	}
	buyerPaymentAccount, err := GetAssociatedTokenAddress(buyer, a.PaymentMint)
	if err != nil {
		return nil, err
	}

	native := []byte{0}
	if isNative {
		native[0] = 1
	}
	data := instructionData(BuyTokensDisc, uint64ToBytes(inputAmount), native)

	return solana.NewInstruction(
		a.ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(a.PresaleInfo).WRITE(),
			solana.Meta(a.PaymentVault).WRITE(),
			solana.Meta(a.TokenVault).WRITE(),
			solana.Meta(walletToDepositTo).WRITE(),
			solana.Meta(buyerPaymentAccount).WRITE(),
			solana.Meta(buyer).WRITE().SIGNER(),
			solana.Meta(a.PaymentMint),
			solana.Meta(a.SaleMint),
			solana.Meta(SystemProgramID),
			solana.Meta(TokenProgramID),
			solana.Meta(AssociatedTokenProgID),
		},
		data,
	), nil
}

// BuildWithdrawUSDCInstruction builds withdraw_usdc
func (a *PresaleAccounts) BuildWithdrawUSDCInstruction(admin solana.PublicKey) (solana.Instruction, error) {
	paymentWallet, err := GetAssociatedTokenAddress(admin, a.PaymentMint)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		a.ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(a.PresaleInfo).WRITE(),
			solana.Meta(a.PaymentVault).WRITE(),
			solana.Meta(admin).WRITE().SIGNER(),
			solana.Meta(a.PaymentMint).WRITE(),
			solana.Meta(paymentWallet).WRITE(),
			solana.Meta(TokenProgramID),
		},
		WithdrawUSDCDisc[:],
	), nil
}

// StakingAccounts - addresses shared by staking instructions
type StakingAccounts struct {
	ProgramID   solana.PublicKey
	RewardVault solana.PublicKey
	Mint        solana.PublicKey
	deriver     Deriver
}

// NewStakingAccounts derives the reward vault under programID.
func NewStakingAccounts(programID, mint solana.PublicKey) (*StakingAccounts, error) {
	d := NewDeriver(programID)
	vault, err := DeriveRewardVaultPDA(d)
	if err != nil {
		return nil, err
	}
	return &StakingAccounts{ProgramID: programID, RewardVault: vault, Mint: mint, deriver: d}, nil
}

// BuildInitializeStakingInstruction builds initialize
func (a *StakingAccounts) BuildInitializeStakingInstruction(signer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		a.ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(signer).WRITE().SIGNER(),
			solana.Meta(a.RewardVault).WRITE(),
			solana.Meta(a.Mint),
			solana.Meta(TokenProgramID),
			solana.Meta(SystemProgramID),
		},
		InitializeStakingDisc[:],
	)
}

// depositorMetas - signer, stake_info, stake_account, user_token_account, mint and programs
func (a *StakingAccounts) depositorMetas(signer solana.PublicKey, withVault bool) (solana.AccountMetaSlice, error) {
	stakeInfo, err := DeriveStakeInfoPDA(a.deriver, signer)
	if err != nil {
		return nil, err
	}
	stakeAccount, err := DeriveStakeAccountPDA(a.deriver, signer)
	if err != nil {
		return nil, err
	}
	userTokenAccount, err := GetAssociatedTokenAddress(signer, a.Mint)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{solana.Meta(signer).WRITE().SIGNER()}
	if withVault {
		metas = append(metas, solana.Meta(a.RewardVault).WRITE())
	}
	metas = append(metas,
		solana.Meta(stakeInfo).WRITE(),
		solana.Meta(stakeAccount).WRITE(),
		solana.Meta(userTokenAccount).WRITE(),
		solana.Meta(a.Mint),
		solana.Meta(TokenProgramID),
		solana.Meta(AssociatedTokenProgID),
		solana.Meta(SystemProgramID),
	)
	return metas, nil
}

// BuildStakeInstruction builds stake(amount, locking_period_choice)
func (a *StakingAccounts) BuildStakeInstruction(signer solana.PublicKey, amount uint64, lockingPeriodChoice uint8) (solana.Instruction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("stake amount is zero")
	}
	metas, err := a.depositorMetas(signer, false)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		a.ProgramID,
		metas,
		instructionData(StakeDisc, uint64ToBytes(amount), []byte{lockingPeriodChoice}),
	), nil
}

// BuildClaimRewardInstruction builds claim_reward
func (a *StakingAccounts) BuildClaimRewardInstruction(signer solana.PublicKey) (solana.Instruction, error) {
	metas, err := a.depositorMetas(signer, true)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(a.ProgramID, metas, ClaimRewardDisc[:]), nil
}

// BuildUnstakeInstruction builds unstake(amount_to_unstake)
func (a *StakingAccounts) BuildUnstakeInstruction(signer solana.PublicKey, amount uint64) (solana.Instruction, error) {
	metas, err := a.depositorMetas(signer, true)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		a.ProgramID,
		metas,
		instructionData(UnstakeDisc, uint64ToBytes(amount)),
	), nil
}
