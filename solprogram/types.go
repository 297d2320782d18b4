package solprogram

import (
	"github.com/gagliardetto/solana-go"
)

// PreSaleDetails - presale_info account layout of the deployed program
type PreSaleDetails struct {
	Stage                         uint8
	Owner                         solana.PublicKey
	RoundOnePrice                 uint64
	RoundTwoPrice                 uint64
	RoundThreePrice               uint64
	RoundOneAllocationRemaining   uint64
	RoundTwoAllocationRemaining   uint64
	RoundThreeAllocationRemaining uint64
}

// Prices - per round prices in round order
func (p *PreSaleDetails) Prices() [3]uint64 {
	return [3]uint64{p.RoundOnePrice, p.RoundTwoPrice, p.RoundThreePrice}
}

// AllocationsRemaining - per round remaining allocation in round order
func (p *PreSaleDetails) AllocationsRemaining() [3]uint64 {
	return [3]uint64{p.RoundOneAllocationRemaining, p.RoundTwoAllocationRemaining, p.RoundThreeAllocationRemaining}
}

// OnChainStakeInfo - stake_info account layout of the deployed staking program
type OnChainStakeInfo struct {
	StakedStartTime     uint64
	LastClaimRewardTime uint64
	LockingPeriod       uint64
	StakedAmount        uint64
	IsStaked            bool
	PendingRewards      uint64
	APR                 uint64
}

// TokenAccount - leading fields of an SPL token account
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// AccountSnapshot - account read from RPC
type AccountSnapshot struct {
	Address  solana.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
	Owner    solana.PublicKey `json:"owner"`
	Data     []byte           `json:"-"`
}
