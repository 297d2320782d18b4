package staking

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"launchpad/solprogram"
)

var stakeDisc = solprogram.AccountDiscriminator("StakeState")

// Rate is the reward per staked token unit per second, as the fraction
// Numerator/Denominator.
type Rate struct {
	Numerator   uint64 `json:"numerator" koanf:"numerator"`
	Denominator uint64 `json:"denominator" koanf:"denominator"`
}

// RateFromAPR expresses an annual percentage as a per-second rate, the
// scale the deployed program applies (apr / BASE / SECONDS_IN_A_YEAR).
func RateFromAPR(apr uint64) Rate {
	return Rate{Numerator: apr, Denominator: solprogram.APRBase * solprogram.SecondsInAYear}
}

func (r Rate) Validate() error {
	if r.Denominator == 0 {
		return fmt.Errorf("reward rate denominator must be positive")
	}
	return nil
}

// Config holds the engine settings.
type Config struct {
	RewardRate    Rate
	// LockingPeriod in seconds, applied from every stake. Zero disables locking.
	LockingPeriod uint64
}

func (c Config) Validate() error {
	if err := c.RewardRate.Validate(); err != nil {
		return err
	}
	if c.LockingPeriod > math.MaxInt64 {
		return fmt.Errorf("locking period %d exceeds int64", c.LockingPeriod)
	}
	return nil
}

// StakeInfo is the per depositor record at the stake_info PDA.
type StakeInfo struct {
	StakedAmount        uint64 `json:"staked_amount"`
	PendingRewards      uint64 `json:"pending_rewards"`
	LastUpdateTimestamp int64  `json:"last_update_timestamp"`
	StakeStartTimestamp int64  `json:"stake_start_timestamp"`
	// LockingPeriodEnd is the first time unstake is allowed. Zero means unlocked.
	LockingPeriodEnd    int64  `json:"locking_period_end"`
}

// Locked reports whether unstake is refused at now.
func (s StakeInfo) Locked(now int64) bool {
	return now < s.LockingPeriodEnd
}

// FromOnChain converts the deployed program's stake_info layout.
func FromOnChain(o *solprogram.OnChainStakeInfo) StakeInfo {
	info := StakeInfo{
		PendingRewards:      o.PendingRewards,
		LastUpdateTimestamp: int64(o.LastClaimRewardTime),
		StakeStartTimestamp: int64(o.StakedStartTime),
		// the deployed program stores the unlock time, not a duration
		LockingPeriodEnd:    int64(o.LockingPeriod),
	}
	if o.IsStaked {
		info.StakedAmount = o.StakedAmount
	}
	return info
}

// Payout - tokens sent back by unstake
type Payout struct {
	Principal uint64 `json:"principal"`
	Rewards   uint64 `json:"rewards"`
}

// Total returns principal plus rewards.
func (p Payout) Total() uint64 {
	return p.Principal + p.Rewards
}

// DepositorAddresses - accounts derived for one depositor
type DepositorAddresses struct {
	StakeInfo      solana.PublicKey `json:"stake_info"`
	StakeAccount   solana.PublicKey `json:"stake_account"`
	HoldingAccount solana.PublicKey `json:"holding_account"`
}
