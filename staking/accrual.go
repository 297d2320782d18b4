package staking

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// Reward is floor(staked * rate * dt).
func Reward(staked uint64, rate Rate, dt uint64) (uint64, error) {
	if err := rate.Validate(); err != nil {
		return 0, err
	}
	if staked == 0 || dt == 0 || rate.Numerator == 0 {
		return 0, nil
	}
	// staked*num fits in 128 bits, times dt in 192, so only the result can overflow u64
	product := new(uint256.Int).Mul(uint256.NewInt(staked), uint256.NewInt(rate.Numerator))
	z, overflow := new(uint256.Int).MulDivOverflow(product, uint256.NewInt(dt), uint256.NewInt(rate.Denominator))
	if overflow || !z.IsUint64() {
		return 0, fmt.Errorf("%w: reward for %d over %ds", ErrMathOverflow, staked, dt)
	}
	return z.Uint64(), nil
}

// Accrue folds the reward earned since the last update into PendingRewards
// and moves LastUpdateTimestamp to now. It does not touch any store.
func Accrue(info StakeInfo, rate Rate, now int64) (StakeInfo, error) {
	if now < info.LastUpdateTimestamp {
		return info, fmt.Errorf("%w: now %d, last update %d", ErrTimestampRegression, now, info.LastUpdateTimestamp)
	}
	earned, err := Reward(info.StakedAmount, rate, uint64(now-info.LastUpdateTimestamp))
	if err != nil {
		return info, err
	}
	pending, overflow := math.SafeAdd(info.PendingRewards, earned)
	if overflow {
		return info, fmt.Errorf("%w: pending rewards", ErrMathOverflow)
	}
	info.PendingRewards = pending
	info.LastUpdateTimestamp = now
	return info, nil
}
