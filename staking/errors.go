package staking

import "launchpad/solprogram"

var (
	ErrNotStaked                = solprogram.StakingErrors[6000]
	ErrZeroAmount               = solprogram.StakingErrors[6001]
	ErrLockingPeriodNotOverYet  = solprogram.StakingErrors[6002]
	ErrAlreadyInitialized       = solprogram.StakingErrors[6005]
	ErrInsufficientVaultBalance = solprogram.StakingErrors[6006]
	ErrMathOverflow             = solprogram.StakingErrors[6007]
	ErrNotInitialized           = solprogram.StakingErrors[6008]
	ErrTimestampRegression      = solprogram.StakingErrors[6009]
	ErrInsufficientFunds        = solprogram.StakingErrors[6010]
)
