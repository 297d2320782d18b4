package presale

import "launchpad/solprogram"

var (
	ErrStageInvalid             = solprogram.PresaleErrors[6000]
	ErrUnauthorizedAdmin        = solprogram.PresaleErrors[6001]
	ErrPresaleEnded             = solprogram.PresaleErrors[6002]
	ErrPresaleNotStartedYet     = solprogram.PresaleErrors[6003]
	ErrInsufficientAllocation   = solprogram.PresaleErrors[6004]
	ErrAlreadyInitialized       = solprogram.PresaleErrors[6005]
	ErrPriceCantBeZero          = solprogram.PresaleErrors[6006]
	ErrSupplyCantBeZero         = solprogram.PresaleErrors[6007]
	ErrInvalidDiscount          = solprogram.PresaleErrors[6008]
	ErrInsufficientVaultBalance = solprogram.PresaleErrors[6009]
	ErrMathOverflow             = solprogram.PresaleErrors[6010]
	ErrZeroAmount               = solprogram.PresaleErrors[6011]
	ErrPurchaseTooSmall         = solprogram.PresaleErrors[6012]
	ErrNotInitialized           = solprogram.PresaleErrors[6013]
	ErrInsufficientFunds        = solprogram.PresaleErrors[6014]
)
