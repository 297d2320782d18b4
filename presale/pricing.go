package presale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"launchpad/solprogram"
)

// mulDiv returns floor(x*y/d) using a 256-bit intermediate.
func mulDiv(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrMathOverflow)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(x), uint256.NewInt(y), uint256.NewInt(d))
	if overflow || !z.IsUint64() {
		return 0, fmt.Errorf("%w: %d * %d / %d", ErrMathOverflow, x, y, d)
	}
	return z.Uint64(), nil
}

// NativePaymentValue converts lamports into payment-token units at nativePrice per SOL.
func NativePaymentValue(lamports, nativePrice uint64) (uint64, error) {
	return mulDiv(nativePrice, lamports, solprogram.LamportsPerSOL)
}

// EffectivePrice applies a whitelist discount expressed over DiscountBase.
func EffectivePrice(price, discount uint64) (uint64, error) {
	if discount > solprogram.DiscountBase {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDiscount, discount)
	}
	off, err := mulDiv(price, discount, solprogram.DiscountBase)
	if err != nil {
		return 0, err
	}
	return price - off, nil
}

// TokensOut is floor(paymentValue * scale / price).
func TokensOut(paymentValue, scale, price uint64) (uint64, error) {
	if price == 0 {
		return 0, ErrPriceCantBeZero
	}
	return mulDiv(paymentValue, scale, price)
}

func sumAllocations(allocs [Rounds]uint64) (uint64, error) {
	var total uint64
	for _, a := range allocs {
		sum, overflow := math.SafeAdd(total, a)
		if overflow {
			return 0, fmt.Errorf("%w: allocation total", ErrMathOverflow)
		}
		total = sum
	}
	return total, nil
}
