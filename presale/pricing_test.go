package presale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/solprogram"
)

func TestTokensOutTruncates(t *testing.T) {
	tests := []struct {
		name    string
		payment uint64
		scale   uint64
		price   uint64
		want    uint64
	}{
		{"exact", 10_000_000_000, 1, 1_000_000_000, 10},
		{"truncates", 10_999_999_999, 1, 1_000_000_000, 10},
		{"below one token", 999_999_999, 1, 1_000_000_000, 0},
		{"lamport scale", 1_000_000_000, solprogram.LamportsPerSOL, 2_000_000_000, 500_000_000},
		{"wide intermediate", math.MaxUint64, 2, 4, math.MaxUint64 / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokensOut(tt.payment, tt.scale, tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.scale == 1 {
				assert.LessOrEqual(t, got*tt.price, tt.payment)
			}
		})
	}
}

func TestTokensOutErrors(t *testing.T) {
	_, err := TokensOut(1, 1, 0)
	assert.ErrorIs(t, err, ErrPriceCantBeZero)

	_, err = TokensOut(math.MaxUint64, math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrMathOverflow)
}

func TestNativePaymentValue(t *testing.T) {
	v, err := NativePaymentValue(solprogram.LamportsPerSOL, solprogram.DefaultNativePrice)
	require.NoError(t, err)
	assert.Equal(t, uint64(solprogram.DefaultNativePrice), v)

	v, err = NativePaymentValue(500_000_000, solprogram.DefaultNativePrice)
	require.NoError(t, err)
	assert.Equal(t, uint64(84_000_000_000), v)
}

func TestEffectivePrice(t *testing.T) {
	p, err := EffectivePrice(1_000_000_000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(900_000_000), p)

	p, err = EffectivePrice(1_000_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), p)

	p, err = EffectivePrice(7, solprogram.DiscountBase)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p)

	_, err = EffectivePrice(1, solprogram.DiscountBase+1)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestSumAllocationsOverflow(t *testing.T) {
	_, err := sumAllocations([Rounds]uint64{math.MaxUint64, 1, 0})
	assert.ErrorIs(t, err, ErrMathOverflow)

	total, err := sumAllocations([Rounds]uint64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), total)
}
