package solprogram

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreSaleDetails(t *testing.T) {
	details := PreSaleDetails{
		Stage:                         2,
		Owner:                         solana.NewWallet().PublicKey(),
		RoundOnePrice:                 100,
		RoundTwoPrice:                 200,
		RoundThreePrice:               300,
		RoundOneAllocationRemaining:   0,
		RoundTwoAllocationRemaining:   5_000,
		RoundThreeAllocationRemaining: 9_000,
	}
	data, err := EncodeAccount(PreSaleDetailsAccountDisc, details)
	require.NoError(t, err)
	// u8 + pubkey + six u64
	assert.Len(t, data, 8+1+32+6*8)

	got, err := ParsePreSaleDetails(data)
	require.NoError(t, err)
	assert.Equal(t, details, *got)
	assert.Equal(t, [3]uint64{100, 200, 300}, got.Prices())
	assert.Equal(t, [3]uint64{0, 5_000, 9_000}, got.AllocationsRemaining())
}

func TestParseStakeInfo(t *testing.T) {
	info := OnChainStakeInfo{
		StakedStartTime:     1_700_000_000,
		LastClaimRewardTime: 1_700_000_100,
		LockingPeriod:       30,
		StakedAmount:        1_000_000_000,
		IsStaked:            true,
		PendingRewards:      12,
		APR:                 10,
	}
	data, err := EncodeAccount(StakeInfoAccountDisc, info)
	require.NoError(t, err)

	got, err := ParseStakeInfo(data)
	require.NoError(t, err)
	assert.Equal(t, info, *got)
}

func TestDecodeAccountRejectsWrongDiscriminator(t *testing.T) {
	data, err := EncodeAccount(StakeInfoAccountDisc, OnChainStakeInfo{})
	require.NoError(t, err)

	_, err = ParsePreSaleDetails(data)
	assert.ErrorContains(t, err, "not a PreSaleDetails")

	_, err = ParseStakeInfo(data[:4])
	assert.ErrorContains(t, err, "invalid StakeInfo data length")

	_, err = ParseStakeInfo(data[:12])
	assert.Error(t, err)
}

func TestParseTokenAccount(t *testing.T) {
	want := TokenAccount{
		Mint:   solana.MustPublicKeyFromBase58(USDCMintDevnet),
		Owner:  solana.NewWallet().PublicKey(),
		Amount: 123_456,
	}
	var buf bytes.Buffer
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(want))
	// spl accounts carry more fields after the amount
	data := append(buf.Bytes(), make([]byte, 165-72)...)

	got, err := ParseTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = ParseTokenAccount(data[:71])
	assert.Error(t, err)
}
