package solprogram

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// spl token account: mint(32) + owner(32) + amount(8) + ...
const tokenAccountMinLen = 72

// checkDiscriminator - verify 8-byte anchor prefix
func checkDiscriminator(data []byte, disc [8]byte, name string) error {
	if len(data) < 8 {
		return fmt.Errorf("invalid %s data length: %d", name, len(data))
	}
	if !bytes.Equal(data[:8], disc[:]) {
		return fmt.Errorf("account is not a %s (discriminator %x)", name, data[:8])
	}
	return nil
}

// ParsePreSaleDetails - Parse presale_info account data
func ParsePreSaleDetails(data []byte) (*PreSaleDetails, error) {
	var details PreSaleDetails
	if err := DecodeAccount(data, PreSaleDetailsAccountDisc, "PreSaleDetails", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ParseStakeInfo - Parse stake_info account data
func ParseStakeInfo(data []byte) (*OnChainStakeInfo, error) {
	var info OnChainStakeInfo
	if err := DecodeAccount(data, StakeInfoAccountDisc, "StakeInfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ParseTokenAccount - Parse SPL token account data (no discriminator)
func ParseTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < tokenAccountMinLen {
		return nil, fmt.Errorf("invalid token account data length: %d", len(data))
	}
	var acc TokenAccount
	if err := bin.NewBorshDecoder(data[:tokenAccountMinLen]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("failed to decode token account: %w", err)
	}
	return &acc, nil
}

// EncodeTokenAccount - leading token account fields, the part ParseTokenAccount reads
func EncodeTokenAccount(acc *TokenAccount) ([]byte, error) {
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(*acc); err != nil {
		return nil, fmt.Errorf("failed to encode token account: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeAccount - discriminator + borsh body, the layout anchor writes
func EncodeAccount(disc [8]byte, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeAccount - check discriminator then borsh decode the body into v
func DecodeAccount(data []byte, disc [8]byte, name string, v interface{}) error {
	if err := checkDiscriminator(data, disc, name); err != nil {
		return err
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
