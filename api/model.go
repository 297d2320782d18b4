package api

import (
	"launchpad/presale"
	"launchpad/staking"
)

// Response - envelope of every api reply
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	ErrorCode *int        `json:"error_code,omitempty"`
	ErrorName string      `json:"error_name,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// SignerRequest - body of commands that take no arguments
type SignerRequest struct {
	Signer string `json:"signer"`
}

type InitializePresaleRequest struct {
	Signer      string                 `json:"signer"`
	PaymentMint string                 `json:"payment_mint"`
	SaleMint    string                 `json:"sale_mint"`
	Allocations [presale.Rounds]uint64 `json:"allocations"`
	Prices      [presale.Rounds]uint64 `json:"prices"`
}

type BuyTokensRequest struct {
	Signer      string `json:"signer"`
	InputAmount uint64 `json:"input_amount"`
	IsNative    bool   `json:"is_native"`
}

type DiscountRequest struct {
	Signer   string `json:"signer"`
	Discount uint64 `json:"discount"`
}

type WhitelistRequest struct {
	Signer string `json:"signer"`
	Buyer  string `json:"buyer"`
	Remove bool   `json:"remove"`
}

type ChangeOwnerRequest struct {
	Signer   string `json:"signer"`
	NewOwner string `json:"new_owner"`
}

type InitializeStakingRequest struct {
	Signer string `json:"signer"`
	Mint   string `json:"mint"`
}

// AmountRequest - body of stake and fund
type AmountRequest struct {
	Signer string `json:"signer"`
	Amount uint64 `json:"amount"`
}

// FaucetRequest credits address with tokens of mint, or lamports when mint is empty.
type FaucetRequest struct {
	Address string `json:"address"`
	Mint    string `json:"mint,omitempty"`
	Amount  uint64 `json:"amount"`
}

type PresaleInfoResponse struct {
	Info      *presale.Info     `json:"info"`
	Addresses presale.Addresses `json:"addresses"`
	Balances  *presale.Balances `json:"balances"`
	Config    presale.Config    `json:"config"`
}

type StakeInfoResponse struct {
	Depositor      string             `json:"depositor"`
	StakeInfo      *staking.StakeInfo `json:"stake_info"`
	PendingRewards uint64             `json:"pending_rewards_now"`
	Now            int64              `json:"now"`
}

type VaultResponse struct {
	Address       string       `json:"address"`
	Balance       uint64       `json:"balance"`
	Rate          staking.Rate `json:"rate"`
	LockingPeriod int64        `json:"locking_period"`
}

type ClaimResponse struct {
	Paid uint64 `json:"paid"`
}

type AccountResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
	Mint     string `json:"mint,omitempty"`
	Amount   uint64 `json:"amount,omitempty"`
}
