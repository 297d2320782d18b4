package solprogram

import "github.com/gagliardetto/solana-go"

// Program IDs
const (
	// Presale program (declare_id of the deployed presale program)
	PresaleProgramID = "HCXo1ZoY2ALW9dWDBjU1NfwHoaEEDsZ9g1FwrNfRC7GC"

	// Staking program (declare_id of the deployed token_staking program)
	StakingProgramID = "7XFbaKsugiPV3q6KLmpDdpydooFBAurqGyVWY3Zy2EZ9"

	// USDC Mint Address (Devnet)
	USDCMintDevnet = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	// USDC Mint Address (Mainnet)
	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// PDA Seeds
var (
	SeedPresaleInfo  = []byte("presale_info")
	SeedPaymentVault = []byte("usdc_vault")
	SeedTokenVault   = []byte("token_vault")
	SeedWhitelist    = []byte("whitelist")

	SeedRewardVault  = []byte("vault")
	SeedStakeInfo    = []byte("stake_info")
	SeedStakeAccount = []byte("token")
)

// Protocol constants
const (
	// LamportsPerSOL is the native unit scale
	LamportsPerSOL = 1_000_000_000

	// DefaultNativePrice is the payment-token value of one SOL used by buy_tokens
	DefaultNativePrice = 168_000_000_000

	// DiscountBase is the denominator of whitelist discounts
	DiscountBase = 1000

	// SecondsInAYear and APRBase scale staking APR tiers into a per-second rate
	SecondsInAYear = 31_536_000
	APRBase        = 100
)

// System Program IDs
var (
	SystemProgramID       = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID        = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// NativeMint marks SOL balances (wrapped SOL mint)
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// Explorer URLs
const (
	ExplorerURLDevnet  = "https://explorer.solana.com/address/%s?cluster=devnet"
	ExplorerURLMainnet = "https://explorer.solana.com/address/%s"
)

// RPC URLs
const (
	RPCURLDevnet    = "https://api.devnet.solana.com"
	RPCURLMainnet   = "https://api.mainnet-beta.solana.com"
	RPCURLLocalhost = "http://localhost:8899"
)
