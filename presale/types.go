package presale

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"launchpad/solprogram"
)

// Rounds is the number of priced sale rounds.
const Rounds = 3

var (
	infoDisc      = solprogram.AccountDiscriminator("PresaleState")
	whitelistDisc = solprogram.AccountDiscriminator("WhitelistEntry")
)

// Info is the presale config record stored at the presale_info PDA.
type Info struct {
	Stage               Stage            `json:"stage"`
	Owner               solana.PublicKey `json:"owner"`
	Prices              [Rounds]uint64   `json:"prices"`
	AllocationInitial   [Rounds]uint64   `json:"allocation_initial"`
	AllocationRemaining [Rounds]uint64   `json:"allocation_remaining"`
	PaymentMint         solana.PublicKey `json:"payment_mint"`
	SaleMint            solana.PublicKey `json:"sale_mint"`
	Discount            uint64           `json:"discount"`
}

// WhitelistEntry marks a buyer eligible for the discount.
type WhitelistEntry struct {
	Buyer   solana.PublicKey
	AddedAt int64
}

// InitializeParams - initialize(allocations[3], prices[3]) plus the two mints
type InitializeParams struct {
	Allocations [Rounds]uint64
	Prices      [Rounds]uint64
	PaymentMint solana.PublicKey
	SaleMint    solana.PublicKey
}

// Purchase - result of buyTokens
type Purchase struct {
	Round         int    `json:"round"`
	InputAmount   uint64 `json:"input_amount"`
	PaymentValue  uint64 `json:"payment_value"`
	Price         uint64 `json:"price"`
	TokensOut     uint64 `json:"tokens_out"`
	Native        bool   `json:"native"`
	Discounted    bool   `json:"discounted"`
	RemainingLeft uint64 `json:"allocation_remaining"`
}

// Withdrawal - result of withdrawUsdc
type Withdrawal struct {
	Tokens   uint64 `json:"tokens"`
	Lamports uint64 `json:"lamports"`
	// VaultClosed is set when the presale has ended and the emptied vault was closed.
	VaultClosed bool `json:"vault_closed"`
}

// Addresses - derived accounts of the presale
type Addresses struct {
	PresaleInfo  solana.PublicKey `json:"presale_info"`
	PaymentVault solana.PublicKey `json:"payment_vault"`
	TokenVault   solana.PublicKey `json:"token_vault"`
}

// Balances - current vault holdings
type Balances struct {
	TokenVault     uint64 `json:"token_vault"`
	PaymentVault   uint64 `json:"payment_vault"`
	NativeLamports uint64 `json:"native_lamports"`
}

// FromDetails converts the on-chain presale_info layout. The deployed
// program does not keep initial allocations, so remaining is used for both.
func FromDetails(d *solprogram.PreSaleDetails, paymentMint, saleMint solana.PublicKey) (*Info, error) {
	stage, err := ParseStage(d.Stage)
	if err != nil {
		return nil, err
	}
	remaining := d.AllocationsRemaining()
	return &Info{
		Stage:               stage,
		Owner:               d.Owner,
		Prices:              d.Prices(),
		AllocationInitial:   remaining,
		AllocationRemaining: remaining,
		PaymentMint:         paymentMint,
		SaleMint:            saleMint,
	}, nil
}

// Details converts back to the on-chain layout.
func (i *Info) Details() *solprogram.PreSaleDetails {
	return &solprogram.PreSaleDetails{
		Stage:                         uint8(i.Stage),
		Owner:                         i.Owner,
		RoundOnePrice:                 i.Prices[0],
		RoundTwoPrice:                 i.Prices[1],
		RoundThreePrice:               i.Prices[2],
		RoundOneAllocationRemaining:   i.AllocationRemaining[0],
		RoundTwoAllocationRemaining:   i.AllocationRemaining[1],
		RoundThreeAllocationRemaining: i.AllocationRemaining[2],
	}
}

// Validate checks the record invariants.
func (i *Info) Validate() error {
	if !i.Stage.Valid() {
		return fmt.Errorf("%w: %d", ErrStageInvalid, uint8(i.Stage))
	}
	for r := 0; r < Rounds; r++ {
		if i.Prices[r] == 0 {
			return fmt.Errorf("%w: round %d", ErrPriceCantBeZero, r+1)
		}
		if i.AllocationRemaining[r] > i.AllocationInitial[r] {
			return fmt.Errorf("round %d remaining %d exceeds initial %d", r+1, i.AllocationRemaining[r], i.AllocationInitial[r])
		}
	}
	if i.Discount > solprogram.DiscountBase {
		return fmt.Errorf("%w: %d", ErrInvalidDiscount, i.Discount)
	}
	return nil
}
