package metrics

import "math"

var (
	presaleStage      = LazyLoadGauge("presale_stage")
	presaleTokensSold = LazyLoadCounter("presale_tokens_sold_total")
)

// SetPresaleStage records the stage the presale is in, 0 (not started) to 4 (ended).
func SetPresaleStage(stage int64) {
	presaleStage().Set(stage)
}

// AddTokensSold counts sale tokens delivered to buyers.
func AddTokensSold(amount uint64) {
	for amount > math.MaxInt64 {
		presaleTokensSold().Add(math.MaxInt64)
		amount -= math.MaxInt64
	}
	presaleTokensSold().Add(int64(amount))
}
