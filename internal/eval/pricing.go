package eval

import "github.com/planweave/planweave/internal/ai"

// ModelPrice is the cost per 1K tokens in GBP.
type ModelPrice struct {
	Input  float64
	Output float64
}

// pricesPer1KGBP converts the published USD per-1M rates at roughly
// 0.79 GBP/USD. Unknown models cost 0 so a missing entry is visible in the
// reports rather than fatal.
var pricesPer1KGBP = map[string]ModelPrice{
	"claude-sonnet-4-5-20250929": {Input: 0.00237, Output: 0.01185},
	"claude-3-5-haiku-20241022":  {Input: 0.000632, Output: 0.00316},
}

// PricingKnown reports whether a cost estimate exists for model.
func PricingKnown(model string) bool {
	_, ok := pricesPer1KGBP[model]
	return ok
}

// EstimateCostGBP prices one call's token usage against the model's rate
// table. Returns 0 for unknown models.
func EstimateCostGBP(usage ai.Usage, model string) float64 {
	price, ok := pricesPer1KGBP[model]
	if !ok {
		return 0.0
	}
	return float64(usage.InputTokens)/1000.0*price.Input +
		float64(usage.OutputTokens)/1000.0*price.Output
}
