package unlock

import (
	"github.com/taskmandi/backend/internal/jobs"
)

// DefaultBasePricePaise is the platform-wide unlock fee (₹100) used when no
// override is configured.
const DefaultBasePricePaise int64 = 10_000

// PricePolicy computes the unlock fee for a job and provider. The price is
// always computed and enforced here, server-side; nothing price-related is
// ever read from the request.
type PricePolicy interface {
	UnlockPricePaise(job *jobs.Job, subscriptionTier string) int64
}

// TierPricing charges a flat base fee with percentage discounts per
// subscription tier. Unknown tiers pay full price.
type TierPricing struct {
	BasePaise       int64
	DiscountPercent map[string]int64
}

func NewTierPricing(basePaise int64, discountPercent map[string]int64) TierPricing {
	if basePaise <= 0 {
		basePaise = DefaultBasePricePaise
	}
	return TierPricing{BasePaise: basePaise, DiscountPercent: discountPercent}
}

func (p TierPricing) UnlockPricePaise(_ *jobs.Job, subscriptionTier string) int64 {
	price := p.BasePaise
	if pct, ok := p.DiscountPercent[subscriptionTier]; ok && pct > 0 && pct < 100 {
		price -= price * pct / 100
	}
	return price
}
