// Package pricing computes discounted variant prices.
//
// When several discounts match a variant the most specific scope wins
// (product, then category, then store-wide). Inside the winning scope the
// discount producing the lowest price is used, ties going to the lowest id.
// Discounts are never stacked.
package pricing

import (
	"time"

	"sportzone/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the price of one variant after discount resolution.
type Quote struct {
	Base      decimal.Decimal `json:"base_price"`
	Effective decimal.Decimal `json:"effective_price"`
	Discount  *model.Discount `json:"discount,omitempty"`
}

// Discounted reports whether a discount actually lowered the price.
func (q Quote) Discounted() bool {
	return q.Discount != nil && q.Effective.LessThan(q.Base)
}

// Target identifies what a discount may be scoped to.
type Target struct {
	ProductID  uint
	CategoryID uint
}

// Active reports whether d is switched on and its window contains now.
// Either bound of the window may be unset.
func Active(d *model.Discount, now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return true
}

// Matches reports whether d is scoped to the target.
func Matches(d *model.Discount, t Target) bool {
	switch d.Scope {
	case model.DiscountScopeProduct:
		return d.ProductID != nil && *d.ProductID == t.ProductID
	case model.DiscountScopeCategory:
		return d.CategoryID != nil && *d.CategoryID == t.CategoryID
	case model.DiscountScopeAll:
		return true
	}
	return false
}

// Apply returns price reduced by d. A non-zero fixed amount takes precedence
// over the percentage. The result is never negative.
func Apply(d *model.Discount, price decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	if d.Amount.Valid && !d.Amount.Decimal.IsZero() {
		out = price.Sub(d.Amount.Decimal)
	} else {
		out = price.Mul(hundred.Sub(d.Percent)).Div(hundred)
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

func specificity(s model.DiscountScope) int {
	switch s {
	case model.DiscountScopeProduct:
		return 3
	case model.DiscountScopeCategory:
		return 2
	case model.DiscountScopeAll:
		return 1
	}
	return 0
}

// Best selects the discount that governs the target, or nil.
func Best(discounts []model.Discount, t Target, price decimal.Decimal, now time.Time) *model.Discount {
	var (
		best      *model.Discount
		bestPrice decimal.Decimal
	)
	for i := range discounts {
		d := &discounts[i]
		if !Active(d, now) || !Matches(d, t) {
			continue
		}
		p := Apply(d, price)
		if best == nil {
			best, bestPrice = d, p
			continue
		}
		ds, bs := specificity(d.Scope), specificity(best.Scope)
		switch {
		case ds > bs:
			best, bestPrice = d, p
		case ds < bs:
		case p.LessThan(bestPrice):
			best, bestPrice = d, p
		case p.Equal(bestPrice) && d.ID < best.ID:
			best, bestPrice = d, p
		}
	}
	return best
}

// EffectivePrice quotes variant v, which belongs to a product in categoryID.
func EffectivePrice(v *model.ProductVariant, categoryID uint, discounts []model.Discount, now time.Time) Quote {
	t := Target{ProductID: v.ProductID, CategoryID: categoryID}
	q := Quote{Base: v.Price, Effective: v.Price}
	if d := Best(discounts, t, v.Price, now); d != nil {
		q.Discount = d
		q.Effective = Apply(d, v.Price)
	}
	return q
}
