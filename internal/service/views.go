package service

import (
	"time"
	"unicode/utf8"

	"sportzone/internal/cart"
	"sportzone/internal/dto"
	"sportzone/internal/markup"
	"sportzone/internal/model"
	"sportzone/internal/pricing"
	"sportzone/internal/repository"

	"github.com/shopspring/decimal"
)

const summaryLength = 200

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func summarize(p *model.Product) string {
	s := markup.PlainText(p.DescriptionSource())
	if utf8.RuneCountInString(s) <= summaryLength {
		return s
	}
	return string([]rune(s)[:summaryLength]) + "…"
}

func discountBadge(d *model.Discount) *dto.DiscountBadge {
	if d == nil {
		return nil
	}
	b := &dto.DiscountBadge{ID: d.ID, Name: d.Name}
	if d.Amount.Valid && !d.Amount.Decimal.IsZero() {
		b.Amount = money(d.Amount.Decimal)
	} else {
		b.Percent = d.Percent.String()
	}
	return b
}

func variantViews(p *model.Product, discounts []model.Discount, now time.Time) []dto.VariantView {
	views := make([]dto.VariantView, 0, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		q := pricing.EffectivePrice(v, p.CategoryID, discounts, now)
		view := dto.VariantView{
			ID:             v.ID,
			WeightGrams:    v.WeightGrams,
			Price:          money(q.Base),
			EffectivePrice: money(q.Effective),
			PricePerKg:     money(v.PricePerKg()),
		}
		if q.Discounted() {
			view.Discount = discountBadge(q.Discount)
		}
		views = append(views, view)
	}
	return views
}

func productCard(p *model.Product, stats *repository.ProductStats, discounts []model.Discount, now time.Time) dto.ProductCard {
	card := dto.ProductCard{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Summary:    summarize(p),
		Variants:   variantViews(p, discounts, now),
	}
	if len(p.Images) > 0 {
		card.Image = p.Images[0].Image
	}
	if stats != nil {
		card.AvgRating = stats.AvgRating
		card.OrderCount = stats.OrderCount
		if stats.MinPrice.Valid {
			card.MinPrice = money(stats.MinPrice.Decimal)
		}
	} else if len(p.Variants) > 0 {
		cheapest := p.Variants[0].Price
		for _, v := range p.Variants[1:] {
			if v.Price.LessThan(cheapest) {
				cheapest = v.Price
			}
		}
		card.MinPrice = money(cheapest)
	}
	return card
}

func orderView(o *model.Order) dto.OrderView {
	view := dto.OrderView{
		ID:          o.ID,
		Username:    o.User.Username,
		Status:      string(o.Status),
		TotalPrice:  money(o.TotalPrice),
		FullName:    o.FullName,
		Address:     o.Address,
		IsCompleted: o.IsCompleted,
		CreatedAt:   o.CreatedAt,
	}
	if o.PaymentMethod != nil {
		view.PaymentMethod = o.PaymentMethod.Name
	}
	for _, item := range o.Items {
		iv := dto.OrderItemView{
			VariantID: item.ProductVariantID,
			Quantity:  item.Quantity,
			Price:     money(item.Price),
			LineTotal: money(item.LineTotal()),
		}
		if item.ProductVariant != nil {
			iv.WeightGrams = item.ProductVariant.WeightGrams
			if item.ProductVariant.Product != nil {
				iv.ProductName = item.ProductVariant.Product.Name
			}
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

func orderViews(orders []*model.Order) []dto.OrderView {
	views := make([]dto.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	return views
}

func userView(u *model.User) dto.UserView {
	return dto.UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
		IsActive: u.IsActive,
	}
}

func cartResponse(lines []cart.Line) dto.CartResponse {
	resp := dto.CartResponse{
		Items: make([]dto.CartLineView, 0, len(lines)),
		Total: money(cart.Sum(lines)),
	}
	for _, l := range lines {
		view := dto.CartLineView{
			VariantID:   l.Variant.ID,
			ProductID:   l.Variant.ProductID,
			WeightGrams: l.Variant.WeightGrams,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			LineTotal:   money(l.LineTotal),
		}
		if l.Variant.Product != nil {
			view.ProductName = l.Variant.Product.Name
		}
		resp.Items = append(resp.Items, view)
	}
	return resp
}

func paymentMethodViews(methods []*model.PaymentMethod) []dto.PaymentMethodView {
	views := make([]dto.PaymentMethodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, dto.PaymentMethodView{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Kind:        string(m.Kind),
		})
	}
	return views
}
