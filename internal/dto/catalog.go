package dto

import (
	"time"

	"sportzone/internal/model"
	"sportzone/internal/repository"
)

// ProductListQuery carries the raw storefront query string. Malformed numbers
// are ignored rather than rejected.
type ProductListQuery struct {
	Category  string `query:"category"`
	Q         string `query:"q"`
	MinPrice  string `query:"min_price"`
	MaxPrice  string `query:"max_price"`
	MinRating string `query:"min_rating"`
	MinWeight string `query:"min_weight"`
	MaxWeight string `query:"max_weight"`
	Sort      string `query:"sort"`
	Page      string `query:"page"`
}

type DiscountBadge struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Percent string `json:"percent,omitempty"`
	Amount  string `json:"amount,omitempty"`
}

type VariantView struct {
	ID             uint           `json:"id"`
	WeightGrams    int            `json:"weight"`
	Price          string         `json:"price"`
	EffectivePrice string         `json:"effective_price"`
	PricePerKg     string         `json:"price_per_kg"`
	Discount       *DiscountBadge `json:"discount,omitempty"`
}

type ProductCard struct {
	ID         uint          `json:"id"`
	Name       string        `json:"name"`
	CategoryID uint          `json:"category_id"`
	Image      string        `json:"image,omitempty"`
	Summary    string        `json:"summary"`
	MinPrice   string        `json:"min_price,omitempty"`
	AvgRating  float64       `json:"avg_rating"`
	OrderCount int64         `json:"order_count"`
	Variants   []VariantView `json:"variants"`
}

type HomeResponse struct {
	Logo       string            `json:"logo,omitempty"`
	Categories []*model.Category `json:"categories"`
	Popular    []ProductCard     `json:"popular"`
}

type ProductListResponse struct {
	Products    []ProductCard           `json:"products"`
	Page        repository.Page         `json:"pagination"`
	Categories  []*model.Category       `json:"categories"`
	PriceRange  *repository.PriceRange  `json:"price_range"`
	WeightRange *repository.WeightRange `json:"weight_range"`
}

type ReviewView struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductDetailResponse struct {
	ID              uint                  `json:"id"`
	Name            string                `json:"name"`
	Category        *model.Category       `json:"category"`
	DescriptionHTML string                `json:"description_html"`
	Description     string                `json:"description"`
	Images          []*model.ProductImage `json:"images"`
	Variants        []VariantView         `json:"variants"`
	AvgRating       int                   `json:"avg_rating"`
	Reviews         []ReviewView          `json:"reviews"`
	Recommended     []ProductCard         `json:"recommended"`
	CanReview       bool                  `json:"can_review"`
}

type ReviewRequest struct {
	Rating int    `json:"rating" form:"rating"`
	Text   string `json:"text" form:"text"`
}
