package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;index" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null" json:"is_superuser"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// CanUsePanel reports whether the user may reach the management panel.
func (u *User) CanUsePanel() bool {
	return u.IsActive && (u.IsStaff || u.IsSuperuser)
}

type UserProfile struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	UpdatedAt time.Time `json:"-"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Products  []Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"-"`
}

type Product struct {
	ID                   uint     `gorm:"primaryKey" json:"id"`
	Name                 string   `gorm:"size:200;not null" json:"name"`
	Description          string   `gorm:"type:text" json:"description"`
	FormattedDescription string   `gorm:"type:text" json:"formatted_description"`
	CategoryID           uint     `gorm:"index;not null" json:"category_id"`
	Category             Category `json:"category"`

	Images   []ProductImage   `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Variants []ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DescriptionSource returns the markup shown on the product page: the
// formatted text when present, the plain description otherwise.
func (p *Product) DescriptionSource() string {
	if p.FormattedDescription != "" {
		return p.FormattedDescription
	}
	return p.Description
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	Image     string `gorm:"size:255;not null" json:"image"`
	SortOrder int    `gorm:"not null" json:"order"`
}

type ProductVariant struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	Product     *Product        `json:"product,omitempty"`
	WeightGrams int             `gorm:"not null" json:"weight"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// PricePerKg is the price normalised to one kilogram; zero for weightless variants.
func (v *ProductVariant) PricePerKg() decimal.Decimal {
	if v.WeightGrams <= 0 {
		return decimal.Zero
	}
	return v.Price.Mul(decimal.NewFromInt(1000)).
		Div(decimal.NewFromInt(int64(v.WeightGrams))).
		Round(2)
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product;not null" json:"product_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product;not null" json:"user_id"`
	User      User      `json:"user"`
	Rating    int       `gorm:"not null" json:"rating"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Discount struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	Name       string              `gorm:"size:200;not null" json:"name"`
	Scope      DiscountScope       `gorm:"size:20;not null" json:"discount_type"`
	ProductID  *uint               `gorm:"index" json:"product_id,omitempty"`
	CategoryID *uint               `gorm:"index" json:"category_id,omitempty"`
	Percent    decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	Amount     decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
	IsActive   bool                `gorm:"not null" json:"is_active"`
	StartsAt   *time.Time          `json:"start_date,omitempty"`
	EndsAt     *time.Time          `json:"end_date,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type SiteSettings struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Logo string `gorm:"size:255" json:"logo"`
}
