package dto

import (
	"time"

	"sportzone/internal/model"
	"sportzone/internal/repository"

	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	TotalProducts  int64                       `json:"total_products"`
	TotalOrders    int64                       `json:"total_orders"`
	TotalCustomers int64                       `json:"total_users"`
	RecentOrders   int64                       `json:"recent_orders"`
	RecentRevenue  string                      `json:"recent_revenue"`
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
	LatestOrders   []OrderView                 `json:"latest_orders"`
}

type ProductInput struct {
	Name                 string `json:"name" form:"name"`
	CategoryID           uint   `json:"category_id" form:"category_id"`
	Description          string `json:"description" form:"description"`
	FormattedDescription string `json:"formatted_description" form:"formatted_description"`
}

type VariantInput struct {
	WeightGrams int             `json:"weight" form:"weight"`
	Price       decimal.Decimal `json:"price" form:"price"`
}

type ImageInput struct {
	Image     string `json:"image" form:"image"`
	SortOrder int    `json:"order" form:"order"`
}

type CategoryInput struct {
	Name string `json:"name" form:"name"`
}

type DiscountInput struct {
	Name       string           `json:"name"`
	Scope      string           `json:"discount_type"`
	ProductID  *uint            `json:"product_id"`
	CategoryID *uint            `json:"category_id"`
	Percent    decimal.Decimal  `json:"discount_percent"`
	Amount     *decimal.Decimal `json:"discount_amount"`
	IsActive   bool             `json:"is_active"`
	StartsAt   *time.Time       `json:"start_date"`
	EndsAt     *time.Time       `json:"end_date"`
}

type UserUpdateInput struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	IsStaff  bool   `json:"is_staff" form:"is_staff"`
	IsActive bool   `json:"is_active" form:"is_active"`
}

type OrderStatusInput struct {
	Status string `json:"status" form:"status"`
}

type PaymentMethodInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	IsActive    bool   `json:"is_active"`
	ShopID      string `json:"shop_id"`
	SecretKey   string `json:"secret_key"`
	BankAccount string `json:"bank_account"`
}

type PanelListQuery struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Status   string `query:"status"`
	Page     string `query:"page"`
}

type ProductPage struct {
	Products []*model.Product `json:"products"`
	Page     repository.Page  `json:"pagination"`
}

type UserPage struct {
	Users []UserView      `json:"users"`
	Page  repository.Page `json:"pagination"`
}

type OrderPage struct {
	Orders []OrderView     `json:"orders"`
	Page   repository.Page `json:"pagination"`
}
