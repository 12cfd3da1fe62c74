package cart

import (
	"context"
	"fmt"

	"sportzone/internal/apperr"
	"sportzone/internal/model"

	"github.com/shopspring/decimal"
)

// VariantLookup resolves cart entries against the catalog.
type VariantLookup interface {
	FindByID(ctx context.Context, id uint) (*model.ProductVariant, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.ProductVariant, error)
}

// Line is one cart entry priced at the variant's current price.
type Line struct {
	Variant   *model.ProductVariant `json:"variant"`
	Quantity  int                   `json:"quantity"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	LineTotal decimal.Decimal       `json:"line_total"`
}

type Service interface {
	Add(ctx context.Context, sess Session, variantID uint, quantity int) (*model.ProductVariant, error)
	Remove(ctx context.Context, sess Session, variantID uint) error
	Items(ctx context.Context, sess Session) (Cart, error)
	// Lines resolves every entry; a vanished variant fails the whole view
	// with a not-found error and stays in the cart until removed.
	Lines(ctx context.Context, sess Session) ([]Line, error)
	Total(ctx context.Context, sess Session) (decimal.Decimal, error)
	Clear(ctx context.Context, sess Session) error
}

type serviceImpl struct {
	store    Store
	variants VariantLookup
}

func NewService(store Store, variants VariantLookup) Service {
	return &serviceImpl{
		store:    store,
		variants: variants,
	}
}

func (s *serviceImpl) Add(ctx context.Context, sess Session, variantID uint, quantity int) (*model.ProductVariant, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperr.Validation("quantity", "quantity must be a positive integer")
	}

	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Increment(ctx, sess.ID, variantID, quantity); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return variant, nil
}

func (s *serviceImpl) Remove(ctx context.Context, sess Session, variantID uint) error {
	if err := sess.validate(); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, sess.ID, variantID); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

func (s *serviceImpl) Items(ctx context.Context, sess Session) (Cart, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

func (s *serviceImpl) Lines(ctx context.Context, sess Session) ([]Line, error) {
	c, err := s.Items(ctx, sess)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, s.variants, c)
}

func (s *serviceImpl) Total(ctx context.Context, sess Session) (decimal.Decimal, error) {
	lines, err := s.Lines(ctx, sess)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(lines), nil
}

func (s *serviceImpl) Clear(ctx context.Context, sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, sess.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Resolve prices a cart snapshot in ascending variant id order.
func Resolve(ctx context.Context, variants VariantLookup, c Cart) ([]Line, error) {
	ids := c.VariantIDs()
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := variants.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart variants: %w", err)
	}
	byID := make(map[uint]*model.ProductVariant, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}

	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("product variant %d", id))
		}
		qty := c[id]
		lines = append(lines, Line{
			Variant:   v,
			Quantity:  qty,
			UnitPrice: v.Price,
			LineTotal: v.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines, nil
}

func Sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}
