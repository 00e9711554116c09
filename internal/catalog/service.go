package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/NbdyKnows/backend-sivi/internal/cart"
	"github.com/NbdyKnows/backend-sivi/internal/common"
)

// ErrProductNotFound is returned when the catalog has no product for the id.
var ErrProductNotFound = errors.New("product not found")

// Product is the slice of the inventory collaborator's catalog the pricing
// engine needs: the category join key and the base unit price.
type Product struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
}

// Store abstracts read-only product lookups.
type Store interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// PGStore reads products from the inventory collaborator's table. Read-only;
// product lifecycle stays with the collaborator.
type PGStore struct {
	Pool *pgxpool.Pool
}

const productQuery = `
SELECT id::text, category_id::text, name, price::text
FROM products
WHERE id::text = $1`

// GetProduct fetches a single product row.
func (s PGStore) GetProduct(ctx context.Context, id string) (Product, error) {
	var (
		p     Product
		price string
	)
	err := s.Pool.QueryRow(ctx, productQuery, id).Scan(&p.ID, &p.CategoryID, &p.Name, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("query product %s: %w", id, err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: parse price %q: %w", id, price, err)
	}
	return p, nil
}

// Service wraps the store with a snapshot cache and builds denormalized cart
// lines from bare product references.
type Service struct {
	Store Store
	Cache *Cache
}

// Product resolves a product, preferring the cache.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	key := productKey(id)
	var cached Product
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Product{}, err
		}
		return Product{}, common.NewAppError("CATALOG_UNAVAILABLE", "catalog lookup failed", http.StatusServiceUnavailable, err)
	}
	_ = s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// BuildLine denormalizes a product reference into a cart line, snapshotting the
// category and the current base price at cart-build time.
func (s *Service) BuildLine(ctx context.Context, productID string, qty int64) (cart.Line, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return cart.Line{}, err
	}
	return cart.Line{
		ProductID:  p.ID,
		CategoryID: p.CategoryID,
		Qty:        qty,
		UnitPrice:  p.Price,
	}, nil
}
