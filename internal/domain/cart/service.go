// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/pkg/pricing"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when an added product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrProductInactive is returned when an inactive product is added.
var ErrProductInactive = errors.New("product is not active")

// ErrItemNotFound is returned when a cart line does not exist.
var ErrItemNotFound = errors.New("item not in cart")

// ErrInvalidQuantity is returned for a zero or negative quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Service handles point-of-sale session carts stored in Redis
type Service struct {
	db     *gorm.DB
	redis  *redis.Client
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		redis:  redisClient,
		config: cfg,
	}
}

// NewSessionID generates a fresh cart session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("pos:cart:%s", sessionID)
}

// GetCart loads a session cart. A missing key yields an empty cart.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := s.redis.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		return &Cart{SessionID: sessionID, Items: []Item{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &cart, nil
}

// saveCart persists the cart and refreshes its TTL.
func (s *Service) saveCart(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	ttl := s.config.Sales.CartTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if err := s.redis.Set(ctx, cartKey(cart.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID       uint            `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,min=1"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// AddItem adds a product to the cart, snapshotting its sale price.
// Adding a product already in the cart increments its quantity.
func (s *Service) AddItem(ctx context.Context, sessionID string, req *AddItemRequest) (*Cart, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var product catalog.Product
	if err := s.db.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += req.Quantity
			cart.Items[i].DiscountPercent = req.DiscountPercent
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, Item{
			ProductID:       product.ID,
			SKU:             product.SKU,
			Name:            product.Name,
			UnitPrice:       product.SalePrice,
			Quantity:        req.Quantity,
			DiscountPercent: req.DiscountPercent,
		})
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the quantity of a cart line. Quantity zero removes it.
func (s *Service) UpdateItem(ctx context.Context, sessionID string, productID uint, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = quantity
		}
		if err := s.saveCart(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, ErrItemNotFound
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID uint) (*Cart, error) {
	return s.UpdateItem(ctx, sessionID, productID, 0)
}

// Clear deletes the whole session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// CartTotals previews the checkout totals for a cart without touching
// stock or creating any records. The order-level discount is a
// percentage of the subtotal, as at checkout.
func (s *Service) CartTotals(cart *Cart, discountPercent decimal.Decimal) pricing.Totals {
	lines := make([]pricing.Line, 0, len(cart.Items))
	for i := range cart.Items {
		lines = append(lines, pricing.Line{
			UnitPrice:       cart.Items[i].UnitPrice,
			Quantity:        cart.Items[i].Quantity,
			DiscountPercent: cart.Items[i].DiscountPercent,
		})
	}
	discount := pricing.Subtotal(lines).
		Mul(discountPercent).
		Div(decimal.NewFromInt(100)).
		Round(2)
	return pricing.POSTotals(lines, s.config.Sales.TaxRatePercent, discount)
}
