package application

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/features/marketplace/infrastructure"
)

// OrderService covers the token-bound cart, order and profile calls.
type OrderService interface {
	Cart(ctx context.Context, token string) (*domain.Cart, error)
	AddToCart(ctx context.Context, token string, req domain.AddToCartRequest) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error)
	Orders(ctx context.Context, token string) ([]domain.Order, error)
	CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, error)
	Profile(ctx context.Context, token string) (*domain.User, error)
}

type orderService struct {
	client infrastructure.Client
}

// NewOrderService creates a new instance of orderService.
func NewOrderService(client infrastructure.Client) OrderService {
	return &orderService{client: client}
}

func requireToken(token string) error {
	if token == "" {
		return apperr.Unauthorized("authorization token is required")
	}
	return nil
}

func (s *orderService) Cart(ctx context.Context, token string) (*domain.Cart, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	cart, err := s.client.GetCart(ctx, token)
	return cart, errors.Wrap(err, "failed to fetch cart")
}

func (s *orderService) AddToCart(ctx context.Context, token string, req domain.AddToCartRequest) (*domain.Cart, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, apperr.Validation("product_id is required")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	cart, err := s.client.AddToCart(ctx, token, req)
	return cart, errors.Wrap(err, "failed to add to cart")
}

func (s *orderService) RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, apperr.Validation("product id is required")
	}
	cart, err := s.client.RemoveFromCart(ctx, token, productID)
	return cart, errors.Wrap(err, "failed to remove from cart")
}

func (s *orderService) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	orders, err := s.client.Orders(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// CreateOrder validates the minimum an order needs before forwarding it.
func (s *orderService) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order has no items")
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, apperr.Validation("every order item needs a product_id and a positive quantity")
		}
	}
	if strings.TrimSpace(req.Recipient.Name) == "" {
		return nil, apperr.Validation("recipient name is required")
	}
	order, err := s.client.CreateOrder(ctx, token, req)
	return order, errors.Wrap(err, "failed to create order")
}

func (s *orderService) Profile(ctx context.Context, token string) (*domain.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	user, err := s.client.Profile(ctx, token)
	return user, errors.Wrap(err, "failed to fetch profile")
}
