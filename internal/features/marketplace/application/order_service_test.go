package application

import (
	"context"
	"net/http"
	"testing"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/marketplace/domain"
)

func TestOrderServiceRequiresToken(t *testing.T) {
	svc := NewOrderService(&fakeClient{})
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["cart"] = svc.Cart(ctx, "")
	_, checks["orders"] = svc.Orders(ctx, "")
	_, checks["profile"] = svc.Profile(ctx, "")
	_, checks["create"] = svc.CreateOrder(ctx, "", domain.OrderRequest{})
	for name, err := range checks {
		if apperr.Status(err) != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %v", name, err)
		}
	}
}

func TestCreateOrderValidation(t *testing.T) {
	client := &fakeClient{}
	svc := NewOrderService(client)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.OrderRequest
	}{
		{"no items", domain.OrderRequest{Recipient: domain.Recipient{Name: "Anna"}}},
		{"zero quantity", domain.OrderRequest{Items: []domain.CartItem{{ProductID: "p1"}}, Recipient: domain.Recipient{Name: "Anna"}}},
		{"no recipient", domain.OrderRequest{Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateOrder(ctx, "tok", tt.req); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	order, err := svc.CreateOrder(ctx, "tok", domain.OrderRequest{
		Items:     []domain.CartItem{{ProductID: "p1", Quantity: 2}},
		Recipient: domain.Recipient{Name: "Anna"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.ID != "o1" || client.lastOrder.Items[0].Quantity != 2 {
		t.Errorf("unexpected order %+v / forwarded %+v", order, client.lastOrder)
	}
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	svc := NewOrderService(&fakeClient{})
	cart, err := svc.AddToCart(context.Background(), "tok", domain.AddToCartRequest{ProductID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if cart.Items[0].Quantity != 1 {
		t.Errorf("expected default quantity 1, got %d", cart.Items[0].Quantity)
	}
	if _, err := svc.AddToCart(context.Background(), "tok", domain.AddToCartRequest{ProductID: "p1", Quantity: -3}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for negative quantity, got %v", err)
	}
}

func TestOrdersNeverNil(t *testing.T) {
	orders, err := NewOrderService(&fakeClient{}).Orders(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if orders == nil {
		t.Error("expected empty slice, got nil")
	}
}
