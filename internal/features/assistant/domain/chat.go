package domain

import (
	"math"

	"github.com/google/uuid"

	marketplace "flowerchat/backend/internal/features/marketplace/domain"
)

// Conversation roles accepted in ConversationTurn.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one prior message replayed by the client.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionSettings is the checklist state the client threads between turns.
type SessionSettings struct {
	CityID    int     `json:"cityId,omitempty"`
	CityName  string  `json:"cityName,omitempty"`
	Recipient string  `json:"recipient,omitempty"`
	Occasion  string  `json:"occasion,omitempty"`
	BudgetMin float64 `json:"budgetMin,omitempty"`
	BudgetMax float64 `json:"budgetMax,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
	TempCart            *TempCart          `json:"tempCart"`
	SessionSettings     *SessionSettings   `json:"sessionSettings"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	Message         string                    `json:"message"`
	Products        []marketplace.CatalogItem `json:"products"`
	TempCart        *TempCart                 `json:"tempCart"`
	SessionSettings *SessionSettings          `json:"sessionSettings"`
	Missing         []string                  `json:"missing"`
}

// TempCartItem is a line in the client-held cart.
type TempCartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// TempCart is the shadow cart kept by the chat session until checkout.
type TempCart struct {
	ID       string         `json:"id"`
	Items    []TempCartItem `json:"items"`
	Total    float64        `json:"total"`
	Currency string         `json:"currency,omitempty"`
}

// NewTempCart returns an empty cart with a fresh ID.
func NewTempCart() *TempCart {
	return &TempCart{ID: uuid.NewString(), Items: []TempCartItem{}}
}

// Add merges qty of item into the cart. qty must be positive.
func (c *TempCart) Add(item TempCartItem, qty int) {
	if qty <= 0 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += qty
			if item.Price > 0 {
				c.Items[i].Price = item.Price
			}
			c.Recalculate()
			return
		}
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
	c.Recalculate()
}

// Remove takes qty of productID out of the cart; qty <= 0 drops the line.
// It reports whether the product was in the cart.
func (c *TempCart) Remove(productID string, qty int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if qty <= 0 || qty >= c.Items[i].Quantity {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity -= qty
		}
		c.Recalculate()
		return true
	}
	return false
}

// Recalculate sums price*quantity into Total, rounded to kopecks.
func (c *TempCart) Recalculate() {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	c.Total = math.Round(total*100) / 100
}

// Count is the number of units in the cart.
func (c *TempCart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// OrderItems converts the cart lines into upstream order items.
func (c *TempCart) OrderItems() []marketplace.CartItem {
	items := make([]marketplace.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, marketplace.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return items
}

// CheckoutRequest is the body of POST /api/chat/checkout.
type CheckoutRequest struct {
	TempCart        *TempCart             `json:"tempCart"`
	SessionSettings *SessionSettings      `json:"sessionSettings"`
	Recipient       marketplace.Recipient `json:"recipient"`
	Address         string                `json:"address"`
	DeliveryDate    string                `json:"deliveryDate"`
	Comment         string                `json:"comment"`
}

// GreetingResponse is the body of GET /api/chat/greeting.
type GreetingResponse struct {
	Greeting     string   `json:"greeting"`
	QuickReplies []string `json:"quickReplies"`
}
