package domain

// City is a delivery city known to the marketplace.
type City struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	Slug   string `json:"slug,omitempty"`
}

// CatalogItem is a bouquet or gift offered by a shop.
type CatalogItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	OldPrice    float64 `json:"old_price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	URL         string  `json:"url,omitempty"`
	Category    string  `json:"category,omitempty"`
	ShopName    string  `json:"shop_name,omitempty"`
	CityID      int     `json:"city_id,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// InStock reports whether the item can be ordered. Items the upstream
// does not flag either way count as available.
func (c CatalogItem) InStock() bool {
	return c.Available == nil || *c.Available
}

// SearchParams are the catalog search filters accepted by the upstream API.
type SearchParams struct {
	Query    string  `json:"query,omitempty" form:"query"`
	CityID   int     `json:"city_id,omitempty" form:"city_id"`
	PriceMin float64 `json:"price_min,omitempty" form:"price_min"`
	PriceMax float64 `json:"price_max,omitempty" form:"price_max"`
	Category string  `json:"category,omitempty" form:"category"`
	Sort     string  `json:"sort,omitempty" form:"sort"`
	Page     int     `json:"page,omitempty" form:"page"`
	Limit    int     `json:"limit,omitempty" form:"limit"`
}

// SearchResult is one page of catalog items.
type SearchResult struct {
	Items []CatalogItem `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
}

// CartItem is a line in the upstream cart.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Cart is the upstream shopping cart bound to a token.
type Cart struct {
	ID       string     `json:"id"`
	Items    []CartItem `json:"items"`
	Total    float64    `json:"total"`
	Currency string     `json:"currency,omitempty"`
}

// AddToCartRequest adds a product to the upstream cart.
type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// Recipient is the person receiving the delivery.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Order is a placed order as reported by the upstream API.
type Order struct {
	ID           string     `json:"id"`
	Number       string     `json:"number,omitempty"`
	Status       string     `json:"status"`
	Total        float64    `json:"total"`
	Currency     string     `json:"currency,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
	Items        []CartItem `json:"items,omitempty"`
	Recipient    *Recipient `json:"recipient,omitempty"`
	DeliveryDate string     `json:"delivery_date,omitempty"`
	Address      string     `json:"address,omitempty"`
}

// OrderRequest creates an order.
type OrderRequest struct {
	Items        []CartItem `json:"items"`
	Recipient    Recipient  `json:"recipient"`
	Address      string     `json:"address,omitempty"`
	DeliveryDate string     `json:"delivery_date,omitempty"`
	Comment      string     `json:"comment,omitempty"`
	CityID       int        `json:"city_id,omitempty"`
}

// User is the authenticated customer profile.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Credentials are forwarded to the upstream login endpoint.
type Credentials struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Token is a bearer credential issued by the upstream API.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // seconds
	Anonymous   bool   `json:"anonymous"`
}
