package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/marketplace/application"
	"flowerchat/backend/internal/features/marketplace/domain"
)

// MarketplaceHandler exposes the upstream API to the web frontend.
type MarketplaceHandler struct {
	auth    application.AuthService
	cities  *application.CityCache
	catalog application.CatalogService
	orders  application.OrderService
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(auth application.AuthService, cities *application.CityCache, catalog application.CatalogService, orders application.OrderService) *MarketplaceHandler {
	return &MarketplaceHandler{auth: auth, cities: cities, catalog: catalog, orders: orders}
}

// Register mounts the marketplace routes on group.
func (h *MarketplaceHandler) Register(group *gin.RouterGroup) {
	group.POST("/auth/anonymous", h.AnonymousTokenHandler)
	group.POST("/auth/login", h.LoginHandler)
	group.GET("/cities", h.CitiesHandler)
	group.GET("/cities/resolve", h.ResolveCityHandler)
	group.GET("/catalog/search", h.SearchHandler)
	group.GET("/catalog/products/:id", h.ProductHandler)
	group.GET("/cart", h.CartHandler)
	group.POST("/cart/items", h.AddToCartHandler)
	group.DELETE("/cart/items/:id", h.RemoveFromCartHandler)
	group.GET("/orders", h.OrdersHandler)
	group.POST("/orders", h.CreateOrderHandler)
	group.GET("/user", h.ProfileHandler)
}

// AnonymousTokenHandler issues an anonymous token for a new browser session.
func (h *MarketplaceHandler) AnonymousTokenHandler(c *gin.Context) {
	tok, err := h.auth.AnonymousToken(c.Request.Context())
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

// LoginHandler exchanges credentials for a user token.
func (h *MarketplaceHandler) LoginHandler(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

// CitiesHandler returns the cached delivery city list.
func (h *MarketplaceHandler) CitiesHandler(c *gin.Context) {
	cities, err := h.cities.All(c.Request.Context())
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// ResolveCityHandler matches ?name= against the city list.
func (h *MarketplaceHandler) ResolveCityHandler(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	city, ok, err := h.cities.Resolve(c.Request.Context(), name)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "city not found: " + name})
		return
	}
	c.JSON(http.StatusOK, city)
}

// SearchHandler searches the catalog with query-string filters.
func (h *MarketplaceHandler) SearchHandler(c *gin.Context) {
	var params domain.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.catalog.Search(c.Request.Context(), Token(c), params)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ProductHandler returns a single catalog item.
func (h *MarketplaceHandler) ProductHandler(c *gin.Context) {
	item, err := h.catalog.Product(c.Request.Context(), Token(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CartHandler returns the caller's upstream cart.
func (h *MarketplaceHandler) CartHandler(c *gin.Context) {
	cart, err := h.orders.Cart(c.Request.Context(), Token(c))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCartHandler adds a product to the caller's upstream cart.
func (h *MarketplaceHandler) AddToCartHandler(c *gin.Context) {
	var req domain.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.orders.AddToCart(c.Request.Context(), Token(c), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveFromCartHandler removes a product from the caller's upstream cart.
func (h *MarketplaceHandler) RemoveFromCartHandler(c *gin.Context) {
	cart, err := h.orders.RemoveFromCart(c.Request.Context(), Token(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// OrdersHandler lists the caller's orders.
func (h *MarketplaceHandler) OrdersHandler(c *gin.Context) {
	orders, err := h.orders.Orders(c.Request.Context(), Token(c))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CreateOrderHandler places an order.
func (h *MarketplaceHandler) CreateOrderHandler(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), Token(c), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ProfileHandler returns the authenticated user.
func (h *MarketplaceHandler) ProfileHandler(c *gin.Context) {
	user, err := h.orders.Profile(c.Request.Context(), Token(c))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
