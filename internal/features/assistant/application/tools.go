package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/pkg/errors"

	"flowerchat/backend/internal/features/assistant/domain"
	"flowerchat/backend/internal/features/assistant/infrastructure"
	configdomain "flowerchat/backend/internal/features/config/domain"
	marketplace "flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/logging"
)

// Tool names advertised to the model.
const (
	ToolResolveCity    = "resolve_city"
	ToolSearchCatalog  = "search_catalog"
	ToolGetProduct     = "get_product"
	ToolAddToCart      = "add_to_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolViewCart       = "view_cart"
	ToolUpdateSession  = "update_session"
	ToolListOrders     = "list_orders"
)

// MaxProducts caps the products returned with one chat reply.
const MaxProducts = 12

// CityResolver is the part of the city cache the tools need.
type CityResolver interface {
	Resolve(ctx context.Context, name string) (marketplace.City, bool, error)
	ByID(ctx context.Context, id int) (marketplace.City, bool, error)
}

// Catalog is the part of the catalog service the tools need.
type Catalog interface {
	Search(ctx context.Context, token string, params marketplace.SearchParams) (*marketplace.SearchResult, error)
	Product(ctx context.Context, token, id string) (*marketplace.CatalogItem, error)
}

// Orders lists the caller's orders.
type Orders interface {
	Orders(ctx context.Context, token string) ([]marketplace.Order, error)
}

// Session is the mutable state one chat message threads through its tool calls.
type Session struct {
	Token    string
	Settings *domain.SessionSettings
	Cart     *domain.TempCart
	Products []marketplace.CatalogItem
	Search   configdomain.SearchDefaults
}

func (s *Session) collect(items ...marketplace.CatalogItem) {
	for _, item := range items {
		if len(s.Products) >= MaxProducts {
			return
		}
		if s.product(item.ID) != nil {
			continue
		}
		s.Products = append(s.Products, item)
	}
}

func (s *Session) product(id string) *marketplace.CatalogItem {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return &s.Products[i]
		}
	}
	return nil
}

// Toolbox advertises the assistant tools and executes the model's calls.
type Toolbox struct {
	cities  CityResolver
	catalog Catalog
	orders  Orders
}

// NewToolbox creates a Toolbox.
func NewToolbox(cities CityResolver, catalog Catalog, orders Orders) *Toolbox {
	return &Toolbox{cities: cities, catalog: catalog, orders: orders}
}

var toolDefinitions = []infrastructure.ToolDefinition{
	{
		Name:        ToolResolveCity,
		Description: "Find the delivery city by name and remember it for this conversation.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"name":{"type":"string","description":"City name as the customer wrote it"}},
			"required":["name"]}`),
	},
	{
		Name:        ToolSearchCatalog,
		Description: "Search bouquets and gifts deliverable in the city. Uses the remembered city when city is omitted.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"query":{"type":"string","description":"Search words, e.g. red roses"},
			"city":{"type":"string","description":"Delivery city name"},
			"price_min":{"type":"number"},
			"price_max":{"type":"number"},
			"category":{"type":"string"},
			"sort":{"type":"string","enum":["popular","price_asc","price_desc","new"]},
			"limit":{"type":"integer","minimum":1,"maximum":20}}}`),
	},
	{
		Name:        ToolGetProduct,
		Description: "Get details of one product by id.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"product_id":{"type":"string"}},"required":["product_id"]}`),
	},
	{
		Name:        ToolAddToCart,
		Description: "Add a product to the customer's cart.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"product_id":{"type":"string"},
			"quantity":{"type":"integer","minimum":1}},"required":["product_id"]}`),
	},
	{
		Name:        ToolRemoveFromCart,
		Description: "Remove a product from the cart. Omit quantity to remove the whole line.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"product_id":{"type":"string"},
			"quantity":{"type":"integer","minimum":1}},"required":["product_id"]}`),
	},
	{
		Name:        ToolViewCart,
		Description: "Show the cart contents and total.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	},
	{
		Name:        ToolUpdateSession,
		Description: "Remember who the flowers are for, the occasion and the budget.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"recipient":{"type":"string"},
			"occasion":{"type":"string"},
			"budget_min":{"type":"number"},
			"budget_max":{"type":"number"}}}`),
	},
	{
		Name:        ToolListOrders,
		Description: "List the logged-in customer's orders and their statuses.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	},
}

// Definitions returns the tool schemas for the model.
func (t *Toolbox) Definitions() []infrastructure.ToolDefinition {
	return toolDefinitions
}

// Dispatch runs one tool call against the session and returns the JSON
// result for the model. Failures become {"error": ...} results.
func (t *Toolbox) Dispatch(ctx context.Context, s *Session, call infrastructure.ToolCall) string {
	log := logging.FromContext(ctx).WithField("tool", call.Name)

	result, err := t.run(ctx, s, call)
	if err != nil {
		log.WithError(err).Info("tool call failed")
		return encodeResult(map[string]string{"error": err.Error()})
	}
	log.Debug("tool call done")
	return encodeResult(result)
}

func (t *Toolbox) run(ctx context.Context, s *Session, call infrastructure.ToolCall) (any, error) {
	switch call.Name {
	case ToolResolveCity:
		var args struct {
			Name string `json:"name"`
		}
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return t.resolveCity(ctx, s, args.Name)
	case ToolSearchCatalog:
		var args searchArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return t.search(ctx, s, args)
	case ToolGetProduct:
		var args cartArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		item, err := t.lookup(ctx, s, args.ProductID)
		if err != nil {
			return nil, err
		}
		return productView(*item), nil
	case ToolAddToCart:
		var args cartArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return t.addToCart(ctx, s, args)
	case ToolRemoveFromCart:
		var args cartArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if args.ProductID == "" {
			return nil, errors.New("product_id is required")
		}
		if !s.Cart.Remove(string(args.ProductID), int(args.Quantity)) {
			return nil, errors.Errorf("product %s is not in the cart", args.ProductID)
		}
		return s.Cart, nil
	case ToolViewCart:
		return s.Cart, nil
	case ToolUpdateSession:
		var args sessionArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return updateSession(s, args)
	case ToolListOrders:
		if s.Token == "" {
			return nil, errors.New("the customer is not logged in; ask them to log in to see their orders")
		}
		orders, err := t.orders.Orders(ctx, s.Token)
		if err != nil {
			return nil, err
		}
		return map[string]any{"orders": orders}, nil
	default:
		return nil, errors.Errorf("unknown tool %q", call.Name)
	}
}

type searchArgs struct {
	Query    string     `json:"query"`
	City     flexString `json:"city"`
	PriceMin flexNumber `json:"price_min"`
	PriceMax flexNumber `json:"price_max"`
	Category string     `json:"category"`
	Sort     string     `json:"sort"`
	Limit    flexNumber `json:"limit"`
}

type cartArgs struct {
	ProductID flexString `json:"product_id"`
	Quantity  flexNumber `json:"quantity"`
}

type sessionArgs struct {
	Recipient string     `json:"recipient"`
	Occasion  string     `json:"occasion"`
	BudgetMin flexNumber `json:"budget_min"`
	BudgetMax flexNumber `json:"budget_max"`
}

func (t *Toolbox) resolveCity(ctx context.Context, s *Session, name string) (any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("city name is required")
	}
	city, ok, err := t.cities.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("no delivery to %q; ask the customer for another city", name)
	}
	s.Settings.CityID = city.ID
	s.Settings.CityName = city.Name
	return city, nil
}

func (t *Toolbox) search(ctx context.Context, s *Session, args searchArgs) (any, error) {
	if city := strings.TrimSpace(string(args.City)); city != "" {
		if _, err := t.resolveCity(ctx, s, city); err != nil {
			return nil, err
		}
	}
	if s.Settings.CityID == 0 {
		return nil, errors.New("delivery city is unknown; ask the customer which city to deliver to")
	}

	params := marketplace.SearchParams{
		Query:    strings.TrimSpace(args.Query),
		CityID:   s.Settings.CityID,
		PriceMin: float64(args.PriceMin),
		PriceMax: float64(args.PriceMax),
		Category: args.Category,
		Sort:     args.Sort,
		Limit:    int(args.Limit),
	}
	if params.PriceMin == 0 {
		params.PriceMin = s.Settings.BudgetMin
	}
	if params.PriceMax == 0 {
		params.PriceMax = s.Settings.BudgetMax
	}
	if params.Limit <= 0 {
		params.Limit = s.Search.Limit
	}
	if params.Sort == "" {
		params.Sort = s.Search.Sort
	}

	res, err := t.catalog.Search(ctx, s.Token, params)
	if err != nil {
		return nil, err
	}
	s.collect(res.Items...)

	views := make([]map[string]any, 0, len(res.Items))
	for _, item := range res.Items {
		views = append(views, productView(item))
	}
	return map[string]any{"city": s.Settings.CityName, "total": res.Total, "items": views}, nil
}

// lookup prefers products already shown in this turn over an upstream call.
func (t *Toolbox) lookup(ctx context.Context, s *Session, id flexString) (*marketplace.CatalogItem, error) {
	if id == "" {
		return nil, errors.New("product_id is required")
	}
	if item := s.product(string(id)); item != nil {
		return item, nil
	}
	item, err := t.catalog.Product(ctx, s.Token, string(id))
	if err != nil {
		return nil, err
	}
	s.collect(*item)
	return item, nil
}

func (t *Toolbox) addToCart(ctx context.Context, s *Session, args cartArgs) (any, error) {
	qty := int(args.Quantity)
	if qty < 0 {
		return nil, errors.New("quantity must be positive")
	}
	if qty == 0 {
		qty = 1
	}
	item, err := t.lookup(ctx, s, args.ProductID)
	if err != nil {
		return nil, err
	}
	if !item.InStock() {
		return nil, errors.Errorf("%s is not available right now", item.Name)
	}
	if s.Cart.Currency == "" {
		s.Cart.Currency = item.Currency
	}
	s.Cart.Add(domain.TempCartItem{
		ProductID: item.ID,
		Name:      item.Name,
		Price:     item.Price,
		ImageURL:  item.ImageURL,
	}, qty)
	return s.Cart, nil
}

func updateSession(s *Session, args sessionArgs) (any, error) {
	minB, maxB := float64(args.BudgetMin), float64(args.BudgetMax)
	if minB < 0 || maxB < 0 {
		return nil, errors.New("budget cannot be negative")
	}
	if minB > 0 && maxB > 0 && minB > maxB {
		return nil, errors.New("budget_min is greater than budget_max")
	}
	if v := strings.TrimSpace(args.Recipient); v != "" {
		s.Settings.Recipient = v
	}
	if v := strings.TrimSpace(args.Occasion); v != "" {
		s.Settings.Occasion = v
	}
	if minB > 0 {
		s.Settings.BudgetMin = minB
	}
	if maxB > 0 {
		s.Settings.BudgetMax = maxB
	}
	return map[string]any{
		"session": s.Settings,
		"missing": NewChecklist(s.Settings).Missing(),
	}, nil
}

func productView(item marketplace.CatalogItem) map[string]any {
	v := map[string]any{
		"id":        item.ID,
		"name":      item.Name,
		"price":     item.Price,
		"available": item.InStock(),
	}
	if item.Currency != "" {
		v["currency"] = item.Currency
	}
	if item.Description != "" {
		v["description"] = item.Description
	}
	if item.Category != "" {
		v["category"] = item.Category
	}
	return v
}

// decodeArgs unmarshals tool arguments, repairing malformed JSON first.
func decodeArgs(raw string, v any) error {
	raw = infrastructure.StripCodeFence(raw)
	if raw == "" {
		raw = "{}"
	}
	err := json.Unmarshal([]byte(raw), v)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return errors.Wrap(err, "invalid tool arguments")
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return errors.Wrap(err, "invalid tool arguments")
	}
	return nil
}

func encodeResult(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"could not encode tool result"}`
	}
	return string(b)
}

// flexNumber accepts 3000, 3000.5 or "3000" from the model.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, " ", ""), 64)
	if err != nil {
		return errors.Errorf("not a number: %s", b)
	}
	*n = flexNumber(f)
	return nil
}

// flexString accepts "p1" or 42 from the model.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.Errorf("not a string: %s", b)
	}
	*s = flexString(num.String())
	return nil
}
