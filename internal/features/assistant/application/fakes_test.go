package application

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"flowerchat/backend/internal/features/assistant/infrastructure"
	configdomain "flowerchat/backend/internal/features/config/domain"
	marketplace "flowerchat/backend/internal/features/marketplace/domain"
	mpinfra "flowerchat/backend/internal/features/marketplace/infrastructure"
)

// scriptedLLM replays canned completions and records every request.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []*infrastructure.Completion
	err      error
	requests []infrastructure.CompletionRequest
}

func (l *scriptedLLM) Complete(ctx context.Context, req infrastructure.CompletionRequest) (*infrastructure.Completion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if l.err != nil {
		return nil, l.err
	}
	if len(l.replies) == 0 {
		return &infrastructure.Completion{Content: "done"}, nil
	}
	next := l.replies[0]
	l.replies = l.replies[1:]
	return next, nil
}

func toolReply(calls ...infrastructure.ToolCall) *infrastructure.Completion {
	return &infrastructure.Completion{ToolCalls: calls, StopReason: "tool_calls"}
}

func textReply(text string) *infrastructure.Completion {
	return &infrastructure.Completion{Content: text, StopReason: "stop"}
}

type fakeCities struct {
	cities []marketplace.City
}

func (f *fakeCities) Resolve(ctx context.Context, name string) (marketplace.City, bool, error) {
	for _, c := range f.cities {
		if c.Name == name {
			return c, true, nil
		}
	}
	return marketplace.City{}, false, nil
}

func (f *fakeCities) ByID(ctx context.Context, id int) (marketplace.City, bool, error) {
	for _, c := range f.cities {
		if c.ID == id {
			return c, true, nil
		}
	}
	return marketplace.City{}, false, nil
}

type fakeCatalog struct {
	items      []marketplace.CatalogItem
	lastParams marketplace.SearchParams
	lastToken  string
	searches   int
}

func (f *fakeCatalog) Search(ctx context.Context, token string, params marketplace.SearchParams) (*marketplace.SearchResult, error) {
	f.searches++
	f.lastParams = params
	f.lastToken = token
	var out []marketplace.CatalogItem
	for _, item := range f.items {
		if item.CityID == params.CityID {
			out = append(out, item)
		}
	}
	return &marketplace.SearchResult{Items: out, Total: len(out), Page: 1}, nil
}

func (f *fakeCatalog) Product(ctx context.Context, token, id string) (*marketplace.CatalogItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			it := item
			return &it, nil
		}
	}
	return nil, &mpinfra.UpstreamError{Status: http.StatusNotFound, Path: "/products/" + id, Message: "product not found"}
}

type fakeOrders struct {
	orders    []marketplace.Order
	lastToken string
	created   *marketplace.OrderRequest
}

func (f *fakeOrders) Orders(ctx context.Context, token string) ([]marketplace.Order, error) {
	f.lastToken = token
	return f.orders, nil
}

func (f *fakeOrders) CreateOrder(ctx context.Context, token string, req marketplace.OrderRequest) (*marketplace.Order, error) {
	if token == "" {
		return nil, errors.New("token required")
	}
	f.lastToken = token
	f.created = &req
	return &marketplace.Order{ID: "o-1", Status: "new", Items: req.Items}, nil
}

type staticConfig struct {
	cfg *configdomain.AppConfig
	err error
}

func (s staticConfig) LoadAppConfig() (*configdomain.AppConfig, error) {
	return s.cfg, s.err
}

func testAppConfig() *configdomain.AppConfig {
	return &configdomain.AppConfig{
		SystemPrompt: "You sell flowers.",
		Greeting:     "Hi!",
		ChecklistPrompts: map[string]string{
			ItemRecipient: "Ask who the flowers are for.",
			ItemOccasion:  "Ask about the occasion.",
			ItemCity:      "Ask for the delivery city.",
		},
		QuickReplies:   []string{"For mom"},
		ModelParams:    configdomain.ModelParams{Temperature: 0.2, MaxTokens: 256},
		SearchDefaults: configdomain.SearchDefaults{Limit: 8, Sort: "popular"},
	}
}

var outOfStock = false

var testCatalogItems = []marketplace.CatalogItem{
	{ID: "r1", Name: "Red roses", Price: 2500, Currency: "RUB", CityID: 1},
	{ID: "t1", Name: "Tulips", Price: 1800, Currency: "RUB", CityID: 1},
	{ID: "p1", Name: "Peonies", Price: 4200, Currency: "RUB", CityID: 1, Available: &outOfStock},
	{ID: "n1", Name: "Neftekamsk lilies", Price: 2100, Currency: "RUB", CityID: 3},
}

var testCities = []marketplace.City{{ID: 1, Name: "Москва"}, {ID: 3, Name: "Нефтекамск"}}
