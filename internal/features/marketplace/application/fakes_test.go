package application

import (
	"context"
	"errors"
	"sync"

	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/features/marketplace/infrastructure"
)

var errNotStubbed = errors.New("not stubbed")

// fakeClient is an in-memory infrastructure.Client.
type fakeClient struct {
	mu sync.Mutex

	anonCalls   int
	anonToken   *domain.Token
	anonErr     error
	anonStarted chan struct{} // signalled when AnonymousToken is entered
	anonGate    chan struct{} // when set, AnonymousToken waits for it to close
	cities      []domain.City
	citiesErr   error
	citiesCalls int
	searchRes   *domain.SearchResult
	searchErr   error
	lastSearch  domain.SearchParams
	lastToken   string
	orders      []domain.Order
	ordersErr   error
	lastOrder   domain.OrderRequest
}

var _ infrastructure.Client = (*fakeClient)(nil)

func (f *fakeClient) AnonymousToken(ctx context.Context) (*domain.Token, error) {
	if f.anonStarted != nil {
		select {
		case f.anonStarted <- struct{}{}:
		default:
		}
	}
	if f.anonGate != nil {
		select {
		case <-f.anonGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anonCalls++
	if f.anonErr != nil {
		return nil, f.anonErr
	}
	if f.anonToken == nil {
		return &domain.Token{AccessToken: "anon-token", ExpiresIn: 3600, Anonymous: true}, nil
	}
	tok := *f.anonToken
	return &tok, nil
}

func (f *fakeClient) Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error) {
	if creds.Password != "secret" {
		return nil, &infrastructure.UpstreamError{Status: 401, Message: "bad credentials"}
	}
	return &domain.Token{AccessToken: "user-token"}, nil
}

func (f *fakeClient) Cities(ctx context.Context, token string) ([]domain.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.citiesCalls++
	f.lastToken = token
	return f.cities, f.citiesErr
}

func (f *fakeClient) Search(ctx context.Context, token string, params domain.SearchParams) (*domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSearch = params
	f.lastToken = token
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchRes == nil {
		return &domain.SearchResult{}, nil
	}
	res := *f.searchRes
	res.Items = append([]domain.CatalogItem(nil), f.searchRes.Items...)
	return &res, nil
}

func (f *fakeClient) Product(ctx context.Context, token, id string) (*domain.CatalogItem, error) {
	if f.searchRes != nil {
		for _, item := range f.searchRes.Items {
			if item.ID == id {
				it := item
				return &it, nil
			}
		}
	}
	return nil, &infrastructure.UpstreamError{Status: 404, Message: "not found"}
}

func (f *fakeClient) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1"}, nil
}

func (f *fakeClient) AddToCart(ctx context.Context, token string, req domain.AddToCartRequest) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1", Items: []domain.CartItem{{ProductID: req.ProductID, Quantity: req.Quantity}}}, nil
}

func (f *fakeClient) RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1"}, nil
}

func (f *fakeClient) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakeClient) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOrder = req
	return &domain.Order{ID: "o1", Status: "new"}, nil
}

func (f *fakeClient) Profile(ctx context.Context, token string) (*domain.User, error) {
	return nil, errNotStubbed
}
