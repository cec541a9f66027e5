package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/logging"
)

const maxErrorBody = 512

// Client is the upstream e-commerce REST API. Every call forwards the
// caller's bearer token; an empty token sends no Authorization header.
type Client interface {
	AnonymousToken(ctx context.Context) (*domain.Token, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error)
	Cities(ctx context.Context, token string) ([]domain.City, error)
	Search(ctx context.Context, token string, params domain.SearchParams) (*domain.SearchResult, error)
	Product(ctx context.Context, token, id string) (*domain.CatalogItem, error)
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddToCart(ctx context.Context, token string, req domain.AddToCartRequest) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error)
	Orders(ctx context.Context, token string) ([]domain.Order, error)
	CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, error)
	Profile(ctx context.Context, token string) (*domain.User, error)
}

// UpstreamError is a non-2xx answer from the marketplace API.
type UpstreamError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("marketplace %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// HTTPStatus maps the upstream status onto the status returned to our callers.
func (e *UpstreamError) HTTPStatus() int {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return http.StatusUnauthorized
	case http.StatusNotFound:
		return http.StatusNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// IsUnauthorized reports whether err is an upstream 401/403.
func IsUnauthorized(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && (ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden)
}

// TransportError is a failure to reach the marketplace at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string   { return "marketplace unreachable: " + e.Err.Error() }
func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) HTTPStatus() int { return http.StatusBadGateway }

type apiClient struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the marketplace API at base.
func NewClient(base string, timeout time.Duration) Client {
	return NewClientWithHTTP(base, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP returns a Client using the given http.Client.
func NewClientWithHTTP(base string, hc *http.Client) Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &apiClient{base: strings.TrimRight(base, "/"), http: hc}
}

func (c *apiClient) AnonymousToken(ctx context.Context) (*domain.Token, error) {
	var out domain.Token
	if err := c.do(ctx, http.MethodPost, "/auth/anonymous", "", nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	out.Anonymous = true
	return &out, nil
}

func (c *apiClient) Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error) {
	var out domain.Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, creds, &out); err != nil {
		return nil, err
	}
	out.Anonymous = false
	return &out, nil
}

func (c *apiClient) Cities(ctx context.Context, token string) ([]domain.City, error) {
	var out struct {
		Cities []domain.City `json:"cities"`
	}
	if err := c.do(ctx, http.MethodGet, "/cities", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Cities, nil
}

func (c *apiClient) Search(ctx context.Context, token string, params domain.SearchParams) (*domain.SearchResult, error) {
	var out domain.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search", token, SearchQuery(params), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Product(ctx context.Context, token, id string) (*domain.CatalogItem, error) {
	var out domain.CatalogItem
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) AddToCart(ctx context.Context, token string, req domain.AddToCartRequest) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, http.MethodPost, "/cart/items", token, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(productID), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *apiClient) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", token, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Profile(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchQuery maps search filters onto the upstream query string. Zero
// values are omitted.
func SearchQuery(p domain.SearchParams) url.Values {
	q := url.Values{}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.CityID > 0 {
		q.Set("city_id", strconv.Itoa(p.CityID))
	}
	if p.PriceMin > 0 {
		q.Set("price_from", strconv.FormatFloat(p.PriceMin, 'f', -1, 64))
	}
	if p.PriceMax > 0 {
		q.Set("price_to", strconv.FormatFloat(p.PriceMax, 'f', -1, 64))
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("per_page", strconv.Itoa(p.Limit))
	}
	return q
}

func (c *apiClient) do(ctx context.Context, method, path, token string, query url.Values, in any, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logging.FromContext(ctx).WithField("upstream", method+" "+path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s %s", method, path)
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	log.WithField("status", resp.StatusCode).WithField("took_ms", time.Since(start).Milliseconds()).Debug("marketplace call")

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &UpstreamError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: upstreamMessage(raw, resp.Status),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

// upstreamMessage extracts a human message from an error body.
func upstreamMessage(raw []byte, status string) string {
	var envelope struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		switch v := envelope.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return status
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
