package application

import (
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/features/marketplace/infrastructure"
	"flowerchat/backend/internal/logging"
)

const (
	DefaultSearchLimit = 12
	MaxSearchLimit     = 50
	maxDescriptionLen  = 300
)

// CatalogService searches the upstream catalog.
type CatalogService interface {
	Search(ctx context.Context, token string, params domain.SearchParams) (*domain.SearchResult, error)
	Product(ctx context.Context, token, id string) (*domain.CatalogItem, error)
}

type catalogService struct {
	client infrastructure.Client
	tokens TokenSource
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(client infrastructure.Client, tokens TokenSource) CatalogService {
	return &catalogService{client: client, tokens: tokens}
}

// NormalizeSearchParams applies paging defaults and rejects inverted price ranges.
func NormalizeSearchParams(p domain.SearchParams) (domain.SearchParams, error) {
	p.Query = strings.TrimSpace(p.Query)
	if p.PriceMin < 0 || p.PriceMax < 0 {
		return p, apperr.Validation("prices must not be negative")
	}
	if p.PriceMax > 0 && p.PriceMin > p.PriceMax {
		return p, apperr.Validation("price_min %.0f is greater than price_max %.0f", p.PriceMin, p.PriceMax)
	}
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.Limit > MaxSearchLimit {
		p.Limit = MaxSearchLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p, nil
}

func (s *catalogService) Search(ctx context.Context, token string, params domain.SearchParams) (*domain.SearchResult, error) {
	params, err := NormalizeSearchParams(params)
	if err != nil {
		return nil, err
	}
	token, err = s.tokens.BrowsingToken(ctx, token)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(ctx, token, params)
	if err != nil {
		s.dropRejected(token, err)
		return nil, errors.Wrap(err, "catalog search failed")
	}
	if res.Items == nil {
		res.Items = []domain.CatalogItem{}
	}
	for i := range res.Items {
		res.Items[i].Description = CleanDescription(ctx, res.Items[i].Description)
	}
	logging.FromContext(ctx).WithField("query", params.Query).WithField("city_id", params.CityID).
		WithField("found", len(res.Items)).Debug("catalog search")
	return res, nil
}

func (s *catalogService) Product(ctx context.Context, token, id string) (*domain.CatalogItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("product id is required")
	}
	token, err := s.tokens.BrowsingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	item, err := s.client.Product(ctx, token, id)
	if err != nil {
		s.dropRejected(token, err)
		return nil, errors.Wrapf(err, "failed to fetch product %s", id)
	}
	item.Description = CleanDescription(ctx, item.Description)
	return item, nil
}

func (s *catalogService) dropRejected(token string, err error) {
	if infrastructure.IsUnauthorized(err) {
		s.tokens.Invalidate(token)
	}
}

// CleanDescription converts HTML descriptions to markdown and truncates them.
func CleanDescription(ctx context.Context, desc string) string {
	desc = strings.TrimSpace(desc)
	if strings.Contains(desc, "<") {
		md, err := htmltomarkdown.ConvertString(desc)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Debug("description is not convertible HTML, keeping raw text")
		} else {
			desc = strings.TrimSpace(md)
		}
	}
	return truncateRunes(desc, maxDescriptionLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
