package application

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/features/marketplace/infrastructure"
	"flowerchat/backend/internal/logging"
)

const cityLoadTimeout = 20 * time.Second

// CityCache keeps the upstream city list in memory and resolves
// free-text city names typed by customers.
type CityCache struct {
	client infrastructure.Client
	tokens TokenSource
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	cities   []domain.City
	byName   map[string]domain.City
	byID     map[int]domain.City
	loadedAt time.Time
	group    singleflight.Group
}

// NewCityCache creates a CityCache refreshing every ttl.
func NewCityCache(client infrastructure.Client, tokens TokenSource, ttl time.Duration) *CityCache {
	return &CityCache{client: client, tokens: tokens, ttl: ttl, now: time.Now}
}

// All returns the cached city list, loading it when missing or stale.
// A failed refresh serves the stale list if there is one.
func (c *CityCache) All(ctx context.Context) ([]domain.City, error) {
	c.mu.RLock()
	cities, loadedAt := c.cities, c.loadedAt
	c.mu.RUnlock()

	if cities != nil && c.now().Sub(loadedAt) < c.ttl {
		return cities, nil
	}

	ch := c.group.DoChan("cities", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cityLoadTimeout)
		defer cancel()
		return c.load(fctx)
	})
	var v any
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		v, err = res.Val, res.Err
	}
	if err != nil {
		if cities != nil {
			logging.FromContext(ctx).WithError(err).Warn("city refresh failed, serving stale list")
			return cities, nil
		}
		return nil, err
	}
	return v.([]domain.City), nil
}

func (c *CityCache) load(ctx context.Context) ([]domain.City, error) {
	token, err := c.tokens.BrowsingToken(ctx, "")
	if err != nil {
		return nil, err
	}
	cities, err := c.client.Cities(ctx, token)
	if err != nil {
		if infrastructure.IsUnauthorized(err) {
			c.tokens.Invalidate(token)
		}
		return nil, errors.Wrap(err, "failed to load cities")
	}

	byName := make(map[string]domain.City, len(cities))
	byID := make(map[int]domain.City, len(cities))
	for _, city := range cities {
		byID[city.ID] = city
		key := NormalizeCityName(city.Name)
		// First city wins on duplicate names.
		if _, dup := byName[key]; !dup {
			byName[key] = city
		}
	}
	if cities == nil {
		cities = []domain.City{}
	}

	c.mu.Lock()
	c.cities = cities
	c.byName = byName
	c.byID = byID
	c.loadedAt = c.now()
	c.mu.Unlock()

	logging.FromContext(ctx).WithField("count", len(cities)).Info("city cache loaded")
	return cities, nil
}

// ByID looks a city up by upstream ID.
func (c *CityCache) ByID(ctx context.Context, id int) (domain.City, bool, error) {
	if _, err := c.All(ctx); err != nil {
		return domain.City{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	city, ok := c.byID[id]
	return city, ok, nil
}

// Resolve matches a customer-typed city name. Exact normalised matches
// win; otherwise a unique prefix match is accepted, which also covers
// inflected forms such as "в Нефтекамске".
func (c *CityCache) Resolve(ctx context.Context, name string) (domain.City, bool, error) {
	trimmed := strings.TrimSpace(name)
	if id, err := strconv.Atoi(trimmed); err == nil {
		return c.ByID(ctx, id)
	}

	cities, err := c.All(ctx)
	if err != nil {
		return domain.City{}, false, err
	}
	key := NormalizeCityName(trimmed)
	if key == "" {
		return domain.City{}, false, nil
	}

	c.mu.RLock()
	city, ok := c.byName[key]
	c.mu.RUnlock()
	if ok {
		return city, true, nil
	}

	if city, ok := uniquePrefixMatch(cities, key); ok {
		return city, true, nil
	}
	// Strip up to two trailing runes for case endings (Казани, Нефтекамске).
	stem := key
	for i := 0; i < 2 && utf8.RuneCountInString(stem) > 4; i++ {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
		if city, ok := uniquePrefixMatch(cities, stem); ok {
			return city, true, nil
		}
	}
	return domain.City{}, false, nil
}

func uniquePrefixMatch(cities []domain.City, prefix string) (domain.City, bool) {
	var found domain.City
	matches := 0
	for _, city := range cities {
		if strings.HasPrefix(NormalizeCityName(city.Name), prefix) {
			if matches > 0 && city.ID == found.ID {
				continue
			}
			found = city
			matches++
		}
	}
	return found, matches == 1
}

var cityPrefixes = []string{"город ", "г. ", "г.", "г ", "в ", "во "}

// NormalizeCityName folds case, maps ё to е, drops "г."/"город"/"в"
// prefixes and treats hyphens as spaces.
func NormalizeCityName(name string) string {
	s := cases.Fold().String(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "ё", "е")
	s = strings.ReplaceAll(s, "-", " ")
	for _, p := range cityPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimPrefix(s, p)
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
