// Package ratefeed supplies fiat exchange-rate snapshots for transaction
// creation. Rates are cached in Redis with a TTL so multiple service
// instances share one upstream quota instead of keeping per-process rate
// maps.
package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/shared"
)

// feedIDs maps currency symbols to the price feed's asset identifiers
var feedIDs = map[shared.Currency]string{
	shared.CurrencyETH:   "ethereum",
	shared.CurrencyMATIC: "matic-network",
	shared.CurrencyUSDC:  "usd-coin",
	shared.CurrencyUSDT:  "tether",
}

// Provider returns the current USD rate for a currency, served from the
// Redis cache when fresh
type Provider struct {
	feedURL    string
	source     string
	cacheTTL   time.Duration
	redis      *redis.Client
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProvider builds a rate provider over the configured feed and cache
func NewProvider(logger *slog.Logger, redisClient *redis.Client, cfg *config.RateFeedConfig) *Provider {
	return &Provider{
		feedURL:    cfg.URL,
		source:     cfg.Source,
		cacheTTL:   cfg.CacheTTL,
		redis:      redisClient,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// CurrentRate returns a rate snapshot for the currency. Cache hits return the
// cached snapshot unchanged so concurrent transaction creations in one TTL
// window record the same rate.
func (p *Provider) CurrentRate(ctx context.Context, currency shared.Currency) (*shared.ExchangeRate, error) {
	cacheKey := "rate:usd:" + string(currency)

	cached, err := p.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var rate shared.ExchangeRate
		if err := json.Unmarshal([]byte(cached), &rate); err == nil {
			return &rate, nil
		}
		// A corrupt cache entry falls through to a fresh fetch
		p.logger.Warn("Discarding unparseable cached rate", "currency", currency)
	} else if err != redis.Nil {
		p.logger.Warn("Rate cache read failed, falling back to feed", "currency", currency, "error", err)
	}

	rate, err := p.fetch(ctx, currency)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(rate); err == nil {
		if err := p.redis.Set(ctx, cacheKey, encoded, p.cacheTTL).Err(); err != nil {
			p.logger.Warn("Failed to cache rate", "currency", currency, "error", err)
		}
	}

	return rate, nil
}

func (p *Provider) fetch(ctx context.Context, currency shared.Currency) (*shared.ExchangeRate, error) {
	feedID, ok := feedIDs[currency]
	if !ok {
		return nil, shared.UnsupportedCurrencyError{Currency: string(currency)}
	}

	query := url.Values{}
	query.Set("ids", feedID)
	query.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate feed request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate feed response: %w", err)
	}

	quote, ok := payload[feedID]["usd"]
	if !ok {
		return nil, fmt.Errorf("rate feed response missing usd quote for %s", feedID)
	}

	return &shared.ExchangeRate{
		Rate:      quote,
		Source:    p.source,
		Timestamp: time.Now().UTC(),
	}, nil
}
