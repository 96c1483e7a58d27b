// Package catalog fetches and caches the external model pricing catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"

	"golang.org/x/sync/singleflight"
)

// ModelCost holds per-million-token USD prices for one model.
type ModelCost struct {
	InputPerMTok     float64
	OutputPerMTok    float64
	ReasoningPerMTok float64
}

// Catalog maps a model identifier to its pricing.
type Catalog map[string]ModelCost

// Client retrieves the catalog from an external service and caches it
// process-wide. Refreshes are best-effort: a failed fetch leaves the
// previous (possibly empty) catalog in place.
type Client struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger logger.Logger

	group singleflight.Group

	mu        sync.RWMutex
	cached    Catalog
	fetchedAt time.Time
}

func NewClient(url string, timeout, ttl time.Duration, log logger.Logger) *Client {
	return &Client{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: timeout},
		logger: log.With(map[string]interface{}{"component": "catalog"}),
	}
}

// Lookup resolves pricing for a model id. It refreshes the cache when
// stale; a refresh failure degrades to the stale catalog, never an error.
func (c *Client) Lookup(ctx context.Context, modelID string) (ModelCost, bool) {
	cat := c.current(ctx)
	if cat == nil {
		return ModelCost{}, false
	}

	if cost, ok := cat[modelID]; ok {
		return cost, true
	}
	// Catalog entries are keyed provider/model; accept a bare model id too.
	for key, cost := range cat {
		if strings.HasSuffix(key, "/"+modelID) {
			return cost, true
		}
	}
	return ModelCost{}, false
}

func (c *Client) current(ctx context.Context) Catalog {
	c.mu.RLock()
	cat, fetchedAt := c.cached, c.fetchedAt
	c.mu.RUnlock()

	if cat != nil && time.Since(fetchedAt) < c.ttl {
		return cat
	}

	// Single-flight so concurrent turns don't stampede the catalog service.
	fresh, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		metrics.CatalogRefreshFailures.Inc()
		c.logger.Warn("catalog fetch failed, using cached catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return cat
	}

	c.mu.Lock()
	c.cached = fresh.(Catalog)
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return fresh.(Catalog)
}

// catalogDocument mirrors the models.dev api.json layout: providers keyed
// by id, each carrying a models map with per-million-token costs.
type catalogDocument map[string]struct {
	Models map[string]struct {
		Cost struct {
			Input     float64 `json:"input"`
			Output    float64 `json:"output"`
			Reasoning float64 `json:"reasoning"`
		} `json:"cost"`
	} `json:"models"`
}

func (c *Client) fetch(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var doc catalogDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	cat := make(Catalog)
	for provider, p := range doc {
		for modelID, m := range p.Models {
			cat[provider+"/"+modelID] = ModelCost{
				InputPerMTok:     m.Cost.Input,
				OutputPerMTok:    m.Cost.Output,
				ReasoningPerMTok: m.Cost.Reasoning,
			}
		}
	}

	c.logger.Info("pricing catalog refreshed", map[string]interface{}{
		"models": len(cat),
	})
	return cat, nil
}
