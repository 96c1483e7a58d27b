// Package usage normalizes raw token counters into a per-turn summary.
package usage

import (
	"context"

	"interview-agent/internal/catalog"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"
)

// Raw holds the token counters reported by the generation backend.
type Raw struct {
	InputTokens     int `json:"inputTokens"`
	OutputTokens    int `json:"outputTokens"`
	ReasoningTokens int `json:"reasoningTokens,omitempty"`
	TotalTokens     int `json:"totalTokens"`
}

// Add accumulates counters from another step of the same turn.
func (r *Raw) Add(other Raw) {
	r.InputTokens += other.InputTokens
	r.OutputTokens += other.OutputTokens
	r.ReasoningTokens += other.ReasoningTokens
	r.TotalTokens += other.TotalTokens
}

// Summary is the normalized usage record for one turn. When enrichment
// fails the cost fields stay zero and the raw counters pass through
// unchanged.
type Summary struct {
	Raw
	ModelID       string  `json:"modelId,omitempty"`
	InputCostUSD  float64 `json:"inputCostUSD,omitempty"`
	OutputCostUSD float64 `json:"outputCostUSD,omitempty"`
	TotalCostUSD  float64 `json:"totalCostUSD,omitempty"`
	Enriched      bool    `json:"enriched"`
}

// CatalogSource is the pricing lookup consumed by the normalizer.
type CatalogSource interface {
	Lookup(ctx context.Context, modelID string) (catalog.ModelCost, bool)
}

// Normalizer converts raw counters into a Summary using the pricing
// catalog. Normalize never fails: any degradation is logged and the raw
// counters are returned as the summary.
type Normalizer struct {
	catalog CatalogSource
	logger  logger.Logger
}

func NewNormalizer(cat CatalogSource, log logger.Logger) *Normalizer {
	return &Normalizer{
		catalog: cat,
		logger:  log.With(map[string]interface{}{"component": "usage"}),
	}
}

func (n *Normalizer) Normalize(ctx context.Context, raw Raw, modelID string) Summary {
	summary := Summary{Raw: raw, ModelID: modelID}

	metrics.TokensUsed.WithLabelValues("input").Add(float64(raw.InputTokens))
	metrics.TokensUsed.WithLabelValues("output").Add(float64(raw.OutputTokens))
	metrics.TokensUsed.WithLabelValues("reasoning").Add(float64(raw.ReasoningTokens))

	if modelID == "" || n.catalog == nil {
		n.logger.Warn("usage enrichment skipped, returning raw counters", map[string]interface{}{
			"modelId": modelID,
		})
		return summary
	}

	cost, ok := n.catalog.Lookup(ctx, modelID)
	if !ok {
		n.logger.Warn("model not found in pricing catalog, returning raw counters", map[string]interface{}{
			"modelId": modelID,
		})
		return summary
	}

	const mTok = 1_000_000
	summary.InputCostUSD = float64(raw.InputTokens) / mTok * cost.InputPerMTok
	outputCost := cost.OutputPerMTok
	summary.OutputCostUSD = float64(raw.OutputTokens) / mTok * outputCost
	reasoningPer := cost.ReasoningPerMTok
	if reasoningPer == 0 {
		reasoningPer = cost.OutputPerMTok
	}
	reasoningCost := float64(raw.ReasoningTokens) / mTok * reasoningPer
	summary.TotalCostUSD = summary.InputCostUSD + summary.OutputCostUSD + reasoningCost
	summary.Enriched = true

	return summary
}
