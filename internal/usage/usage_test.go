// internal/usage/usage_test.go
package usage

import (
	"context"
	"testing"

	"interview-agent/internal/catalog"
	"interview-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

type stubCatalog struct {
	costs map[string]catalog.ModelCost
}

func (s *stubCatalog) Lookup(ctx context.Context, modelID string) (catalog.ModelCost, bool) {
	cost, ok := s.costs[modelID]
	return cost, ok
}

func TestNormalize_Enriched(t *testing.T) {
	n := NewNormalizer(&stubCatalog{costs: map[string]catalog.ModelCost{
		"deepseek-chat": {InputPerMTok: 0.27, OutputPerMTok: 1.10},
	}}, logger.NewTestLogger(t))

	raw := Raw{InputTokens: 1_000_000, OutputTokens: 500_000, TotalTokens: 1_500_000}
	summary := n.Normalize(context.Background(), raw, "deepseek-chat")

	assert.True(t, summary.Enriched)
	assert.Equal(t, raw, summary.Raw)
	assert.InDelta(t, 0.27, summary.InputCostUSD, 1e-9)
	assert.InDelta(t, 0.55, summary.OutputCostUSD, 1e-9)
	assert.InDelta(t, 0.82, summary.TotalCostUSD, 1e-9)
}

func TestNormalize_ReasoningFallsBackToOutputPrice(t *testing.T) {
	n := NewNormalizer(&stubCatalog{costs: map[string]catalog.ModelCost{
		"deepseek-reasoner": {InputPerMTok: 0.55, OutputPerMTok: 2.19},
	}}, logger.NewTestLogger(t))

	raw := Raw{ReasoningTokens: 1_000_000, TotalTokens: 1_000_000}
	summary := n.Normalize(context.Background(), raw, "deepseek-reasoner")

	assert.True(t, summary.Enriched)
	assert.InDelta(t, 2.19, summary.TotalCostUSD, 1e-9)
}

func TestNormalize_DegradesToRawCounters(t *testing.T) {
	raw := Raw{InputTokens: 12, OutputTokens: 34, TotalTokens: 46}

	tests := []struct {
		name    string
		catalog CatalogSource
		modelID string
	}{
		{name: "unknown model", catalog: &stubCatalog{}, modelID: "mystery-model"},
		{name: "empty model id", catalog: &stubCatalog{}, modelID: ""},
		{name: "nil catalog", catalog: nil, modelID: "deepseek-chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.catalog, logger.NewTestLogger(t))

			summary := n.Normalize(context.Background(), raw, tt.modelID)

			assert.False(t, summary.Enriched)
			assert.Equal(t, raw, summary.Raw)
			assert.Zero(t, summary.TotalCostUSD)
		})
	}
}

func TestRaw_Add(t *testing.T) {
	total := Raw{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}
	total.Add(Raw{InputTokens: 1, OutputTokens: 2, ReasoningTokens: 3, TotalTokens: 6})

	assert.Equal(t, Raw{InputTokens: 11, OutputTokens: 22, ReasoningTokens: 3, TotalTokens: 36}, total)
}
