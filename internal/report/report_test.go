package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-engine/internal/config"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/pkg/anthropic"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func testAnalysis() (model.Event, model.EventRiskSummary, []model.Projection) {
	event := model.Event{
		ID:      "evt-1",
		Type:    model.EventClimatic,
		Subtype: "inondation",
		Title:   "Crue majeure de la Seine",
	}
	summary := model.EventRiskSummary{
		EventID:                   "evt-1",
		OverallRiskLevel:          model.RiskLevelCritical,
		OverallRiskScore360:       90,
		BusinessInterruptionScore: 84,
		ConcernedCount:            1,
		AffectedSites:             []string{"Usine Rouen"},
	}
	projections := []model.Projection{
		{
			EventID:                 "evt-1",
			EntityID:                "site-1",
			EntityName:              "Usine Rouen",
			EntityKind:              model.KindSite,
			IsConcerned:             true,
			Severity:                90,
			Probability:             100,
			Exposure:                80,
			Urgency:                 90,
			RiskScore360:            90,
			EstimatedDisruptionDays: 17,
			BusinessImpact: &model.BusinessImpact{
				DailyRevenueLoss: 50000,
				TotalDailyImpact: 50000,
			},
			Reasoning: model.Reasoning{
				Applicability: "entity at 0.0 km, inside 200 km radius",
				Criticality: &model.CriticalityAssessment{
					Tier:        model.TierCritical,
					Urgency:     5,
					Mitigations: []string{"activer le site de repli"},
				},
			},
		},
		{
			EventID:    "evt-1",
			EntityID:   "sup-1",
			EntityName: "Fournisseur Berlin",
			EntityKind: model.KindSupplier,
		},
	}
	return event, summary, projections
}

func TestExecutive_TemplateFallbackWithoutClient(t *testing.T) {
	gen := New(nil, config.AnthropicConfig{})
	event, summary, projections := testAnalysis()

	out, err := gen.Executive(context.Background(), event, summary, projections)
	require.NoError(t, err)

	assert.Contains(t, out, "Crue majeure de la Seine")
	assert.Contains(t, out, "CRITIQUE")
	assert.Contains(t, out, "Usine Rouen")
	assert.Contains(t, out, "17 days")
	assert.Contains(t, out, "50000 EUR")
	assert.Contains(t, out, "activer le site de repli")
	// Not concerned entities stay out of the brief.
	assert.NotContains(t, out, "Fournisseur Berlin")
}

func TestExecutive_CallsClientWithAnalysisPrompt(t *testing.T) {
	mc := new(mockClient)
	cfg := config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929", MaxTokens: 2048}
	gen := New(mc, cfg)
	event, summary, projections := testAnalysis()

	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		if req.Model != cfg.Model || req.MaxTokens != cfg.MaxTokens {
			return false
		}
		if len(req.System) != 1 || req.System[0].CacheControl == nil {
			return false
		}
		require.Len(t, req.Messages, 1)
		prompt := req.Messages[0].Content
		return assert.Contains(t, prompt, "Crue majeure de la Seine") &&
			assert.Contains(t, prompt, "Usine Rouen") &&
			assert.Contains(t, prompt, "360=90.0")
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Brief exécutif."}},
		Usage:   anthropic.TokenUsage{InputTokens: 1200, OutputTokens: 300},
	}, nil)

	out, err := gen.Executive(context.Background(), event, summary, projections)
	require.NoError(t, err)
	assert.Equal(t, "Brief exécutif.", out)
	mc.AssertExpectations(t)
}

func TestExecutive_WrapsClientError(t *testing.T) {
	mc := new(mockClient)
	gen := New(mc, config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"})
	event, summary, projections := testAnalysis()

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := gen.Executive(context.Background(), event, summary, projections)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report: generate brief for event evt-1")
}

func TestExecutive_EmptyResponseIsError(t *testing.T) {
	mc := new(mockClient)
	gen := New(mc, config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"})
	event, summary, projections := testAnalysis()

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "tool_use"}},
	}, nil)

	_, err := gen.Executive(context.Background(), event, summary, projections)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestBuildPrompt_SortsAndCapsEntities(t *testing.T) {
	event, summary, _ := testAnalysis()

	projections := make([]model.Projection, 0, 40)
	for i := range 40 {
		projections = append(projections, model.Projection{
			EntityName:   "Site",
			EntityKind:   model.KindSite,
			IsConcerned:  true,
			RiskScore360: float64(i),
		})
	}

	prompt := buildPrompt(event, summary, projections)

	// Highest scoring entity survives the cap, lowest does not.
	assert.Contains(t, prompt, "360=39.0")
	assert.NotContains(t, prompt, "360=0.0")
}
