package llm

// modelAliases maps short names to concrete model IDs per backend.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-sonnet": "claude-sonnet-4-5-20250929",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
	"gemini": {
		"gemini-flash": "gemini-2.5-flash",
		"gemini-pro":   "gemini-2.5-pro",
	},
}

// resolveModel returns the concrete ID for an alias, or name unchanged.
func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// ModelCost is USD pricing per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

// LookupCost returns pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	c, ok := modelCosts[modelID]
	if !ok {
		return nil
	}
	return &c
}

var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-5-20250929": {3, 15},
	"gpt-4o":                     {2.5, 10},
	"gpt-4o-2024-08-06":          {2.5, 10},
	"gpt-4o-mini":                {0.15, 0.6},
	"gpt-4o-mini-2024-07-18":     {0.15, 0.6},
	"gpt-4.1":                    {2, 8},
	"gpt-4.1-mini":               {0.4, 1.6},
	"gemini-2.0-flash":           {0.1, 0.4},
	"gemini-2.5-flash":           {0.3, 2.5},
	"gemini-2.5-pro":             {1.25, 10},
}
