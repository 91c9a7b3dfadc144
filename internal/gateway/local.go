package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/SampleBias/10x-prompt/internal/models"
)

// LocalProviderName labels results produced by the rule-based rewrite
const LocalProviderName = "Local"

const localModelName = "rule-based"

// localRewrite produces a deterministic enhancement without calling any
// remote API. It always returns non-empty output, which is what guarantees
// the gateway never surfaces provider exhaustion to the caller.
func localRewrite(prompt string, category models.PromptType) string {
	switch category {
	case models.PromptTypeSystem:
		return fmt.Sprintf(
			"You are a helpful, precise assistant. %s Follow these instructions consistently, ask for clarification when a request is ambiguous, and keep responses concise and well structured.",
			prompt)
	case models.PromptTypeImage:
		wrapped, err := json.Marshal(map[string]string{
			"subject":     prompt,
			"style":       "photorealistic, high detail",
			"lighting":    "natural, soft",
			"composition": "balanced, rule of thirds",
			"details":     "sharp focus, rich texture",
		})
		if err != nil {
			return prompt
		}
		return string(wrapped)
	default:
		return fmt.Sprintf(
			"Provide a detailed and specific response about: %s. Include relevant background, concrete examples, and clearly structured reasoning.",
			prompt)
	}
}
