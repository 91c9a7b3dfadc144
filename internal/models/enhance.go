package models

// PromptType identifies which optimizer instruction a request uses
type PromptType string

const (
	PromptTypeUser   PromptType = "user"
	PromptTypeSystem PromptType = "system"
	PromptTypeImage  PromptType = "image"
)

// ParsePromptType maps the wire value to a PromptType, defaulting to user
func ParsePromptType(s string) PromptType {
	switch PromptType(s) {
	case PromptTypeSystem:
		return PromptTypeSystem
	case PromptTypeImage:
		return PromptTypeImage
	default:
		return PromptTypeUser
	}
}

// EnhanceRequest is the body of POST /api/enhance
type EnhanceRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
}

// EnhanceMetadata describes which backend produced an enhancement and at what cost
type EnhanceMetadata struct {
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	TimeTaken  float64 `json:"time_taken"` // seconds
	TokenCount int     `json:"token_count"`
}

// EnhanceResponse is the success body of POST /api/enhance
type EnhanceResponse struct {
	EnhancedPrompt string          `json:"enhanced_prompt"`
	OriginalPrompt string          `json:"original_prompt"`
	PromptType     string          `json:"prompt_type"`
	Metadata       EnhanceMetadata `json:"metadata"`
}

// ErrorResponse is the error body for all /api endpoints
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	ErrorType string `json:"error_type"`
}

// userOptimizer rewrites a human prompt into a higher-signal variant.
// The instruction text follows the original prompt-engineering wording closely:
// the model must answer with the rewritten prompt only, no commentary.
const userOptimizer = `As an expert AI prompt engineer who knows how to interpret an average humans prompt and rewrite it in a way that increases the probability of the model generating the most useful possible response to any specific human prompt. In response to the user prompts, you do not respond as an AI assistant. You only respond with an improved variation of the users prompt, with no explanations before or after the prompt of why it is better. Do not generate anything but the expert prompt engineers modified version of the users prompt. If the prompt is in a conversation with more than one human prompt, the whole conversation will be given as context for you to evaluate how to construct the best possible response in that part of the conversation. Do not generate anything besides the optimized prompt with no headers or explanations of the optimized prompt.`

const systemOptimizer = `As an expert AI prompt engineer specialized in system prompt design, your task is to improve system prompts that control AI behavior. System prompts are instructions that define how an AI assistant behaves, responds, and processes information.

When given a basic system prompt, enhance it to be more effective by:
1. Making it more precise and specific
2. Ensuring consistency in tone and behavior
3. Adding necessary constraints or freedoms
4. Improving clarity and reducing ambiguity
5. Ensuring the instructions are comprehensive

Only respond with the enhanced system prompt. Do not include explanations, headers, or any other text. Your response should be ready to copy and paste as a system prompt.`

const imageOptimizer = `As an expert image-generation prompt engineer, expand the user's idea into a detailed image prompt. Respond with a single JSON object and nothing else, using exactly these keys: "subject", "style", "lighting", "composition", "details". Each value is a short descriptive string. Do not include markdown fences, explanations, or any text outside the JSON object.`

// InstructionFor returns the system instruction for a prompt category
func InstructionFor(t PromptType) string {
	switch t {
	case PromptTypeSystem:
		return systemOptimizer
	case PromptTypeImage:
		return imageOptimizer
	default:
		return userOptimizer
	}
}
