package llm

// Role identifies the author of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the endpoint accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ChatMessage is a single role-tagged turn in a conversation.
// Values are treated as immutable once created.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationParams holds the sampling parameters sent with every completion request.
type GenerationParams struct {
	// MaxTokens is the maximum number of new tokens to generate.
	MaxTokens int

	// Temperature controls randomness. 1 is more random, 0 is less.
	Temperature float64

	// TopP is a probability mass in [0,1]. It is encoded as a JSON number,
	// so the default of 1 goes over the wire as `1`.
	TopP float64

	// RepetitionPenalty penalizes repeated tokens.
	RepetitionPenalty float64
}

// DefaultGenerationParams returns the parameters used when none are configured.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxTokens:         400,
		Temperature:       1.0,
		TopP:              1,
		RepetitionPenalty: 1.2,
	}
}
