package llm

import (
	"fmt"
	"strings"
)

// Normalizer reshapes a conversation before it is serialized for the endpoint.
// Implementations must not mutate the input slice.
type Normalizer interface {
	Normalize(messages []ChatMessage) []ChatMessage
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(messages []ChatMessage) []ChatMessage

// Normalize calls f(messages).
func (f NormalizerFunc) Normalize(messages []ChatMessage) []ChatMessage {
	return f(messages)
}

// NopNormalizer passes messages through unchanged.
type NopNormalizer struct{}

// Normalize returns a copy of messages.
func (NopNormalizer) Normalize(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(messages))
	copy(out, messages)
	return out
}

// SquashNormalizer merges consecutive turns that share a role.
// Merged contents are joined with a blank line.
type SquashNormalizer struct{}

// Normalize squashes runs of same-role turns into one turn.
func (SquashNormalizer) Normalize(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content = out[n-1].Content + "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}

// SystemSquashNormalizer folds a leading system turn into the first user turn,
// for models whose chat template has no system role.
type SystemSquashNormalizer struct{}

// Normalize returns messages unchanged unless they start with a system turn
// followed by at least one more turn.
func (SystemSquashNormalizer) Normalize(messages []ChatMessage) []ChatMessage {
	if len(messages) < 2 || messages[0].Role != RoleSystem {
		return NopNormalizer{}.Normalize(messages)
	}

	out := make([]ChatMessage, 0, len(messages)-1)
	out = append(out, ChatMessage{
		Role:    RoleUser,
		Content: squashSystemPrompt(messages[0].Content, messages[1].Content),
	})
	return append(out, messages[2:]...)
}

func squashSystemPrompt(system, user string) string {
	var b strings.Builder
	b.WriteString("### Instructions ###\n\n")
	b.WriteString(system)
	b.WriteString("\n\n######\n\n")
	b.WriteString(user)
	return b.String()
}

// NormalizerByName resolves a configured normalizer name.
// The empty string selects NopNormalizer.
func NormalizerByName(name string) (Normalizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nop", "none":
		return NopNormalizer{}, nil
	case "squash":
		return SquashNormalizer{}, nil
	case "system_squash", "system-squash":
		return SystemSquashNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unknown chat normalizer: %q", name)
	}
}
