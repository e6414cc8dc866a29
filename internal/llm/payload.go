package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	defaultTopK = 50
	stopToken   = "</s>"
)

// Payload is the request body expected by a managed online endpoint.
type Payload struct {
	InputData InputData `json:"input_data"`
}

// InputData nests the conversation next to its generation parameters.
type InputData struct {
	InputString []ChatMessage `json:"input_string"`
	Parameters  Parameters    `json:"parameters"`
}

// Parameters is the generation parameter block of a Payload.
// Stop and StopSequences carry the same values; different serving
// runtimes read one or the other.
type Parameters struct {
	MaxNewTokens      int      `json:"max_new_tokens"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p"`
	TopK              int      `json:"top_k"`
	Stop              []string `json:"stop"`
	StopSequences     []string `json:"stop_sequences"`
	ReturnFullText    bool     `json:"return_full_text"`
	RepetitionPenalty float64  `json:"repetition_penalty"`
}

// Request is a fully built endpoint call: serialized body plus headers.
type Request struct {
	Body   []byte
	Header http.Header
}

// MessageError reports a malformed turn in the history handed to the builder.
type MessageError struct {
	Index  int
	Reason string
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("invalid message at index %d: %s", e.Index, e.Reason)
}

// RequestBuilder turns a normalized conversation into an endpoint Request.
// It holds no mutable state and is safe for concurrent use.
type RequestBuilder struct {
	apiKey string
}

// NewRequestBuilder creates a RequestBuilder that authenticates with apiKey.
func NewRequestBuilder(apiKey string) *RequestBuilder {
	return &RequestBuilder{apiKey: apiKey}
}

// BuildPayload assembles the payload for messages and params.
func BuildPayload(messages []ChatMessage, params GenerationParams) (Payload, error) {
	if len(messages) == 0 {
		return Payload{}, &MessageError{Index: 0, Reason: "conversation is empty"}
	}

	input := make([]ChatMessage, len(messages))
	for i, m := range messages {
		if !m.Role.Valid() {
			return Payload{}, &MessageError{Index: i, Reason: fmt.Sprintf("unknown role %q", m.Role)}
		}
		input[i] = m
	}

	return Payload{
		InputData: InputData{
			InputString: input,
			Parameters: Parameters{
				MaxNewTokens:      params.MaxTokens,
				Temperature:       params.Temperature,
				TopP:              params.TopP,
				TopK:              defaultTopK,
				Stop:              []string{stopToken},
				StopSequences:     []string{stopToken},
				ReturnFullText:    false,
				RepetitionPenalty: params.RepetitionPenalty,
			},
		},
	}, nil
}

// Headers returns the headers sent with every endpoint request.
func (b *RequestBuilder) Headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+b.apiKey)
	return h
}

// Build serializes messages and params into a Request.
// Identical inputs always produce byte-identical bodies.
func (b *RequestBuilder) Build(messages []ChatMessage, params GenerationParams) (*Request, error) {
	payload, err := BuildPayload(messages, params)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return &Request{
		Body:   body,
		Header: b.Headers(),
	}, nil
}
