package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_endpoint.go -package=mocks amlchat/internal/service Endpoint
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks amlchat/internal/service HistoryStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_target.go -package=mocks -mock_names=ChatTarget=MockChatTarget amlchat/internal/service ChatTarget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"amlchat/internal/contextutil"
	"amlchat/internal/llm"
	"amlchat/internal/retry"
)

// Endpoint performs one call against the remote model.
// This interface is defined from the service layer's perspective (consumer-first).
type Endpoint interface {
	// Complete posts req and returns the decoded body.
	// Non-2xx answers are returned as *llm.StatusError.
	Complete(ctx context.Context, req *llm.Request) (*llm.CompletionResponse, error)
}

// HistoryStore supplies and records the turns of a conversation.
type HistoryStore interface {
	// GetChatMessages returns the turns of conversationID in order.
	// An unknown conversation yields an empty slice.
	GetChatMessages(ctx context.Context, conversationID string) ([]llm.ChatMessage, error)
	// AppendTurns appends turns to conversationID.
	AppendTurns(ctx context.Context, conversationID string, turns []llm.ChatMessage) error
}

// Limiter gates how often calls may start.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ChatTarget sends prompts to a hosted chat model.
type ChatTarget interface {
	// SendPrompt sends the single text piece of req, along with its
	// conversation history, and returns the model's reply.
	SendPrompt(ctx context.Context, req PromptRequest) (*PromptResponse, error)
	// History returns the stored turns of a conversation.
	History(ctx context.Context, conversationID string) ([]llm.ChatMessage, error)
}

// ChatTargetConfig wires a ChatTarget. Endpoint, Builder and History are required.
type ChatTargetConfig struct {
	Endpoint   Endpoint
	Builder    *llm.RequestBuilder
	History    HistoryStore
	Normalizer llm.Normalizer
	Limiter    Limiter
	Retry      retry.Policy
	Params     llm.GenerationParams
}

// chatTarget implements ChatTarget.
type chatTarget struct {
	endpoint   Endpoint
	builder    *llm.RequestBuilder
	history    HistoryStore
	normalizer llm.Normalizer
	limiter    Limiter
	retry      retry.Policy
	params     llm.GenerationParams
	locks      *conversationLocks
}

type unlimited struct{}

func (unlimited) Wait(context.Context) error { return nil }

// NewChatTarget creates a new ChatTarget.
func NewChatTarget(cfg ChatTargetConfig) (ChatTarget, error) {
	if cfg.Endpoint == nil {
		return nil, fmt.Errorf("chat target: endpoint is required")
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("chat target: request builder is required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("chat target: history store is required")
	}

	t := &chatTarget{
		endpoint:   cfg.Endpoint,
		builder:    cfg.Builder,
		history:    cfg.History,
		normalizer: cfg.Normalizer,
		limiter:    cfg.Limiter,
		retry:      cfg.Retry,
		params:     cfg.Params,
		locks:      newConversationLocks(),
	}
	if t.normalizer == nil {
		t.normalizer = llm.NopNormalizer{}
	}
	if t.limiter == nil {
		t.limiter = unlimited{}
	}
	if t.retry.Retryable == nil {
		t.retry.Retryable = IsTransient
	}
	return t, nil
}

// SendPrompt validates req, waits for a rate limit slot, and sends the
// conversation to the endpoint under the retry policy.
//
// A 400 from the endpoint is not returned as an error: the response carries
// the raw error body with data type "error". Any other failure is returned
// and leaves the history untouched.
func (t *chatTarget) SendPrompt(ctx context.Context, req PromptRequest) (*PromptResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		logger.WarnContext(ctx, "rejected prompt request", "error", err)
		return nil, err
	}
	request := req.Pieces[0]
	logger = logger.With("conversation_id", request.ConversationID)

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	unlock, err := t.locks.lock(ctx, request.ConversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	history, err := t.history.GetChatMessages(ctx, request.ConversationID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load conversation history", "error", err)
		return nil, WrapError(err, "failed to load conversation history")
	}

	turn := request.ChatMessage()
	messages := t.normalizer.Normalize(append(slices.Clone(history), turn))

	endpointReq, err := t.builder.Build(messages, t.params)
	if err != nil {
		var msgErr *llm.MessageError
		if errors.As(err, &msgErr) {
			return nil, &ValidationError{Field: "messages", Message: msgErr.Error()}
		}
		return nil, err
	}

	logger.InfoContext(ctx, "sending prompt to target", "prompt", turn.Content, "turns", len(messages))

	text, err := t.complete(ctx, endpointReq)
	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			resp := badRequestResponse(request, statusErr.Body)
			logger.WarnContext(ctx, "target rejected prompt", "status", statusErr.StatusCode)
			logger.InfoContext(ctx, "received response from target", "response", resp.Content(), "data_type", DataTypeError)
			return resp, nil
		}
		logger.ErrorContext(ctx, "failed to get response from target", "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply := llm.ChatMessage{Role: llm.RoleAssistant, Content: text}
	if err := t.history.AppendTurns(ctx, request.ConversationID, []llm.ChatMessage{turn, reply}); err != nil {
		logger.ErrorContext(ctx, "failed to append conversation history", "error", err)
		return nil, WrapError(err, "failed to append conversation history")
	}

	resp := completionResponse(request, text)
	logger.InfoContext(ctx, "received response from target", slog.String("response", text))
	return resp, nil
}

// complete runs one endpoint call under the retry policy and returns the
// generated text. 429 and empty output are surfaced as transient errors.
func (t *chatTarget) complete(ctx context.Context, req *llm.Request) (string, error) {
	var text string
	err := t.retry.Do(ctx, func(ctx context.Context) error {
		resp, err := t.endpoint.Complete(ctx, req)
		if err != nil {
			var statusErr *llm.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
				return &RateLimitError{Err: statusErr}
			}
			return err
		}
		if resp == nil || resp.Output == "" {
			return &EmptyResponseError{Message: "the chat returned an empty response"}
		}
		text = resp.Output
		return nil
	})
	return text, err
}

// History returns the stored turns of conversationID.
func (t *chatTarget) History(ctx context.Context, conversationID string) ([]llm.ChatMessage, error) {
	if conversationID == "" {
		return nil, &ValidationError{Field: "conversation_id", Message: "cannot be empty"}
	}
	turns, err := t.history.GetChatMessages(ctx, conversationID)
	if err != nil {
		return nil, WrapError(err, "failed to load conversation history")
	}
	return turns, nil
}

func validateRequest(req PromptRequest) error {
	if len(req.Pieces) != 1 {
		return &ValidationError{
			Field:   "pieces",
			Message: "this target only supports a single prompt request piece",
		}
	}
	piece := req.Pieces[0]
	if piece.DataType != DataTypeText {
		return &ValidationError{
			Field:   "data_type",
			Message: "this target only supports text prompt input",
		}
	}
	if piece.ConversationID == "" {
		return &ValidationError{
			Field:   "conversation_id",
			Message: "cannot be empty",
		}
	}
	return nil
}
