package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"amlchat/internal/contextutil"
	"amlchat/internal/llm"
	"amlchat/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	target   service.ChatTarget
	markdown goldmark.Markdown
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(target service.ChatTarget) *ChatHandler {
	return &ChatHandler{
		target:   target,
		markdown: goldmark.New(),
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	// Conversation to continue. A new one is started when empty.
	ConversationID string            `json:"conversation_id,omitempty"`
	Message        string            `json:"message"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	RequestID      string `json:"request_id"`
	Reply          string `json:"reply"`
	ReplyHTML      string `json:"reply_html,omitempty"`
	DataType       string `json:"data_type"`
	ResponseError  string `json:"response_error"`
	IsError        bool   `json:"is_error"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	piece := service.NewTextPiece(conversationID, req.Message)
	piece.Labels = req.Labels

	svcResp, err := h.target.SendPrompt(ctx, service.PromptRequest{Pieces: []service.PromptRequestPiece{piece}})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}
	if len(svcResp.Pieces) == 0 {
		logger.ErrorContext(ctx, "target returned no response pieces")
		writeError(w, http.StatusBadGateway, "Empty response from target")
		return
	}

	first := svcResp.Pieces[0]
	resp := ChatResponse{
		ConversationID: svcResp.ConversationID,
		RequestID:      first.RequestID,
		Reply:          first.Value,
		DataType:       first.DataType,
		ResponseError:  first.ResponseError,
		IsError:        svcResp.IsError(),
	}
	if !resp.IsError {
		html, err := h.renderHTML(first.Value)
		if err != nil {
			// the plain reply is still usable
			logger.WarnContext(ctx, "failed to render reply as HTML", "error", err)
		}
		resp.ReplyHTML = html
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *ChatHandler) renderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HistoryHandler serves the stored turns of a conversation.
type HistoryHandler struct {
	target service.ChatTarget
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(target service.ChatTarget) *HistoryHandler {
	return &HistoryHandler{target: target}
}

// HistoryResponse represents the HTTP response payload for a conversation.
type HistoryResponse struct {
	ConversationID string            `json:"conversation_id"`
	Turns          []llm.ChatMessage `json:"turns"`
}

// ServeHTTP handles GET /api/conversations/{id}.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := strings.TrimSpace(chi.URLParam(r, "id"))

	turns, err := h.target.History(ctx, conversationID)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load conversation")
		return
	}
	if turns == nil {
		turns = []llm.ChatMessage{}
	}

	writeJSON(ctx, w, http.StatusOK, HistoryResponse{ConversationID: conversationID, Turns: turns})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "service error", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Target is rate limiting requests")
	case errors.Is(err, service.ErrEmptyResponse):
		writeError(w, http.StatusBadGateway, "Target returned an empty response")
	case errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Target returned status %d", statusErr.StatusCode))
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Target timed out")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
