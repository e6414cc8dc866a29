package service

import (
	"maps"

	"github.com/google/uuid"

	"amlchat/internal/llm"
)

// Data types a prompt piece can carry.
const (
	DataTypeText  = "text"
	DataTypeError = "error"
)

// Response error kinds.
const (
	ResponseErrorNone    = "none"
	ResponseErrorBlocked = "blocked"
)

// PromptRequestPiece is one inbound item of a prompt request.
type PromptRequestPiece struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Role           llm.Role          `json:"role"`
	OriginalValue  string            `json:"original_value"`
	ConvertedValue string            `json:"converted_value"`
	DataType       string            `json:"data_type"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// NewTextPiece creates a user text piece for conversationID.
func NewTextPiece(conversationID, text string) PromptRequestPiece {
	return PromptRequestPiece{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           llm.RoleUser,
		OriginalValue:  text,
		ConvertedValue: text,
		DataType:       DataTypeText,
	}
}

// Value returns the text sent to the endpoint, falling back to the original.
func (p PromptRequestPiece) Value() string {
	if p.ConvertedValue != "" {
		return p.ConvertedValue
	}
	return p.OriginalValue
}

// ChatMessage converts the piece into a chat turn.
func (p PromptRequestPiece) ChatMessage() llm.ChatMessage {
	role := p.Role
	if role == "" {
		role = llm.RoleUser
	}
	return llm.ChatMessage{Role: role, Content: p.Value()}
}

// PromptRequest is the inbound call shape. Exactly one text piece is accepted.
type PromptRequest struct {
	Pieces []PromptRequestPiece `json:"pieces"`
}

// PromptResponsePiece is one piece of an endpoint reply.
type PromptResponsePiece struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	RequestID      string            `json:"request_id"`
	Role           llm.Role          `json:"role"`
	Value          string            `json:"value"`
	DataType       string            `json:"data_type"`
	ResponseError  string            `json:"response_error"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// PromptResponse is the normalized reply of a send.
type PromptResponse struct {
	ConversationID string                `json:"conversation_id"`
	Pieces         []PromptResponsePiece `json:"pieces"`
}

// Content returns the value of the first piece.
func (r *PromptResponse) Content() string {
	if r == nil || len(r.Pieces) == 0 {
		return ""
	}
	return r.Pieces[0].Value
}

// IsError reports whether the response carries endpoint error text
// instead of a generated completion.
func (r *PromptResponse) IsError() bool {
	if r == nil {
		return false
	}
	for _, p := range r.Pieces {
		if p.DataType == DataTypeError || (p.ResponseError != "" && p.ResponseError != ResponseErrorNone) {
			return true
		}
	}
	return false
}

// newResponse builds a response that answers request with texts.
func newResponse(request PromptRequestPiece, texts []string, dataType, responseError string) *PromptResponse {
	pieces := make([]PromptResponsePiece, 0, len(texts))
	for _, text := range texts {
		pieces = append(pieces, PromptResponsePiece{
			ID:             uuid.New().String(),
			ConversationID: request.ConversationID,
			RequestID:      request.ID,
			Role:           llm.RoleAssistant,
			Value:          text,
			DataType:       dataType,
			ResponseError:  responseError,
			Labels:         maps.Clone(request.Labels),
		})
	}
	return &PromptResponse{
		ConversationID: request.ConversationID,
		Pieces:         pieces,
	}
}

// completionResponse wraps generated text.
func completionResponse(request PromptRequestPiece, text string) *PromptResponse {
	return newResponse(request, []string{text}, DataTypeText, ResponseErrorNone)
}

// badRequestResponse wraps the raw body of a rejected request.
func badRequestResponse(request PromptRequestPiece, body string) *PromptResponse {
	return newResponse(request, []string{body}, DataTypeError, ResponseErrorBlocked)
}
