package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"amlchat/internal/llm"
)

// HistoryRepo stores conversation turns in SQLite.
// It implements service.HistoryStore.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// ListTurns returns the stored turns of conversationID ordered by seq.
// Returns an empty slice if the conversation is unknown (not an error).
func (r *HistoryRepo) ListTurns(ctx context.Context, conversationID string) ([]TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, conversation_id, seq, role, content, created_at FROM chat_turns WHERE conversation_id = ? ORDER BY seq",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	turns := []TurnRecord{}
	for rows.Next() {
		var turn TurnRecord
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.ConversationID, &turn.Seq, &turn.Role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.CreatedAt = parseTimestamp(createdAt)
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return turns, nil
}

// GetChatMessages returns the turns of conversationID in order.
func (r *HistoryRepo) GetChatMessages(ctx context.Context, conversationID string) ([]llm.ChatMessage, error) {
	turns, err := r.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.ChatMessage{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	return messages, nil
}

// AppendTurns appends turns after the last stored turn of conversationID.
// All turns are written in one transaction.
func (r *HistoryRepo) AppendTurns(ctx context.Context, conversationID string, turns []llm.ChatMessage) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO conversations (id) VALUES (?) ON CONFLICT (id) DO NOTHING",
		conversationID,
	); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq) + 1, 0) FROM chat_turns WHERE conversation_id = ?",
		conversationID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read last turn: %w", err)
	}

	for i, turn := range turns {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chat_turns (id, conversation_id, seq, role, content) VALUES (?, ?, ?, ?, ?)",
			uuid.New().String(), conversationID, next+i, string(turn.Role), turn.Content,
		); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turns: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *HistoryRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func parseTimestamp(s string) time.Time {
	// SQLite CURRENT_TIMESTAMP format, with RFC3339 as the driver's alternative
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
