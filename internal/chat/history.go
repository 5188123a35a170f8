// Package chat implements the supportive chatbot pipeline: session-scoped
// history, retrieval over a support corpus, crisis short-circuiting, and the
// LLM turn itself.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript line inside a chat session.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HistoryStore persists per-session transcripts. Sessions are isolated by
// (user, session) pair; the session id is an opaque client-generated token.
type HistoryStore interface {
	Append(ctx context.Context, userID, sessionID string, msg Message) error
	Recent(ctx context.Context, userID, sessionID string, limit int) ([]Message, error)
}

// MemoryHistory keeps transcripts in process memory. It backs deployments
// without Redis; history is lost on restart.
type MemoryHistory struct {
	mu       sync.Mutex
	sessions map[string][]Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]Message)}
}

func (h *MemoryHistory) Append(_ context.Context, userID, sessionID string, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := userID + ":" + sessionID
	h.sessions[key] = append(h.sessions[key], msg)
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, userID, sessionID string, limit int) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	messages := h.sessions[userID+":"+sessionID]
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out, nil
}

// RedisHistory stores transcripts as Redis lists.
type RedisHistory struct {
	client *redis.Client
	prefix string
}

func NewRedisHistory(client *redis.Client) *RedisHistory {
	return &RedisHistory{client: client, prefix: "chat:"}
}

func (h *RedisHistory) key(userID, sessionID string) string {
	return h.prefix + userID + ":" + sessionID
}

func (h *RedisHistory) Append(ctx context.Context, userID, sessionID string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	if err := h.client.RPush(ctx, h.key(userID, sessionID), payload).Err(); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// Recent returns the last limit messages in chronological order.
func (h *RedisHistory) Recent(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	raw, err := h.client.LRange(ctx, h.key(userID, sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip malformed lines rather than failing the turn
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
