package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const fallbackAnswer = "Sorry, I couldn't process your request."

// ChatMessage is one turn in a chat transcript.
type ChatMessage struct {
	Sender    string    `json:"sender"` // "user" or "bot"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Crisis    bool      `json:"crisis,omitempty"`
	NumDocs   int       `json:"num_docs,omitempty"`
}

// answerField tolerates the two answer shapes the chat endpoint may emit:
// a plain string or an object with a content field. Anything else collapses
// to a fixed fallback string, so callers only ever see text.
type answerField string

func (a *answerField) UnmarshalJSON(raw []byte) error {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		*a = answerField(text)
		return nil
	}
	var wrapped struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Content != "" {
		*a = answerField(wrapped.Content)
		return nil
	}
	*a = fallbackAnswer
	return nil
}

// ChatSession relays messages to the supportive chatbot and keeps the
// transcript. Sends are serialized: a second Send blocks until the previous
// reply has been appended, so the transcript never interleaves.
type ChatSession struct {
	client    *Client
	userID    string
	sessionID string

	mu         sync.Mutex
	transcript []ChatMessage
}

// NewChatSession starts a fresh conversation for the user. Each session gets
// its own client-generated id, so starting a new one resets server-side
// history.
func (c *Client) NewChatSession(userID string) *ChatSession {
	return &ChatSession{
		client:    c,
		userID:    userID,
		sessionID: newSessionID(),
	}
}

func newSessionID() string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("chat_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(suffix[:]))
}

func (s *ChatSession) SessionID() string { return s.sessionID }

// Send relays one user message and returns the bot's reply. Transport and
// server failures do not surface as errors: the reply is a synthesized bot
// message explaining the problem, and the conversation stays usable.
func (s *ChatSession) Send(ctx context.Context, message string) (ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return ChatMessage{}, &ValidationError{Problems: []string{"message is required"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, ChatMessage{
		Sender:    "user",
		Content:   message,
		Timestamp: time.Now(),
	})

	request := struct {
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}{UserID: s.userID, SessionID: s.sessionID, Message: message}

	var response struct {
		Status  string      `json:"status"`
		Answer  answerField `json:"answer"`
		Crisis  bool        `json:"crisis"`
		NumDocs int         `json:"num_docs"`
	}

	reply := ChatMessage{Sender: "bot", Timestamp: time.Now()}
	if err := s.client.do(ctx, http.MethodPost, "/api/ai/chat", request, &response); err != nil {
		reply.Content = "Sorry, something went wrong reaching the chat service. Please try again."
	} else {
		reply.Content = string(response.Answer)
		if reply.Content == "" {
			reply.Content = fallbackAnswer
		}
		reply.Crisis = response.Crisis
		reply.NumDocs = response.NumDocs
	}

	s.transcript = append(s.transcript, reply)
	return reply, nil
}

// Transcript returns a copy of the conversation so far.
func (s *ChatSession) Transcript() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}
