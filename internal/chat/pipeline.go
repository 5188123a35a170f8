package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"reflecto/api/internal/sentiment"

	"github.com/tmc/langchaingo/llms"
)

// historyLimit caps how many prior messages are replayed as model context.
const historyLimit = 14

// retrievalK is how many support passages are pulled per turn.
const retrievalK = 5

// CrisisResponse bypasses the model entirely when crisis language is detected.
const CrisisResponse = "It sounds like you might be in immediate danger or considering self-harm.\n" +
	"Please reach out immediately to local emergency services or helplines.\n" +
	"In India: AASRA (91 9820466726), KIRAN (1800-599-0019), or dial 112 if necessary.\n" +
	"You are not alone, please seek help now."

const systemPrompt = "You are Reflecto, a gentle and supportive mental well-being assistant.\n" +
	"Use CBT-style reframing and empathetic guidance.\n\n" +
	"If context is provided, draw from it. Otherwise, say you lack specific dataset " +
	"guidance and provide general support.\n" +
	"Use 1-2 actionable steps and end with a soft follow-up question."

// Reply is one chatbot turn's result.
type Reply struct {
	Answer  string `json:"answer"`
	Crisis  bool   `json:"crisis"`
	NumDocs int    `json:"num_docs"`
}

// Pipeline runs one chat turn: history replay, retrieval, crisis check, LLM
// call, and transcript store-back.
type Pipeline struct {
	llm       llms.Model
	history   HistoryStore
	retriever *Retriever
}

// NewPipeline builds a pipeline. retriever may be nil, in which case turns
// run without corpus context.
func NewPipeline(llm llms.Model, history HistoryStore, retriever *Retriever) *Pipeline {
	return &Pipeline{llm: llm, history: history, retriever: retriever}
}

// Process handles a single user message in the given session. Model failures
// degrade to an error-text answer rather than failing the turn, so the
// transcript stays consistent.
func (p *Pipeline) Process(ctx context.Context, userID, sessionID, query string) (Reply, error) {
	if sentiment.DetectCrisis(query) {
		reply := Reply{Answer: CrisisResponse, Crisis: true}
		p.storeTurn(ctx, userID, sessionID, query, reply)
		return reply, nil
	}

	history, err := p.history.Recent(ctx, userID, sessionID, historyLimit)
	if err != nil {
		log.Printf("chat: history fetch failed for user=%s session=%s: %v", userID, sessionID, err)
		history = nil // proceed without context rather than failing the turn
	}

	var passages []string
	if p.retriever != nil {
		passages, err = p.retriever.Query(ctx, query, retrievalK)
		if err != nil {
			log.Printf("chat: retrieval failed: %v", err)
			passages = nil
		}
	}

	reply := p.generate(ctx, query, history, passages)
	p.storeTurn(ctx, userID, sessionID, query, reply)
	return reply, nil
}

func (p *Pipeline) generate(ctx context.Context, query string, history []Message, passages []string) Reply {
	system := systemPrompt
	if len(passages) > 0 {
		system += "\n\nContext:\n" + strings.Join(passages, "\n\n")
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case RoleAssistant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, msg.Content))
		}
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.3), llms.WithMaxTokens(2048))
	if err != nil {
		return Reply{Answer: fmt.Sprintf("Error: %v", err)}
	}
	if len(resp.Choices) == 0 {
		return Reply{Answer: "Sorry, I couldn't process your request."}
	}
	return Reply{Answer: resp.Choices[0].Content, NumDocs: len(passages)}
}

func (p *Pipeline) storeTurn(ctx context.Context, userID, sessionID, query string, reply Reply) {
	now := time.Now().UTC()
	if err := p.history.Append(ctx, userID, sessionID, Message{
		Role:      RoleUser,
		Content:   query,
		Timestamp: now,
	}); err != nil {
		log.Printf("chat: store user message failed: %v", err)
	}
	if err := p.history.Append(ctx, userID, sessionID, Message{
		Role:      RoleAssistant,
		Content:   reply.Answer,
		Timestamp: now,
		Metadata:  map[string]any{"num_docs": reply.NumDocs, "crisis": reply.Crisis},
	}); err != nil {
		log.Printf("chat: store assistant message failed: %v", err)
	}
}
