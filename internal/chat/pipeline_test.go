package chat

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	chromem "github.com/philippgille/chromem-go"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	response string
	err      error
	calls    [][]llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// fakeEmbed maps text onto a deterministic unit vector so retrieval is
// stable without a real embedding model.
func fakeEmbed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	for i, b := range []byte(text) {
		vec[i%4] += float32(b)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func newTestHistory(t *testing.T) *RedisHistory {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHistory(client)
}

func TestHistoryAppendAndRecent(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if err := history.Append(ctx, "u1", "s1", Message{Role: RoleUser, Content: content}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	messages, err := history.Recent(ctx, "u1", "s1", 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "two" || messages[1].Content != "three" {
		t.Errorf("expected last two in order, got %v", messages)
	}
}

func TestHistorySessionIsolation(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	if err := history.Append(ctx, "u1", "s1", Message{Role: RoleUser, Content: "session one"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := history.Append(ctx, "u1", "s2", Message{Role: RoleUser, Content: "session two"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	messages, err := history.Recent(ctx, "u1", "s1", historyLimit)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "session one" {
		t.Errorf("expected only session one's transcript, got %v", messages)
	}
}

func TestProcessNormalTurn(t *testing.T) {
	llm := &fakeLLM{response: "That sounds hard. What helped you last time?"}
	history := newTestHistory(t)
	pipeline := NewPipeline(llm, history, nil)
	ctx := context.Background()

	reply, err := pipeline.Process(ctx, "u1", "s1", "I'm feeling anxious")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if reply.Crisis {
		t.Error("expected crisis=false")
	}
	if reply.Answer != llm.response {
		t.Errorf("expected model answer, got %q", reply.Answer)
	}

	// Both sides of the turn must land in the transcript.
	messages, err := history.Recent(ctx, "u1", "s1", historyLimit)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(messages) != 2 || messages[0].Role != RoleUser || messages[1].Role != RoleAssistant {
		t.Errorf("expected [user, assistant] transcript, got %v", messages)
	}
}

func TestProcessReplaysHistory(t *testing.T) {
	llm := &fakeLLM{response: "ok"}
	history := newTestHistory(t)
	pipeline := NewPipeline(llm, history, nil)
	ctx := context.Background()

	if _, err := pipeline.Process(ctx, "u1", "s1", "first message"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := pipeline.Process(ctx, "u1", "s1", "second message"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(llm.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(llm.calls))
	}
	// second call: system + prior user + prior assistant + new user
	if len(llm.calls[1]) != 4 {
		t.Errorf("expected 4 messages in second call, got %d", len(llm.calls[1]))
	}
}

func TestProcessCrisisBypassesModel(t *testing.T) {
	llm := &fakeLLM{response: "should not be used"}
	history := newTestHistory(t)
	pipeline := NewPipeline(llm, history, nil)

	reply, err := pipeline.Process(context.Background(), "u1", "s1", "I want to die")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !reply.Crisis {
		t.Error("expected crisis=true")
	}
	if reply.Answer != CrisisResponse {
		t.Errorf("expected crisis response, got %q", reply.Answer)
	}
	if len(llm.calls) != 0 {
		t.Errorf("expected no model calls on crisis turn, got %d", len(llm.calls))
	}
}

func TestProcessModelErrorBecomesAnswer(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	history := newTestHistory(t)
	pipeline := NewPipeline(llm, history, nil)

	reply, err := pipeline.Process(context.Background(), "u1", "s1", "hello")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.HasPrefix(reply.Answer, "Error:") {
		t.Errorf("expected error-text answer, got %q", reply.Answer)
	}
}

func TestRetrieverQuery(t *testing.T) {
	retriever, err := NewMemoryRetriever(chromem.EmbeddingFunc(fakeEmbed))
	if err != nil {
		t.Fatalf("NewMemoryRetriever failed: %v", err)
	}
	ctx := context.Background()

	ids := []string{"d1", "d2", "d3"}
	contents := []string{
		"Box breathing: inhale four counts, hold, exhale.",
		"Gratitude journaling prompts for difficult days.",
		"Grounding with the five senses during panic.",
	}
	if err := retriever.Add(ctx, ids, contents); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// k larger than the corpus must clamp, not error.
	passages, err := retriever.Query(ctx, "breathing exercise", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(passages) != 3 {
		t.Errorf("expected 3 passages, got %d", len(passages))
	}
}

func TestRetrieverEmptyCorpus(t *testing.T) {
	retriever, err := NewMemoryRetriever(chromem.EmbeddingFunc(fakeEmbed))
	if err != nil {
		t.Fatalf("NewMemoryRetriever failed: %v", err)
	}

	passages, err := retriever.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestProcessWithRetrieval(t *testing.T) {
	llm := &fakeLLM{response: "try box breathing"}
	history := newTestHistory(t)
	retriever, err := NewMemoryRetriever(chromem.EmbeddingFunc(fakeEmbed))
	if err != nil {
		t.Fatalf("NewMemoryRetriever failed: %v", err)
	}
	ctx := context.Background()
	if err := retriever.Add(ctx, []string{"d1"}, []string{"Box breathing guidance."}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	pipeline := NewPipeline(llm, history, retriever)
	reply, err := pipeline.Process(ctx, "u1", "s1", "I feel panicky")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if reply.NumDocs != 1 {
		t.Errorf("expected num_docs=1, got %d", reply.NumDocs)
	}
}

func TestMemoryHistoryLimit(t *testing.T) {
	history := NewMemoryHistory()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		msg := Message{Role: RoleUser, Content: fmt.Sprintf("message %d", i)}
		if err := history.Append(ctx, "u1", "s1", msg); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	messages, err := history.Recent(ctx, "u1", "s1", 14)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(messages) != 14 {
		t.Fatalf("expected 14 messages, got %d", len(messages))
	}
	if messages[0].Content != "message 6" {
		t.Errorf("expected oldest retained message to be %q, got %q", "message 6", messages[0].Content)
	}
	if messages[13].Content != "message 19" {
		t.Errorf("expected newest message last, got %q", messages[13].Content)
	}
}
