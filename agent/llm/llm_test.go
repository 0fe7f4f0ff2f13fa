package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/openrouter"
)

type fakeChatModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	got := StripCodeFence("```json\n{\"valid\": true}\n```")
	if got != `{"valid": true}` {
		t.Fatalf("unexpected stripped text: %q", got)
	}
}

func TestParseStructured(t *testing.T) {
	t.Parallel()

	type verdict struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	out, err := ParseStructured[verdict]("```json\n{\"valid\": false, \"message\": \"no at sign\"}\n```")
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if out.Valid || out.Message != "no at sign" {
		t.Fatalf("unexpected verdict: %+v", out)
	}

	if _, err := ParseStructured[verdict]("not json"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
	if _, err := ParseStructured[verdict]("```\n```"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation for empty output, got %v", err)
	}
}

func TestChatGeneratorRunsGraph(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []*schema.Message{{Content: "  {\"response\": \"hi\"}  "}}}
	gen, err := NewChatGenerator(context.Background(), fake, "system rules", contractx.AgentSupport)
	if err != nil {
		t.Fatalf("NewChatGenerator() error = %v", err)
	}

	out, err := gen.Generate(context.Background(), `reply with {"response": "..."}`)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != `{"response": "hi"}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("expected system and user messages, got %+v", fake.inputs)
	}
	if fake.inputs[0][0].Content != "system rules" {
		t.Fatalf("unexpected system message: %q", fake.inputs[0][0].Content)
	}
	if !strings.Contains(fake.inputs[0][1].Content, `{"response": "..."}`) {
		t.Fatalf("user prompt must be passed verbatim: %q", fake.inputs[0][1].Content)
	}
}

func TestChatGeneratorWrapsModelErrors(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("upstream down")}
	gen, err := NewChatGenerator(context.Background(), fake, "system rules", contractx.AgentRouter)
	if err != nil {
		t.Fatalf("NewChatGenerator() error = %v", err)
	}
	if _, err := gen.Generate(context.Background(), "x"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestOpenAIGeneratorReadsFirstChoice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " user@example.com "}}]
		}`))
	}))
	defer srv.Close()

	maxTokens := 64
	cfg := openrouterx.Config{BaseURL: srv.URL, APIKey: "test", Model: "test-model", MaxCompletionToken: &maxTokens}
	client := openrouterx.NewClient(cfg)
	if client == nil {
		t.Fatal("client must not be nil")
	}

	out, err := NewOpenAIGenerator(client, cfg, "system rules").Generate(context.Background(), "extract")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "user@example.com" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestClassifierParsesFencedJSON(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "```json\n" + `{
		"type": "multi_intent",
		"intents": ["update_email", "get_history"],
		"requires_data_agent": true,
		"requires_support_agent": false,
		"customer_id_mentioned": 1,
		"urgency": "low",
		"explanation": "two actions"
	}` + "\n```"}

	out, err := NewClassifier(gen).Classify(context.Background(), "update my email and show history", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.Type != contractx.QueryMultiIntent || len(out.Intents) != 2 {
		t.Fatalf("unexpected analysis: %+v", out)
	}
	if out.CustomerIDMentioned == nil || *out.CustomerIDMentioned != 1 {
		t.Fatalf("unexpected customer id: %v", out.CustomerIDMentioned)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Customer ID: Not provided") {
		t.Fatalf("unexpected prompt: %v", gen.prompts)
	}
}

func TestClassifierCoercesLooseFieldTypes(t *testing.T) {
	t.Parallel()

	for _, id := range []string{`"5"`, `5.0`} {
		gen := &fakeGenerator{reply: `{
			"type": "escalation",
			"intents": ["escalate"],
			"requires_data_agent": "false",
			"requires_support_agent": true,
			"customer_id_mentioned": ` + id + `,
			"urgency": "high",
			"explanation": "customer is angry"
		}`}

		out, err := NewClassifier(gen).Classify(context.Background(), "I want a refund now", nil)
		if err != nil {
			t.Fatalf("id %s: Classify() error = %v", id, err)
		}
		if out.Type != contractx.QueryEscalation || out.RequiresDataAgent || !out.RequiresSupportAgent {
			t.Fatalf("id %s: unexpected analysis: %+v", id, out)
		}
		if out.CustomerIDMentioned == nil || *out.CustomerIDMentioned != 5 {
			t.Fatalf("id %s: unexpected customer id: %v", id, out.CustomerIDMentioned)
		}
	}
}

func TestClassifierKeepsNullCustomerIDUnset(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: `{"type": "coordinated_support", "intents": [], "customer_id_mentioned": null}`}
	out, err := NewClassifier(gen).Classify(context.Background(), "my order is late", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.CustomerIDMentioned != nil {
		t.Fatalf("expected no customer id, got %d", *out.CustomerIDMentioned)
	}
}

func TestClassifierRejectsUnusableOutput(t *testing.T) {
	t.Parallel()

	for _, reply := range []string{"I think this is simple", `{"intents": []}`, `{"type": "escalation", "customer_id_mentioned": "five"}`} {
		_, err := NewClassifier(&fakeGenerator{reply: reply}).Classify(context.Background(), "q", nil)
		if !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("reply %q: expected ErrSchemaViolation, got %v", reply, err)
		}
	}

	_, err := NewClassifier(&fakeGenerator{err: contractx.ErrModelInvoke}).Classify(context.Background(), "q", nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestOpenRouterForAppliesAgentOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "default-model",
		Temperature:        0.5,
		MaxCompletionToken: 100,
		RouterModel:        "router-model",
		RouterTemperature:  0,
		DataTemperature:    -1,
		SupportTemperature: -1,
	}

	router := cfg.OpenRouterFor(contractx.AgentRouter)
	if router.Model != "router-model" || router.Temperature != 0 {
		t.Fatalf("unexpected router config: %+v", router)
	}
	data := cfg.OpenRouterFor(contractx.AgentData)
	if data.Model != "default-model" || data.Temperature != 0.5 || data.APIKey != "key" {
		t.Fatalf("unexpected data config: %+v", data)
	}
	if data.MaxCompletionToken == nil || *data.MaxCompletionToken != 100 {
		t.Fatalf("unexpected max tokens: %v", data.MaxCompletionToken)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing key, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m", Provider: "gemini"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown provider, got %v", err)
	}
}
