package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
	openrouterx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/openrouter"
)

// NewGenerator builds the Text Generator for one agent from cfg.
func NewGenerator(ctx context.Context, cfg Config, agent contractx.AgentID) (contractx.TextGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	orCfg := cfg.OpenRouterFor(agent)

	switch cfg.provider() {
	case ProviderOpenAI:
		client := openrouterx.NewClient(orCfg)
		if client == nil {
			return nil, fmt.Errorf("%w: openai client for agent=%s", contractx.ErrModelInvoke, agent)
		}
		return NewOpenAIGenerator(client, orCfg, promptx.System()), nil
	default:
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: chat model for agent=%s: %v", contractx.ErrModelInvoke, agent, err)
		}
		return NewChatGenerator(ctx, chatModel, promptx.System(), agent)
	}
}

// ChatGenerator runs prompts through an eino chat model graph.
type ChatGenerator struct {
	agent  contractx.AgentID
	runner compose.Runnable[map[string]any, string]
}

var _ contractx.TextGenerator = (*ChatGenerator)(nil)

func NewChatGenerator(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	agent contractx.AgentID,
) (*ChatGenerator, error) {
	runner, err := compileTextGraph(ctx, chatModel, systemPrompt, string(agent)+".text_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile text graph for agent=%s: %v", contractx.ErrModelInvoke, agent, err)
	}
	return &ChatGenerator{agent: agent, runner: runner}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.runner.Invoke(ctx, map[string]any{"input": prompt})
	if err != nil {
		return "", fmt.Errorf("%w: agent=%s: %v", contractx.ErrModelInvoke, g.agent, err)
	}
	return out, nil
}

func compileTextGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, string], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, string]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add text prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add text model node: %w", err)
	}
	if err := graph.AddLambdaNode("extract_text",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil {
				return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
			}
			return strings.TrimSpace(msg.Content), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add text extract node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add text edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add text edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "extract_text"); err != nil {
		return nil, fmt.Errorf("add text edge model->extract: %w", err)
	}
	if err := graph.AddEdge("extract_text", compose.END); err != nil {
		return nil, fmt.Errorf("add text edge extract->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile text graph: %w", err)
	}
	return runner, nil
}

// OpenAIGenerator calls the chat completions API through the openai-go SDK.
type OpenAIGenerator struct {
	client      *openaisdk.Client
	model       string
	temperature float32
	maxTokens   int
	system      string
}

var _ contractx.TextGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(client *openaisdk.Client, cfg openrouterx.Config, systemPrompt string) *OpenAIGenerator {
	g := &OpenAIGenerator{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		system:      systemPrompt,
	}
	if cfg.MaxCompletionToken != nil {
		g.maxTokens = *cfg.MaxCompletionToken
	}
	return g
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if g.system != "" {
		messages = append(messages, openaisdk.SystemMessage(g.system))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(g.model),
		Messages:    messages,
		Temperature: openaisdk.Float(float64(g.temperature)),
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: model=%s: %v", contractx.ErrModelInvoke, g.model, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
