package specialist

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

// Registry holds the specialist agents a router talks to.
type Registry struct {
	Data    *DataAgent
	Support *SupportAgent
}

// Agent looks up a specialist by id.
func (r *Registry) Agent(id contractx.AgentID) (contractx.Agent, bool) {
	switch id {
	case contractx.AgentData:
		return r.Data, r.Data != nil
	case contractx.AgentSupport:
		return r.Support, r.Support != nil
	default:
		return nil, false
	}
}

// NewRegistry builds both specialists with their own Text Generators.
func NewRegistry(ctx context.Context, cfg llmx.Config, tools contractx.ToolGateway, comms *protocolx.Log) (*Registry, error) {
	dataGen, err := llmx.NewGenerator(ctx, cfg, contractx.AgentData)
	if err != nil {
		return nil, fmt.Errorf("create data agent generator: %w", err)
	}
	supportGen, err := llmx.NewGenerator(ctx, cfg, contractx.AgentSupport)
	if err != nil {
		return nil, fmt.Errorf("create support agent generator: %w", err)
	}

	data, err := NewDataAgent(tools, dataGen, comms)
	if err != nil {
		return nil, err
	}
	support, err := NewSupportAgent(tools, supportGen, comms)
	if err != nil {
		return nil, err
	}
	return &Registry{Data: data, Support: support}, nil
}
