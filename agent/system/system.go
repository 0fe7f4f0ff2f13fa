// Package system wires configuration, the Data Store, the Tool Gateway and
// the agents into one runnable customer-service system.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	routerx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/router"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
	storex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store"
	toolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

const (
	TransportLocal = "local"
	TransportMCP   = "mcp"
)

type Config struct {
	Log   logx.Config
	LLM   llmx.Config
	Store storex.Config
	Tools toolx.Config
}

// LoadConfig reads every section from the environment. The LLM section is
// only needed by commands that build agents, so callers pass withLLM.
func LoadConfig(withLLM bool) (*Config, error) {
	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return nil, err
	}
	storeCfg, err := configx.New[storex.Config]("STORE")
	if err != nil {
		return nil, err
	}
	toolsCfg, err := configx.New[toolx.Config]("TOOLS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{Log: *logCfg, Store: *storeCfg, Tools: *toolsCfg}
	if withLLM {
		llmCfg, err := configx.New[llmx.Config]("LLM")
		if err != nil {
			return nil, err
		}
		if err := llmCfg.Validate(); err != nil {
			return nil, err
		}
		cfg.LLM = *llmCfg
	}
	return cfg, nil
}

// OpenStore opens the configured Data Store and makes sure its tables exist.
func OpenStore(ctx context.Context, cfg storex.Config) (*storex.BunStore, error) {
	st, err := storex.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.CreateSchema(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// System is the running set of agents sharing one communication log.
type System struct {
	Comms   *protocolx.Log
	Tools   contractx.ToolGateway
	Data    *specialist.DataAgent
	Support *specialist.SupportAgent
	Router  *routerx.Router

	closers []func() error
	logger  zerolog.Logger
}

func New(ctx context.Context, cfg Config) (*System, error) {
	s := &System{
		Comms:  protocolx.NewLog(),
		logger: logx.Component("system"),
	}

	tools, err := s.openTools(ctx, cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Tools = tools

	registry, err := specialist.NewRegistry(ctx, cfg.LLM, tools, s.Comms)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Data = registry.Data
	s.Support = registry.Support

	routerGen, err := llmx.NewGenerator(ctx, cfg.LLM, contractx.AgentRouter)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create router generator: %w", err)
	}
	router, err := routerx.New(llmx.NewClassifier(routerGen), routerGen, registry.Data, registry.Support, s.Comms)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Router = router

	s.logger.Info().Str("transport", transport(cfg.Tools)).Msg("system ready")
	return s, nil
}

// Agent looks up any agent of the system by id.
func (s *System) Agent(id contractx.AgentID) (contractx.Agent, bool) {
	switch id {
	case contractx.AgentRouter:
		return s.Router, s.Router != nil
	case contractx.AgentData:
		return s.Data, s.Data != nil
	case contractx.AgentSupport:
		return s.Support, s.Support != nil
	default:
		return nil, false
	}
}

// Close releases the gateway and store in reverse order of opening.
func (s *System) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *System) openTools(ctx context.Context, cfg Config) (contractx.ToolGateway, error) {
	switch transport(cfg.Tools) {
	case TransportLocal:
		st, err := OpenStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, st.Close)
		return toolx.NewLocal(st), nil
	case TransportMCP:
		command := strings.TrimSpace(cfg.Tools.Command)
		if command == "" {
			exe, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("resolve tool server command: %w", err)
			}
			command = exe
		}
		args := cfg.Tools.Args
		if len(args) == 0 {
			args = []string{"serve-tools"}
		}
		gw, err := toolx.DialStdio(ctx, command, os.Environ(), args...)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, gw.Close)
		return gw, nil
	default:
		return nil, fmt.Errorf("%w: unknown tools transport %q", contractx.ErrValidation, cfg.Tools.Transport)
	}
}

func transport(cfg toolx.Config) string {
	t := strings.ToLower(strings.TrimSpace(cfg.Transport))
	if t == "" {
		return TransportLocal
	}
	return t
}
