package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

const (
	ServerName    = "customer-service-tools"
	ServerVersion = "1.0.0"
)

type Config struct {
	// Transport selects how agents reach the Data Store: local or mcp.
	Transport string   `envconfig:"TRANSPORT" default:"local"`
	Command   string   `envconfig:"COMMAND"`
	Args      []string `envconfig:"ARGS"`
}

// NewMCPServer exposes every catalog tool of gw over MCP. Tool results are
// returned as a single JSON text block.
func NewMCPServer(gw contractx.ToolGateway) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	for _, spec := range catalog {
		inputSchema, err := spec.JSONSchema()
		if err != nil {
			return nil, err
		}
		name := spec.Name
		s.AddTool(mcp.NewToolWithRawSchema(name, spec.Desc, inputSchema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				out := gw.Call(ctx, name, req.GetArguments())
				raw, err := json.Marshal(out)
				if err != nil {
					return nil, fmt.Errorf("marshal %s result: %w", name, err)
				}
				res := mcp.NewToolResultText(string(raw))
				res.IsError = out.Error() != ""
				return res, nil
			})
	}
	return s, nil
}

// MCPGateway is a ToolGateway backed by a remote MCP tool server.
type MCPGateway struct {
	client *client.Client
	logger zerolog.Logger
}

var _ contractx.ToolGateway = (*MCPGateway)(nil)

// NewMCPGateway performs the MCP handshake on an already started client.
func NewMCPGateway(ctx context.Context, c *client.Client) (*MCPGateway, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ServerName + "-client", Version: ServerVersion}

	if _, err := c.Initialize(ctx, req); err != nil {
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return &MCPGateway{
		client: c,
		logger: log.Logger.With().Str("component", "mcp_gateway").Logger(),
	}, nil
}

// DialStdio spawns command as an MCP stdio server and connects to it.
func DialStdio(ctx context.Context, command string, env []string, args ...string) (*MCPGateway, error) {
	if command == "" {
		return nil, errors.New("mcp command is required")
	}
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server %q: %w", command, err)
	}
	gw, err := NewMCPGateway(ctx, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	return gw, nil
}

func (g *MCPGateway) Close() error {
	return g.client.Close()
}

func (g *MCPGateway) Call(ctx context.Context, name string, args map[string]any) contractx.ToolResult {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := g.client.CallTool(ctx, req)
	if err != nil {
		g.logger.Warn().Err(err).Str("tool", name).Msg("mcp call failed")
		return fault(name, args, err)
	}

	for _, content := range res.Content {
		var text string
		switch c := content.(type) {
		case mcp.TextContent:
			text = c.Text
		case *mcp.TextContent:
			text = c.Text
		default:
			continue
		}
		var out contractx.ToolResult
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			if res.IsError {
				return fault(name, args, errors.New(text))
			}
			return fault(name, args, fmt.Errorf("decode %s result: %w", name, err))
		}
		return out
	}
	return fault(name, args, fmt.Errorf("%s returned no text content", name))
}
