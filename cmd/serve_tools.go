package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	storex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/system"
	toolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
)

var serveToolsCmd = &cobra.Command{
	Use:   "serve-tools",
	Short: "Serve the customer data tools over MCP stdio",
	Long: `Expose the customer and ticket tools as an MCP server on stdin/stdout.
Agents started with TOOLS_TRANSPORT=mcp spawn this command by default.
Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServeTools,
}

func init() {
	rootCmd.AddCommand(serveToolsCmd)
}

func runServeTools(cmd *cobra.Command, args []string) error {
	if err := initLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}
	storeCfg, err := configx.New[storex.Config]("STORE")
	if err != nil {
		return err
	}

	st, err := system.OpenStore(cmd.Context(), *storeCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := toolx.NewMCPServer(toolx.NewLocal(st))
	if err != nil {
		return err
	}

	log.Info().Str("driver", storeCfg.Driver).Msg("serving tools over stdio")
	return server.ServeStdio(s)
}
