// Package cmd provides the command line interface of the customer-service
// agent system.
package cmd

import (
	"io"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "a2a-support",
	Short: "Multi-agent customer service over agent-to-agent messages",
	Long: `a2a-support routes customer-service queries through a router agent that
coordinates a customer data agent and a support agent.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configx.SetEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (defaults to ./.env when present)")
}

func Execute() error {
	return rootCmd.Execute()
}

// initLogging applies the LOG_* settings with logs sent to out.
func initLogging(out io.Writer) error {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return err
	}
	cfg.Output = out
	logx.Init(*cfg)
	return nil
}
