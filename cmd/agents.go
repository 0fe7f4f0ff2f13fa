package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/card"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/system"
)

var (
	agentsCapability string
	agentsJSON       bool
)

var agentsCmd = &cobra.Command{
	Use:   "agents [agent-id]",
	Short: "Show agent capability cards",
	Long: `List the registered agents or show one agent's card.

Examples:
  a2a-support agents
  a2a-support agents --capability 'ticket_*'
  a2a-support agents data_agent --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAgents,
}

var sendCmd = &cobra.Command{
	Use:   "send <agent-id> <method> [params-json]",
	Short: "Send one request envelope to an agent",
	Long: `Validate params against the agent's card, send the request envelope and
print the response envelope.

Example:
  a2a-support send data_agent get_customer '{"customer_id": 5}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(sendCmd)

	agentsCmd.Flags().StringVar(&agentsCapability, "capability", "", "glob pattern matched against capabilities")
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "output cards as JSON")
}

func runAgents(cmd *cobra.Command, args []string) error {
	var cards []card.Card
	switch {
	case len(args) == 1:
		c, ok := card.Get(contractx.AgentID(args[0]))
		if !ok {
			return fmt.Errorf("%w: %s", card.ErrUnknownAgent, args[0])
		}
		cards = []card.Card{c}
	case agentsCapability != "":
		found, err := card.FindByCapability(agentsCapability)
		if err != nil {
			return err
		}
		cards = found
	default:
		cards = card.List()
	}

	out := cmd.OutOrStdout()
	if agentsJSON {
		return writeJSON(out, cards)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tNAME\tMETHODS\tCAPABILITIES")
	for _, c := range cards {
		methods := make([]string, 0, len(c.Methods))
		for _, m := range c.Methods {
			methods = append(methods, m.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.AgentID, c.Name, strings.Join(methods, ","), strings.Join(c.Capabilities, ","))
	}
	return tw.Flush()
}

func runSend(cmd *cobra.Command, args []string) error {
	agentID := contractx.AgentID(args[0])
	method := args[1]

	params := map[string]any{}
	if len(args) == 3 {
		if err := json.Unmarshal([]byte(args[2]), &params); err != nil {
			return fmt.Errorf("%w: params must be a JSON object: %v", contractx.ErrValidation, err)
		}
	}
	if err := card.ValidateParams(agentID, method, params); err != nil {
		return err
	}

	if err := initLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}
	cfg, err := system.LoadConfig(true)
	if err != nil {
		return err
	}
	sys, err := system.New(cmd.Context(), *cfg)
	if err != nil {
		return err
	}
	defer sys.Close()

	agent, ok := sys.Agent(agentID)
	if !ok {
		return fmt.Errorf("%w: %s", card.ErrUnknownAgent, agentID)
	}
	msg := protocolx.NewMessage(method, params, "cli", string(agentID))
	resp := agent.HandleMessage(cmd.Context(), msg)

	raw, err := resp.ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), raw)
	return nil
}
