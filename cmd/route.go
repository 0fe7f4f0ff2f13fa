package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/system"
)

var (
	routeCustomerID int
	routeDemo       bool
	routeShowLog    bool
)

type scenario struct {
	Name       string
	Query      string
	CustomerID int
}

// demoScenarios exercise each routing strategy against the sample data.
var demoScenarios = []scenario{
	{Name: "simple data retrieval", Query: "Get customer information for ID 5", CustomerID: 5},
	{Name: "coordinated support", Query: "I'm customer 1 and need help upgrading my account"},
	{Name: "complex multi-agent", Query: "Show me all active customers who have open tickets"},
	{Name: "escalation", Query: "I've been charged twice, please refund immediately!"},
	{Name: "multi-intent", Query: "Update my email to charlie.new@example.com and show my ticket history", CustomerID: 5},
	{Name: "high priority tickets", Query: "What are all the high-priority tickets currently open?"},
}

var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Route a customer query through the agents",
	Long: `Classify a customer query, coordinate the specialist agents and print the
aggregated answer as JSON.

Examples:
  a2a-support route "Get customer information for ID 5" --customer-id 5
  a2a-support route --demo --log`,
	Args: func(cmd *cobra.Command, args []string) error {
		if routeDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().IntVar(&routeCustomerID, "customer-id", 0, "customer id for the query (0 means none)")
	routeCmd.Flags().BoolVar(&routeDemo, "demo", false, "run the built-in demo scenarios")
	routeCmd.Flags().BoolVar(&routeShowLog, "log", false, "print the communication log summary afterwards")
}

func runRoute(cmd *cobra.Command, args []string) error {
	if err := initLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}
	cfg, err := system.LoadConfig(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sys, err := system.New(ctx, *cfg)
	if err != nil {
		return err
	}
	defer sys.Close()

	scenarios := demoScenarios
	if !routeDemo {
		scenarios = []scenario{{Query: args[0], CustomerID: routeCustomerID}}
	}

	out := cmd.OutOrStdout()
	for _, sc := range scenarios {
		var customerID *int
		if sc.CustomerID != 0 {
			id := sc.CustomerID
			customerID = &id
		}
		if sc.Name != "" {
			fmt.Fprintf(out, "=== %s: %s\n", sc.Name, sc.Query)
		}

		result, err := sys.Router.RouteQuery(ctx, sc.Query, customerID)
		if err != nil {
			return fmt.Errorf("route %q: %w", sc.Query, err)
		}
		if err := writeJSON(out, result); err != nil {
			return err
		}
	}

	if routeShowLog {
		fmt.Fprintln(out, strings.Repeat("-", 40))
		return writeJSON(out, sys.Comms.Summary())
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
