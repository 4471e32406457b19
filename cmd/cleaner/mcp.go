package main

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/api"
	"github.com/hazyhaar/touchstone-cleaner/pkg/mcpquic"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the cleaner MCP tools on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		svc, err := newService(store)
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs go to stderr through zap.
		return server.ServeStdio(api.NewMCPServer(svc, version, zap.L()))
	},
}

var mcpCallInsecure bool

var mcpCallCmd = &cobra.Command{
	Use:   "call <quic-addr> [tool] [json-args]",
	Short: "Call a tool on a cleaner MCP-over-QUIC listener, or list its tools",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := mcpquic.NewClient(args[0], mcpquic.ClientTLS(mcpCallInsecure))
		if err := c.Connect(ctx, "cleaner-cli", version); err != nil {
			return err
		}
		defer c.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			tools, err := c.ListTools(ctx)
			if err != nil {
				return err
			}
			for _, t := range tools.Tools {
				fmt.Fprintf(out, "%-18s %s\n", t.Name, t.Description)
			}
			return nil
		}

		var toolArgs map[string]any
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &toolArgs); err != nil {
				return eris.Wrap(err, "tool arguments")
			}
		}
		res, err := c.CallTool(ctx, args[1], toolArgs)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	mcpCallCmd.Flags().BoolVar(&mcpCallInsecure, "insecure", true, "skip certificate verification (self-signed listeners)")
	mcpCmd.AddCommand(mcpCallCmd)
	rootCmd.AddCommand(mcpCmd)
}
