package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC. Use --http to
serve the streamable HTTP transport instead.

Tools: submit_files, list_jobs, get_job_text, delete_job, delete_all_jobs.
Resources: docflow://jobs, docflow://jobs/{jobId}/text.

Examples:
  # Stdio mode (default)
  docflow mcp

  # HTTP mode
  docflow mcp --http localhost:8090

Client configuration:
  {
    "mcpServers": {
      "docflow": {
        "command": "/path/to/docflow",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Jobs: jobService})
	if err != nil {
		return err
	}

	// Pick up jobs submitted in earlier sessions.
	if err := jobService.Refresh(cmd.Context()); err != nil {
		cmd.PrintErrf("Warning: could not load existing jobs: %v\n", err)
	}

	if addr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
