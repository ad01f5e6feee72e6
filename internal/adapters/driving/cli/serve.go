package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/api"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the web front end.

Routes:
  POST /api/upload       multipart PDF upload (field "file")
  POST /api/chat         {"message": "..."} -> {"response": "..."}
  POST /api/search       {"query": "...", "top_k": 3}
  GET  /api/index/stats  vector index statistics
  GET  /api/health       liveness check

With --mcp the MCP server is also mounted at /mcp over streamable HTTP.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr or PORT)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, true)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	if svc.Answers == nil {
		logger.Warn("generation provider not configured; /api/chat will answer 503")
	}

	handler := api.NewHandler(api.Services{
		Uploads:   svc.Uploads,
		Retrieval: svc.Retrieval,
		Answers:   svc.Answers,
		Index:     svc.Index,
	}, svc.Settings.Server.MaxUploadBytes)
	router := api.NewRouter(handler)

	if serveMCP {
		server, err := mcp.NewServer(mcpPorts(svc))
		if err != nil {
			return err
		}
		router.Any("/mcp", gin.WrapH(server.Handler()))
	}

	addr := serveAddr
	if addr == "" {
		addr = svc.Settings.Server.Addr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server running on %s\n", addr)
	return api.Serve(commandContext(cmd), addr, router)
}
