package mcpserver

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/wcc/pkg/config"
)

// Server wraps the MCP server and registers the wcc tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *charmlog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the base configuration that tool inputs override.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger. It must not write to stdout, which carries
// the protocol.
func WithLogger(l *charmlog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server with all wcc tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		config: config.DefaultConfig(),
		logger: charmlog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the analysis tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "weighted_coverage",
		Description: describeWeightedCoverage(),
	}, s.handleWeightedCoverage)
}
