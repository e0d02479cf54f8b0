// Command molt-mcp is an MCP stdio server exposing the molt-md encrypted
// document hosting API as agent tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bndkts/molt-md-mcp/internal/config"
	"github.com/bndkts/molt-md-mcp/internal/logging"
	"github.com/bndkts/molt-md-mcp/internal/mcp"
	"github.com/bndkts/molt-md-mcp/internal/molt"
	"github.com/bndkts/molt-md-mcp/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "1.0.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "molt-mcp",
		Short:   "MCP server for the molt-md encrypted document hosting API",
		Long: `molt-mcp speaks the MCP protocol over stdin/stdout and delegates
tool calls to the molt-md API. Configure it with MOLT_API_KEY and optional
MOLT_WORKSPACE_ID, MOLT_BASE_URL, and MOLT_REQUEST_TIMEOUT environment
variables, or a YAML file at ~/.config/molt-mcp/config.yaml.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/molt-mcp/config.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the molt-mcp version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "molt-mcp %s\n", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// stdout is reserved for the MCP protocol
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		// Metrics export is optional; keep serving without it
		logger.Warn("telemetry initialization failed", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	client, err := molt.New(molt.Config{
		BaseURL:     cfg.Molt.BaseURL,
		APIKey:      cfg.Molt.APIKey.Value(),
		WorkspaceID: cfg.Molt.WorkspaceID,
		Timeout:     cfg.Molt.RequestTimeout.Duration(),
		Logger:      logger.Named("molt"),
	})
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	srv, err := mcp.NewServer(mcp.Config{
		Name:    "molt-md",
		Version: version,
		Logger:  logger.Named("mcp"),
	}, client)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	workspace := cfg.Molt.WorkspaceID
	if workspace == "" {
		workspace = "not set (accessing docs directly)"
	}
	logger.Info("starting molt-md MCP server",
		zap.String("version", version),
		zap.String("base_url", cfg.Molt.BaseURL),
		zap.String("workspace_id", workspace))

	return srv.Run(ctx)
}
