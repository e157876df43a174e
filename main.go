// Command connect6 starts the Connect6 live game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, live updates
//     over server-sent events and WebSocket, and an /mcp HTTP endpoint
//  2. "mcp-stdio" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from config.yml, CONNECT6_* environment variables and a .env
// file; flags override all of them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wricardo/connect6-live/api"
	"github.com/wricardo/connect6-live/config"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
	"github.com/wricardo/connect6-live/game/session"
	"github.com/wricardo/connect6-live/telemetry"
	"github.com/wricardo/connect6-live/transport/mcp"
	"github.com/wricardo/connect6-live/transport/redisrelay"
	"github.com/wricardo/connect6-live/transport/sse"
	"github.com/wricardo/connect6-live/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Connect6 Live Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "connect6",
		Usage:          AppName,
		Version:        Version,
		Flags:          rootFlags(),
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, live updates and MCP endpoint",
				Action:  runServe,
			},
			{
				Name:    "mcp-stdio",
				Aliases: []string{"stdio-mcp", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
		},
	}
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   config.DefaultPath,
			Usage:   "YAML configuration file",
			Sources: cli.EnvVars("CONNECT6_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "HTTP server host",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "HTTP server port",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.DurationFlag{
			Name:  "observer-timeout",
			Usage: "End observer streams after this long (0 never expires them)",
		},
		&cli.StringFlag{
			Name:  "redis-addr",
			Usage: "Relay snapshots to this Redis server",
		},
		&cli.BoolFlag{
			Name:  "ngrok",
			Usage: "Enable ngrok tunnel",
		},
		&cli.StringFlag{
			Name:  "ngrok-auth",
			Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)",
		},
		&cli.StringFlag{
			Name:  "ngrok-domain",
			Usage: "Custom ngrok domain (optional)",
		},
	}
}

// loadConfig reads .env, the config file and the environment, then applies
// flags that were set explicitly
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	if cmd.IsSet("observer-timeout") {
		cfg.Observers.Timeout = cmd.Duration("observer-timeout")
	}
	if cmd.IsSet("redis-addr") {
		cfg.Redis.Addr = cmd.String("redis-addr")
	}
	if cmd.Bool("ngrok") {
		cfg.Tunnel.Enabled = true
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Tunnel.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Tunnel.Domain = cmd.String("ngrok-domain")
	}

	return cfg, cfg.Validate()
}

// newLogger writes JSON to stderr, or readable console output at debug level.
// Stdout stays free for the MCP stdio transport.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newGame wires a fresh session to its hub. The hub runs until ctx is done.
func newGame(ctx context.Context, cfg *config.Config, logger *zap.Logger) service.GameService {
	h := hub.NewHub(logger, cfg.Observers.Buffer)
	go h.Run(ctx)

	sess := session.New(h, logger)
	return service.NewGameService(sess, h, logger)
}

// newHandler mounts the REST API, live update transports and the /mcp endpoint
func newHandler(cfg *config.Config, logger *zap.Logger, gameService service.GameService, baseURL string) http.Handler {
	updates := sse.NewHandler(gameService, logger, sse.Options{
		WriteTimeout: cfg.HTTP.SSEWriteTimeout,
		Timeout:      cfg.Observers.Timeout,
		Buffer:       cfg.Observers.Buffer,
	})
	ws := websocket.NewHandler(gameService, logger, websocket.Options{
		Timeout: cfg.Observers.Timeout,
		Buffer:  cfg.Observers.Buffer,
	})

	apiServer := api.NewServer(gameService, updates, ws.ServeWS, logger)

	mcpClient := mcp.NewClient(baseURL, Version, logger)
	apiServer.Router().HandleFunc("/mcp", handleMCP(mcpClient, logger)).Methods("POST")

	return apiServer
}

// handleMCP answers one JSON-RPC message per request
func handleMCP(mcpClient *mcp.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("marshal mcp response", zap.Error(err))
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server and blocks until SIGINT or SIGTERM
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	gameService := newGame(ctx, cfg, logger)

	if cfg.Redis.RelayEnabled() {
		relay, err := redisrelay.New(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer relay.Close()

		go func() {
			if err := relay.Run(ctx, gameService); err != nil {
				logger.Error("redis relay stopped", zap.Error(err))
			}
		}()
		logger.Info("relaying snapshots to redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel))
	}

	handler := newHandler(cfg, logger, gameService, cfg.BaseURL())
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Addr()
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("version", Version),
			zap.String("rest", fmt.Sprintf("http://%s/game", addr)),
			zap.String("updates", fmt.Sprintf("http://%s/game/updates?playerId=<id>", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?playerId=<id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Tunnel.Enabled {
		go func() {
			if err := serveTunnel(ctx, cfg.Tunnel, handler, logger); err != nil {
				logger.Warn("ngrok tunnel failed", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

// runStdioMCP runs an MCP stdio server.
// It reuses an API already listening at the configured address; if there is
// none, it starts an internal HTTP API bound to a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	baseURL := cfg.BaseURL()
	if !apiAvailable(ctx, baseURL) {
		logger.Info("no external API server found, starting internal HTTP server", zap.String("checked", baseURL))

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{
			Handler: newHandler(cfg, logger, newGame(ctx, cfg, logger), baseURL),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
	}

	mcpClient := mcp.NewClient(baseURL, Version, logger)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable probes the health endpoint of an external server
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
